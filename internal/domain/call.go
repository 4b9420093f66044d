package domain

import (
	"context"
	"time"
)

// Classification is the label assigned to one analysed call.
type Classification string

const (
	ClassificationFraud   Classification = "Fraud"
	ClassificationSpam    Classification = "Spam"
	ClassificationNormal  Classification = "Normal"
	ClassificationUnclear Classification = "Unclear/Empty"

	// ClassificationError marks a failed analysis. It is never persisted.
	ClassificationError Classification = "Error"
)

// Labels returns the classifications a model is allowed to answer with.
func Labels() []Classification {
	return []Classification{
		ClassificationFraud,
		ClassificationSpam,
		ClassificationNormal,
		ClassificationUnclear,
	}
}

// Storable reports whether c may be written to the calls table.
func (c Classification) Storable() bool {
	switch c {
	case ClassificationFraud, ClassificationSpam, ClassificationNormal, ClassificationUnclear:
		return true
	}
	return false
}

// Reportable reports whether an alert email may be sent for c.
func (c Classification) Reportable() bool {
	return c == ClassificationFraud || c == ClassificationSpam
}

// CallRecord is one analysed recording owned by a user.
type CallRecord struct {
	ID             int64
	UserEmail      string
	FileName       string
	FileData       []byte // Normalized audio (canonical WAV)
	Classification Classification
	Reason         string
	CreatedAt      time.Time
}

// CallRepository handles call record persistence. Records are insert-only.
type CallRepository interface {
	Create(ctx context.Context, call *CallRecord) error
	// ListByUser returns the newest records first, without FileData.
	ListByUser(ctx context.Context, userEmail string, limit int) ([]CallRecord, error)
	CountByClassification(ctx context.Context, c Classification) (int, error)
}
