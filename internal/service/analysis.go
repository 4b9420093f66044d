package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/fraudshield/internal/audio"
	"github.com/msomdec/fraudshield/internal/classify"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/inference"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Responder runs a prompt over audio and returns the reply, or a reply
// starting with inference.ErrorMarker on failure.
type Responder interface {
	Respond(ctx context.Context, prompt string, audio []byte, mimeType string) string
}

// Reporter sends operator emails.
type Reporter interface {
	SendReport(ctx context.Context, userEmail string, class domain.Classification, reason, fileName string) error
	SendFeedback(ctx context.Context, userEmail, text string) error
}

// AnalysisService runs uploaded recordings through normalization and the
// model, stores classified calls, and sends alerts on request.
type AnalysisService struct {
	normalizer *audio.Normalizer
	model      Responder
	calls      domain.CallRepository
	reporter   Reporter
	log        *logrus.Entry
	metrics    *metrics.Metrics
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(
	normalizer *audio.Normalizer,
	model Responder,
	calls domain.CallRepository,
	reporter Reporter,
	log *logrus.Entry,
	m *metrics.Metrics,
) *AnalysisService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &AnalysisService{
		normalizer: normalizer,
		model:      model,
		calls:      calls,
		reporter:   reporter,
		log:        log,
		metrics:    m,
	}
}

// MaxDurationSeconds is the crop limit applied to uploads.
func (s *AnalysisService) MaxDurationSeconds() int {
	return int(s.normalizer.MaxDuration().Seconds())
}

func requireLogin(sess *Session) error {
	if sess == nil || !sess.Authenticated() {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *AnalysisService) normalize(fileName string, data []byte) (*audio.Normalized, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrInvalidInput)
	}
	norm, err := s.normalizer.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", fileName, err)
	}
	return norm, nil
}

// Analyze classifies one recording and caches the result in the session.
// Every result except Error is stored as a call record. A store failure is
// logged and reported through Saved; it does not fail the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, sess *Session, fileName string, data []byte) (domain.AnalysisResult, error) {
	if err := requireLogin(sess); err != nil {
		return domain.AnalysisResult{}, err
	}

	norm, err := s.normalize(fileName, data)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	raw := s.model.Respond(ctx, inference.FraudAnalysisPrompt, norm.Data, norm.MIMEType)
	class, reason := classify.Parse(raw)

	result := domain.AnalysisResult{
		FileName:       fileName,
		Classification: class,
		Reason:         reason,
		Audio:          norm.Data,
		MIMEType:       norm.MIMEType,
		Cropped:        norm.Cropped,
	}

	log := s.log.WithFields(logrus.Fields{
		"user":           sess.Email(),
		"file":           fileName,
		"classification": class,
		"cropped":        norm.Cropped,
	})

	if class != domain.ClassificationError {
		err := s.calls.Create(ctx, &domain.CallRecord{
			UserEmail:      sess.Email(),
			FileName:       fileName,
			FileData:       norm.Data,
			Classification: class,
			Reason:         reason,
		})
		if err != nil {
			log.WithError(err).Error("call record not saved")
		} else {
			result.Saved = true
		}
	} else {
		log.WithField("reply", raw).Warn("analysis failed")
	}

	s.metrics.RecordAnalysis(string(class))
	log.Info("call analysed")

	sess.StoreAnalysis(result)
	return result, nil
}

// Transcribe transcribes one recording and caches the result in the
// session. Transcriptions are not stored.
func (s *AnalysisService) Transcribe(ctx context.Context, sess *Session, fileName string, data []byte) (domain.TranscriptionResult, error) {
	if err := requireLogin(sess); err != nil {
		return domain.TranscriptionResult{}, err
	}

	norm, err := s.normalize(fileName, data)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	raw := s.model.Respond(ctx, inference.TranscriptionPrompt, norm.Data, norm.MIMEType)
	result := domain.TranscriptionResult{
		FileName: fileName,
		Text:     raw,
		Audio:    norm.Data,
		MIMEType: norm.MIMEType,
		Cropped:  norm.Cropped,
	}

	outcome := "ok"
	switch {
	case inference.HasErrorMarker(raw):
		result.Failed = true
		outcome = "error"
	case strings.TrimSpace(raw) == inference.NoSpeechTranscript:
		result.NoSpeech = true
		result.Text = inference.NoSpeechTranscript
		outcome = "no_speech"
	}

	s.metrics.RecordTranscription(outcome)
	s.log.WithFields(logrus.Fields{
		"user":    sess.Email(),
		"file":    fileName,
		"outcome": outcome,
	}).Info("audio transcribed")

	sess.StoreTranscription(result)
	return result, nil
}

// Report emails an alert for a Fraud or Spam result analysed earlier in
// this session.
func (s *AnalysisService) Report(ctx context.Context, sess *Session, fileName string) error {
	if err := requireLogin(sess); err != nil {
		return err
	}

	r, ok := sess.Analysis(fileName)
	if !ok {
		return fmt.Errorf("%w: no analysis for %q in this session", domain.ErrNotFound, fileName)
	}
	if err := s.reporter.SendReport(ctx, sess.Email(), r.Classification, r.Reason, r.FileName); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// RecentCalls lists the user's latest stored analyses.
func (s *AnalysisService) RecentCalls(ctx context.Context, sess *Session, limit int) ([]domain.CallRecord, error) {
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	return s.calls.ListByUser(ctx, sess.Email(), limit)
}
