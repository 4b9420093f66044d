package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/logger"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/msomdec/fraudshield/internal/notify"
	"github.com/msomdec/fraudshield/internal/notify/notifytest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReport(t *testing.T) {
	rec := &notifytest.Recorder{}
	n := notify.NewNotifier(rec, "ops@example.com", logger.Discard(), nil)

	err := n.SendReport(context.Background(), "user@example.com", domain.ClassificationFraud, "Caller demanded OTP", "call.wav")
	require.NoError(t, err)

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ops@example.com", sent[0].To)
	assert.Equal(t, "FRAUD Call Alert: User user@example.com (File: call.wav)", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "User: user@example.com")
	assert.Contains(t, sent[0].Body, "Class: Fraud")
	assert.Contains(t, sent[0].Body, "Caller demanded OTP")
}

func TestSendReport_OnlyFraudOrSpam(t *testing.T) {
	rec := &notifytest.Recorder{}
	n := notify.NewNotifier(rec, "ops@example.com", logger.Discard(), nil)

	for _, c := range []domain.Classification{domain.ClassificationNormal, domain.ClassificationUnclear, domain.ClassificationError} {
		err := n.SendReport(context.Background(), "user@example.com", c, "r", "a.wav")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "class=%s", c)
	}
	assert.Empty(t, rec.Sent())

	require.NoError(t, n.SendReport(context.Background(), "user@example.com", domain.ClassificationSpam, "sales", "a.wav"))
	assert.Equal(t, "SPAM Call Alert: User user@example.com (File: a.wav)", rec.Sent()[0].Subject)
}

func TestSendFeedback(t *testing.T) {
	rec := &notifytest.Recorder{}
	n := notify.NewNotifier(rec, "ops@example.com", logger.Discard(), nil)

	require.NoError(t, n.SendFeedback(context.Background(), "user@example.com", "  Great tool!  "))

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "User Feedback: user@example.com", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Great tool!")
	assert.Contains(t, sent[0].Body, "Timestamp: ")
}

func TestSendFeedback_Empty(t *testing.T) {
	rec := &notifytest.Recorder{}
	n := notify.NewNotifier(rec, "ops@example.com", logger.Discard(), nil)

	err := n.SendFeedback(context.Background(), "user@example.com", "   \n ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, rec.Sent())
}

func TestSend_FailureWrapped(t *testing.T) {
	rec := &notifytest.Recorder{Err: errors.New("535 authentication failed")}
	m := metrics.New()
	n := notify.NewNotifier(rec, "ops@example.com", logger.Discard(), m)

	err := n.SendFeedback(context.Background(), "user@example.com", "hello")
	assert.ErrorIs(t, err, domain.ErrNotification)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("feedback", "failed")))
}

func TestSend_NoMailer(t *testing.T) {
	n := notify.NewNotifier(nil, "ops@example.com", logger.Discard(), nil)

	err := n.SendFeedback(context.Background(), "user@example.com", "hello")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewSMTPMailer_RequiresCredentials(t *testing.T) {
	_, err := notify.NewSMTPMailer(notify.SMTPConfig{Host: "smtp.example.com"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	m, err := notify.NewSMTPMailer(notify.SMTPConfig{Host: "smtp.example.com", Username: "bot@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}
