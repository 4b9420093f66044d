package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Notifier formats reports and feedback and sends them to one recipient.
type Notifier struct {
	mailer    Mailer
	recipient string
	log       *logrus.Entry
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewNotifier creates a Notifier that sends everything to recipient.
func NewNotifier(mailer Mailer, recipient string, log *logrus.Entry, m *metrics.Metrics) *Notifier {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Notifier{
		mailer:    mailer,
		recipient: recipient,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// ReportSubject is the subject line of a call alert.
func ReportSubject(class domain.Classification, userEmail, fileName string) string {
	return fmt.Sprintf("%s Call Alert: User %s (File: %s)", strings.ToUpper(string(class)), userEmail, fileName)
}

// FeedbackSubject is the subject line of a feedback email.
func FeedbackSubject(userEmail string) string {
	return "User Feedback: " + userEmail
}

// SendReport emails an alert about a Fraud or Spam call.
func (n *Notifier) SendReport(ctx context.Context, userEmail string, class domain.Classification, reason, fileName string) error {
	if !class.Reportable() {
		return fmt.Errorf("%w: only Fraud or Spam calls can be reported, got %q", domain.ErrInvalidInput, class)
	}

	body := fmt.Sprintf(
		"A user reported a possible %s call.\n\nUser: %s\nFile: %s\nClass: %s\n\nAI Justification:\n%s\n\nThe stored call record has the processed audio.",
		strings.ToLower(string(class)), userEmail, fileName, class, reason,
	)
	return n.send(ctx, "report", Message{
		To:      n.recipient,
		Subject: ReportSubject(class, userEmail, fileName),
		Body:    body,
	})
}

// SendFeedback emails free-text feedback from a user.
func (n *Notifier) SendFeedback(ctx context.Context, userEmail, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: feedback is empty", domain.ErrInvalidInput)
	}

	body := fmt.Sprintf(
		"Feedback submitted.\n\nUser: %s\n\nFeedback:\n-----------------\n%s\n-----------------\n\nTimestamp: %s",
		userEmail, text, n.now().Format(time.DateTime),
	)
	return n.send(ctx, "feedback", Message{
		To:      n.recipient,
		Subject: FeedbackSubject(userEmail),
		Body:    body,
	})
}

func (n *Notifier) send(ctx context.Context, kind string, msg Message) error {
	if n.mailer == nil {
		return fmt.Errorf("%w: mailer not configured", domain.ErrConfiguration)
	}

	err := n.mailer.Send(ctx, msg)
	n.metrics.RecordNotification(kind, err)
	log := n.log.WithFields(logrus.Fields{"kind": kind, "subject": msg.Subject})
	if err != nil {
		log.WithError(err).Error("email not sent")
		return fmt.Errorf("%w: %w", domain.ErrNotification, err)
	}
	log.Info("email sent")
	return nil
}
