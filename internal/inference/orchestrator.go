package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/sirupsen/logrus"
)

// ErrorMarker prefixes every failure returned by Respond.
const ErrorMarker = "Error:"

// HasErrorMarker reports whether a Respond result is a failure.
func HasErrorMarker(s string) bool {
	return strings.HasPrefix(s, ErrorMarker)
}

// Config tunes the wait for an uploaded file to become ACTIVE.
type Config struct {
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	PollTimeout     time.Duration
	DeleteTimeout   time.Duration
}

// DefaultConfig polls every 2s at first and gives up after five minutes.
func DefaultConfig() Config {
	return Config{
		PollInterval:    2 * time.Second,
		MaxPollInterval: 10 * time.Second,
		PollTimeout:     5 * time.Minute,
		DeleteTimeout:   10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxPollInterval < c.PollInterval {
		c.MaxPollInterval = max(d.MaxPollInterval, c.PollInterval)
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.DeleteTimeout <= 0 {
		c.DeleteTimeout = d.DeleteTimeout
	}
	return c
}

var errStillProcessing = errors.New("file still processing")

// Orchestrator runs one prompt against one audio buffer: upload, wait,
// generate, delete.
type Orchestrator struct {
	client  Client
	cfg     Config
	log     *logrus.Entry
	metrics *metrics.Metrics
}

// NewOrchestrator creates an Orchestrator. A nil client is allowed; every
// call then fails with domain.ErrConfiguration.
func NewOrchestrator(client Client, cfg Config, log *logrus.Entry, m *metrics.Metrics) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{
		client:  client,
		cfg:     cfg.withDefaults(),
		log:     log,
		metrics: m,
	}
}

// Generate returns the model's whitespace-trimmed reply to prompt for the
// given audio. The remote file is deleted before returning whenever an
// upload succeeded.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	if o == nil || o.client == nil {
		return "", fmt.Errorf("%w: inference client not configured", domain.ErrConfiguration)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: no audio data provided", domain.ErrInvalidInput)
	}

	start := time.Now()
	h, err := o.client.Upload(ctx, audio, mimeType)
	if err == nil && h == nil {
		err = errors.New("upload returned no file")
	}
	if err != nil {
		o.metrics.RecordInferenceFailure("upload")
		return "", fmt.Errorf("%w: upload audio: %w", domain.ErrRemoteProcessing, err)
	}
	defer o.cleanup(ctx, h.Name)

	log := o.log.WithField("file", h.Name)
	log.WithField("bytes", len(audio)).Debug("audio uploaded")

	h, err = o.waitActive(ctx, h)
	if err != nil {
		o.metrics.RecordInferenceFailure("poll")
		return "", fmt.Errorf("%w: %w", domain.ErrRemoteProcessing, err)
	}

	text, err := o.client.Generate(ctx, prompt, h)
	if err != nil {
		o.metrics.RecordInferenceFailure("generate")
		return "", fmt.Errorf("%w: %w", domain.ErrRemoteProcessing, err)
	}

	o.metrics.ObserveInference(time.Since(start))
	log.WithField("duration", time.Since(start)).Info("inference complete")
	return strings.TrimSpace(text), nil
}

// Respond is Generate with failures folded into the reply as
// "Error: <cause>".
func (o *Orchestrator) Respond(ctx context.Context, prompt string, audio []byte, mimeType string) string {
	text, err := o.Generate(ctx, prompt, audio, mimeType)
	if err != nil {
		return ErrorMarker + " " + err.Error()
	}
	return text
}

// checkState reports whether h is ready. FAILED and unknown states are
// terminal errors.
func checkState(h *Handle) (bool, error) {
	switch h.State {
	case StateActive:
		return true, nil
	case StateProcessing:
		return false, nil
	case StateFailed:
		return false, fmt.Errorf("file %s processing failed", h.Name)
	}
	return false, fmt.Errorf("file %s in unexpected state %q", h.Name, h.State)
}

func (o *Orchestrator) waitActive(ctx context.Context, h *Handle) (*Handle, error) {
	ready, err := checkState(h)
	if err != nil || ready {
		return h, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.cfg.PollInterval
	b.MaxInterval = o.cfg.MaxPollInterval
	b.MaxElapsedTime = o.cfg.PollTimeout
	b.Reset()

	name := h.Name
	poll := func() error {
		next, err := o.client.Get(ctx, name)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("get file state: %w", err))
		}
		if next == nil {
			return backoff.Permanent(errors.New("get file state: empty response"))
		}
		h = next
		ready, err := checkState(h)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ready {
			return errStillProcessing
		}
		return nil
	}

	notify := func(_ error, wait time.Duration) {
		o.log.WithField("file", name).WithField("next_poll", wait).Debug("waiting for file")
	}

	if err := backoff.RetryNotify(poll, backoff.WithContext(b, ctx), notify); err != nil {
		if errors.Is(err, errStillProcessing) {
			return nil, fmt.Errorf("file %s still processing after %s", name, o.cfg.PollTimeout)
		}
		return nil, fmt.Errorf("wait for file %s: %w", name, err)
	}
	return h, nil
}

// cleanup deletes the remote file even when ctx is already cancelled.
func (o *Orchestrator) cleanup(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.DeleteTimeout)
	defer cancel()

	if err := o.client.Delete(ctx, name); err != nil {
		o.metrics.RecordInferenceFailure("delete")
		o.log.WithError(err).WithField("file", name).Warn("could not delete remote file")
		return
	}
	o.log.WithField("file", name).Debug("remote file deleted")
}
