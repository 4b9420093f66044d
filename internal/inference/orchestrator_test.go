package inference_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/inference"
	"github.com/msomdec/fraudshield/internal/inference/inferencetest"
	"github.com/msomdec/fraudshield/internal/logger"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var audioBytes = []byte("RIFF....WAVEfmt ")

func fastConfig() inference.Config {
	return inference.Config{
		PollInterval:    time.Millisecond,
		MaxPollInterval: 2 * time.Millisecond,
		PollTimeout:     50 * time.Millisecond,
		DeleteTimeout:   time.Second,
	}
}

func newOrchestrator(c inference.Client) *inference.Orchestrator {
	return inference.NewOrchestrator(c, fastConfig(), logger.Discard(), nil)
}

func TestGenerate_NoClient(t *testing.T) {
	o := inference.NewOrchestrator(nil, fastConfig(), logger.Discard(), nil)

	_, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	reply := o.Respond(context.Background(), "prompt", audioBytes, "audio/wav")
	assert.True(t, inference.HasErrorMarker(reply))
}

func TestGenerate_EmptyAudio(t *testing.T) {
	stub := &inferencetest.StubClient{Reply: "Normal"}
	o := newOrchestrator(stub)

	_, err := o.Generate(context.Background(), "prompt", nil, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, stub.Uploads())
}

func TestGenerate_TrimsReplyAndDeletes(t *testing.T) {
	stub := &inferencetest.StubClient{Reply: "  Fraud\nCaller demanded OTP \n\n"}
	o := newOrchestrator(stub)

	text, err := o.Generate(context.Background(), inference.FraudAnalysisPrompt, audioBytes, "audio/wav")
	require.NoError(t, err)

	assert.Equal(t, "Fraud\nCaller demanded OTP", text)
	assert.Equal(t, [][]byte{audioBytes}, stub.Uploads())
	assert.Equal(t, []string{inference.FraudAnalysisPrompt}, stub.Prompts())
	assert.Equal(t, []string{"files/stub-1"}, stub.Deleted())
}

func TestGenerate_PollsUntilActive(t *testing.T) {
	stub := &inferencetest.StubClient{
		Reply:       "Normal\nDelivery call",
		UploadState: inference.StateProcessing,
		States:      []inference.State{inference.StateProcessing, inference.StateProcessing, inference.StateActive},
	}
	o := newOrchestrator(stub)

	text, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "Normal\nDelivery call", text)
	assert.Equal(t, 3, stub.Gets())
	assert.Len(t, stub.Deleted(), 1)
}

func TestGenerate_FailedState(t *testing.T) {
	stub := &inferencetest.StubClient{
		UploadState: inference.StateProcessing,
		States:      []inference.State{inference.StateFailed},
	}
	m := metrics.New()
	o := inference.NewOrchestrator(stub, fastConfig(), logger.Discard(), m)

	_, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
	assert.Contains(t, err.Error(), "processing failed")
	assert.Empty(t, stub.Prompts())
	assert.Len(t, stub.Deleted(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InferenceFailures.WithLabelValues("poll")))
}

func TestGenerate_UnexpectedState(t *testing.T) {
	stub := &inferencetest.StubClient{UploadState: "STATE_UNSPECIFIED"}
	o := newOrchestrator(stub)

	_, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
	assert.Contains(t, err.Error(), "unexpected state")
	assert.Zero(t, stub.Gets())
	assert.Len(t, stub.Deleted(), 1)
}

func TestGenerate_PollTimeout(t *testing.T) {
	stub := &inferencetest.StubClient{
		UploadState: inference.StateProcessing,
		States:      []inference.State{inference.StateProcessing},
	}
	o := newOrchestrator(stub)

	_, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
	assert.Contains(t, err.Error(), "still processing")
	assert.Greater(t, stub.Gets(), 1)
	assert.Len(t, stub.Deleted(), 1)
}

func TestGenerate_CancelledContextStillDeletes(t *testing.T) {
	stub := &inferencetest.StubClient{
		UploadState: inference.StateProcessing,
		States:      []inference.State{inference.StateProcessing},
	}
	o := newOrchestrator(stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Generate(ctx, "prompt", audioBytes, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, stub.Deleted(), 1)
}

func TestGenerate_UploadFailure(t *testing.T) {
	stub := &inferencetest.StubClient{UploadErr: errors.New("quota exceeded")}
	o := newOrchestrator(stub)

	_, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
	assert.Empty(t, stub.Deleted(), "nothing to delete without a handle")
}

func TestGenerate_GenerateFailureStillDeletes(t *testing.T) {
	stub := &inferencetest.StubClient{GenerateErr: errors.New("model overloaded")}
	o := newOrchestrator(stub)

	_, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
	assert.Len(t, stub.Deleted(), 1)
}

func TestGenerate_DeleteFailureSwallowed(t *testing.T) {
	stub := &inferencetest.StubClient{Reply: "Spam\nLoan offer", DeleteErr: errors.New("not found")}
	o := newOrchestrator(stub)

	text, err := o.Generate(context.Background(), "prompt", audioBytes, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "Spam\nLoan offer", text)
	assert.Len(t, stub.Deleted(), 1)
}

func TestRespond_MarkerContract(t *testing.T) {
	ok := newOrchestrator(&inferencetest.StubClient{Reply: "Normal\nok"})
	assert.Equal(t, "Normal\nok", ok.Respond(context.Background(), "p", audioBytes, "audio/wav"))

	failing := newOrchestrator(&inferencetest.StubClient{UploadErr: errors.New("boom")})
	reply := failing.Respond(context.Background(), "p", audioBytes, "audio/wav")
	assert.True(t, inference.HasErrorMarker(reply))
	assert.Contains(t, reply, "boom")
}

func TestPromptsMentionNoSpeechSentinel(t *testing.T) {
	assert.Contains(t, inference.TranscriptionPrompt, inference.NoSpeechTranscript)
	for _, label := range domain.Labels() {
		assert.Contains(t, inference.FraudAnalysisPrompt, string(label))
	}
}
