package view_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestAnalysisResult_ReportButton(t *testing.T) {
	tests := []struct {
		class      domain.Classification
		wantButton bool
	}{
		{domain.ClassificationFraud, true},
		{domain.ClassificationSpam, true},
		{domain.ClassificationNormal, false},
		{domain.ClassificationUnclear, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			out := render(t, view.AnalysisResult(domain.AnalysisResult{
				FileName:       "call.wav",
				Classification: tt.class,
				Reason:         "because",
				Saved:          true,
			}, 60))
			assert.Contains(t, out, string(tt.class))
			assert.Equal(t, tt.wantButton, strings.Contains(out, "/analyze/report"))
		})
	}
}

func TestAnalysisResult_ErrorAndCrop(t *testing.T) {
	out := render(t, view.AnalysisResult(domain.AnalysisResult{
		FileName:       "long.wav",
		Classification: domain.ClassificationError,
		Reason:         "Error: remote processing failed",
		Audio:          []byte("RIFF"),
		MIMEType:       "audio/wav",
		Cropped:        true,
	}, 60))

	assert.Contains(t, out, "alert-error")
	assert.Contains(t, out, "Error: remote processing failed")
	assert.Contains(t, out, "first 60 seconds")
	assert.Contains(t, out, `src="data:audio/wav;base64,UklGRg=="`)
	assert.NotContains(t, out, "/analyze/report")
}

func TestEscaping(t *testing.T) {
	out := render(t, view.AnalysisResult(domain.AnalysisResult{
		FileName:       `<script>alert(1)</script>.wav`,
		Classification: domain.ClassificationNormal,
		Reason:         `"quoted" & <b>bold</b>`,
		Saved:          true,
	}, 60))

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<b>bold</b>")
}

func TestTranscriptionResult(t *testing.T) {
	out := render(t, view.TranscriptionResult(domain.TranscriptionResult{
		FileName: "clip.wav",
		Text:     "Audio is silent or contains no clear speech",
		NoSpeech: true,
	}, 60))
	assert.Contains(t, out, "alert-info")

	out = render(t, view.TranscriptionResult(domain.TranscriptionResult{
		FileName: "clip.wav",
		Text:     "Hello there",
	}, 60))
	assert.Contains(t, out, "<pre>Hello there</pre>")
}

func TestPage_Navigation(t *testing.T) {
	anon := render(t, view.LoginPage(view.LoginForm{Email: "a@b.c", Error: "Invalid email or password."}))
	assert.NotContains(t, anon, `href="/analyze"`)
	assert.Contains(t, anon, `value="a@b.c"`)
	assert.Contains(t, anon, "Invalid email or password.")

	signedIn := render(t, view.FeedbackPage("Alice"))
	assert.Contains(t, signedIn, `href="/analyze"`)
	assert.Contains(t, signedIn, `<a href="/feedback" class="active">`)
	assert.Contains(t, signedIn, "Alice")
	assert.Contains(t, signedIn, `id="feedback-panel"`)
}

func TestFeedbackPanel_KeepsTextOnError(t *testing.T) {
	out := render(t, view.FeedbackPanel("draft text", "error", "Could not send feedback."))
	assert.Contains(t, out, ">draft text</textarea>")

	out = render(t, view.FeedbackPanel("", "success", "Thank you!"))
	assert.Contains(t, out, "></textarea>")
}

func TestWelcomePage_RecentCalls(t *testing.T) {
	empty := render(t, view.WelcomePage("Alice", nil, 60))
	assert.True(t, strings.HasPrefix(empty, "<!doctype html>"))
	assert.Contains(t, empty, "Welcome, Alice")
	assert.Contains(t, empty, "No calls analysed yet.")
	assert.Contains(t, empty, "first 60 seconds")

	out := render(t, view.WelcomePage("Alice", []domain.CallRecord{
		{FileName: "scam.wav", Classification: domain.ClassificationFraud, CreatedAt: time.Now()},
		{FileName: "<quiet>.wav", Classification: domain.ClassificationUnclear, CreatedAt: time.Now()},
	}, 60))
	assert.NotContains(t, out, "No calls analysed yet.")
	assert.Contains(t, out, "scam.wav")
	assert.Contains(t, out, `class="badge badge-fraud"`)
	assert.Contains(t, out, `class="badge badge-unclear"`)
	assert.Contains(t, out, "&lt;quiet&gt;.wav")
}
