package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/service"
	"github.com/msomdec/fraudshield/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// recentCallsLimit is how many stored analyses the welcome screen lists.
const recentCallsLimit = 10

// CallHandler serves the welcome, analyze and transcribe screens.
type CallHandler struct {
	analysis  *service.AnalysisService
	limiter   *service.TokenBucket
	maxUpload int64
}

// NewCallHandler creates a new CallHandler. limiter is keyed by user email
// and guards the inference quota; maxUpload caps the multipart body.
func NewCallHandler(analysis *service.AnalysisService, limiter *service.TokenBucket, maxUpload int64) *CallHandler {
	return &CallHandler{analysis: analysis, limiter: limiter, maxUpload: maxUpload}
}

// enter moves the session to screen, redirecting anonymous callers to login.
func enter(w http.ResponseWriter, r *http.Request, screen domain.Screen) (*service.Session, bool) {
	sess := SessionFromContext(r.Context())
	if err := sess.Navigate(screen); err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

// HandleWelcome renders the welcome screen with the user's recent calls.
// GET /welcome
func (h *CallHandler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	sess, ok := enter(w, r, domain.ScreenWelcome)
	if !ok {
		return
	}
	recent, err := h.analysis.RecentCalls(r.Context(), sess, recentCallsLimit)
	if err != nil {
		// The page is still useful without the history.
		requestLog(r).WithError(err).Error("list recent calls")
		recent = nil
	}
	view.WelcomePage(sess.DisplayName(), recent, h.analysis.MaxDurationSeconds()).Render(r.Context(), w)
}

// HandleAnalyzePage renders the analyze screen.
// GET /analyze
func (h *CallHandler) HandleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := enter(w, r, domain.ScreenAnalyze)
	if !ok {
		return
	}
	view.AnalyzePage(sess.DisplayName(), h.analysis.MaxDurationSeconds()).Render(r.Context(), w)
}

// HandleTranscribePage renders the transcribe screen.
// GET /transcribe
func (h *CallHandler) HandleTranscribePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := enter(w, r, domain.ScreenTranscribe)
	if !ok {
		return
	}
	view.TranscribePage(sess.DisplayName(), h.analysis.MaxDurationSeconds()).Render(r.Context(), w)
}

// readUpload enforces the rate limit and reads the "audio" multipart file.
// It writes the HTTP error itself and returns ok=false on failure.
func (h *CallHandler) readUpload(w http.ResponseWriter, r *http.Request, sess *service.Session) (string, []byte, bool) {
	if h.limiter != nil && !h.limiter.Allow(sess.Email()) {
		requestLog(r).WithField("user", sess.Email()).Warn("inference rate limit exceeded")
		http.Error(w, "Too many requests. Please wait a minute and try again.", http.StatusTooManyRequests)
		return "", nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return "", nil, false
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return "", nil, false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "No audio file provided", http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		requestLog(r).WithError(err).Error("read upload")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", nil, false
	}
	return header.Filename, data, true
}

// pipelineError turns a normalization failure into the message shown in
// the result area. ok is false for unexpected errors.
func pipelineError(r *http.Request, err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrDecode):
		return "Could not read the audio file. Please upload a WAV, MP3 or Ogg recording.", true
	case errors.Is(err, domain.ErrEncode):
		requestLog(r).WithError(err).Error("encode recording")
		return "Could not prepare the recording for analysis. Please try again.", true
	case errors.Is(err, domain.ErrInvalidInput):
		return userMessage(err, domain.ErrInvalidInput), true
	}
	return "", false
}

func patchResult(w http.ResponseWriter, r *http.Request, id string, c templ.Component) {
	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(c, datastar.WithSelectorID(id), datastar.WithModeInner())
}

// HandleAnalyze classifies an uploaded recording and patches the result in.
// POST /analyze
func (h *CallHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	fileName, data, ok := h.readUpload(w, r, sess)
	if !ok {
		return
	}

	result, err := h.analysis.Analyze(r.Context(), sess, fileName, data)
	if err != nil {
		msg, known := pipelineError(r, err)
		if !known {
			requestLog(r).WithError(err).Error("analyze call")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		patchResult(w, r, view.ResultID, view.Alert("error", msg))
		return
	}

	patchResult(w, r, view.ResultID, view.AnalysisResult(result, h.analysis.MaxDurationSeconds()))
}

// HandleReport emails an alert for a Fraud or Spam result of this session.
// POST /analyze/report
func (h *CallHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	fileName := r.FormValue("file_name")

	err := h.analysis.Report(r.Context(), sess, fileName)
	switch {
	case err == nil:
		patchResult(w, r, view.ReportID, view.Alert("success", "Alert sent. Thank you for reporting."))
	case errors.Is(err, domain.ErrNotFound):
		patchResult(w, r, view.ReportID, view.Alert("error", "That file has not been analysed in this session."))
	case errors.Is(err, domain.ErrInvalidInput):
		patchResult(w, r, view.ReportID, view.Alert("error", "Only Fraud or Spam results can be reported."))
	case errors.Is(err, domain.ErrNotification), errors.Is(err, domain.ErrConfiguration):
		requestLog(r).WithError(err).Error("send report")
		patchResult(w, r, view.ReportID, view.Alert("error", "Could not send the alert. Please try again later."))
	default:
		requestLog(r).WithError(err).Error("send report")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleTranscribe transcribes an uploaded recording and patches the
// transcript in.
// POST /transcribe
func (h *CallHandler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	fileName, data, ok := h.readUpload(w, r, sess)
	if !ok {
		return
	}

	result, err := h.analysis.Transcribe(r.Context(), sess, fileName, data)
	if err != nil {
		msg, known := pipelineError(r, err)
		if !known {
			requestLog(r).WithError(err).Error("transcribe call")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		patchResult(w, r, view.ResultID, view.Alert("error", msg))
		return
	}

	patchResult(w, r, view.ResultID, view.TranscriptionResult(result, h.analysis.MaxDurationSeconds()))
}
