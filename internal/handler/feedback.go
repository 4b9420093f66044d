package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/service"
	"github.com/msomdec/fraudshield/internal/view"
)

// FeedbackHandler serves the feedback screen.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// HandlePage renders the feedback form.
// GET /feedback
func (h *FeedbackHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := enter(w, r, domain.ScreenFeedback)
	if !ok {
		return
	}
	view.FeedbackPage(sess.DisplayName()).Render(r.Context(), w)
}

// HandleSubmit mails the feedback and patches the form: cleared on
// success, kept on failure.
// POST /feedback
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	text := r.FormValue("feedback")

	err := h.feedback.Submit(r.Context(), sess, text)
	switch {
	case err == nil:
		patchResult(w, r, view.FeedbackID, view.FeedbackPanel("", "success", "Thank you for your feedback!"))
	case errors.Is(err, domain.ErrInvalidInput):
		patchResult(w, r, view.FeedbackID, view.FeedbackPanel(text, "error", "Please enter some feedback before sending."))
	case errors.Is(err, domain.ErrNotification), errors.Is(err, domain.ErrConfiguration):
		requestLog(r).WithError(err).Error("send feedback")
		patchResult(w, r, view.FeedbackID, view.FeedbackPanel(text, "error", "Could not send feedback. Please try again later."))
	default:
		requestLog(r).WithError(err).Error("send feedback")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
