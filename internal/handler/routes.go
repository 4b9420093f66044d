package handler

import (
	"net/http"

	"github.com/msomdec/fraudshield/internal/logger"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/msomdec/fraudshield/internal/service"
)

// Deps carries everything the routes need.
type Deps struct {
	Auth     *service.AuthService
	Sessions *service.SessionStore
	Analysis *service.AnalysisService
	Feedback *service.FeedbackService
	DB       Pinger
	Metrics  *metrics.Metrics
	Log      *logger.Logger

	// LoginLimit is keyed by client IP, InferenceLimit by user email.
	// Either may be nil to disable limiting.
	LoginLimit     *service.TokenBucket
	InferenceLimit *service.TokenBucket

	CookieSecure   bool
	MaxUploadBytes int64
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	sessions := NewSessions(d.Auth, d.Sessions, d.CookieSecure)
	authH := NewAuthHandler(d.Auth, sessions, d.Sessions, d.LoginLimit)
	calls := NewCallHandler(d.Analysis, d.InferenceLimit, d.MaxUploadBytes)
	feedback := NewFeedbackHandler(d.Feedback)
	health := NewHealthHandler(d.DB)

	mux.HandleFunc("GET /healthz", health.HandleHealthz)
	mux.Handle("GET /metrics", d.Metrics.Handler())

	page := func(h http.HandlerFunc) http.Handler {
		return sessions.Wrap(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return sessions.Wrap(RequireAuth(h))
	}

	mux.Handle("GET /", page(HandleRoot))
	mux.Handle("GET /login", page(authH.HandleLoginPage))
	mux.Handle("POST /login", page(authH.HandleLogin))
	mux.Handle("GET /register", page(authH.HandleRegisterPage))
	mux.Handle("POST /register", page(authH.HandleRegister))
	mux.Handle("POST /logout", page(authH.HandleLogout))

	mux.Handle("GET /welcome", page(calls.HandleWelcome))
	mux.Handle("GET /analyze", page(calls.HandleAnalyzePage))
	mux.Handle("POST /analyze", protected(calls.HandleAnalyze))
	mux.Handle("POST /analyze/report", protected(calls.HandleReport))
	mux.Handle("GET /transcribe", page(calls.HandleTranscribePage))
	mux.Handle("POST /transcribe", protected(calls.HandleTranscribe))
	mux.Handle("GET /feedback", page(feedback.HandlePage))
	mux.Handle("POST /feedback", protected(feedback.HandleSubmit))
}

// NewRouter returns the full handler: routes behind request logging and
// security headers.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, d)
	log := d.Log
	if log == nil {
		log = logger.New(logger.Options{})
	}
	return LogRequests(log, d.Metrics, SecurityHeaders(mux))
}
