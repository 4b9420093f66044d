package handler

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/msomdec/fraudshield/internal/logger"
	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/msomdec/fraudshield/internal/service"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	logContextKey     contextKey = "log"
)

// SessionCookie is the name of the cookie carrying the signed session id.
const SessionCookie = "fs_session"

// sessionTokenTTL bounds the cookie token. The session itself expires
// earlier if it sits idle.
const sessionTokenTTL = 24 * time.Hour

// SessionFromContext extracts the caller's session from the request context.
// Returns nil outside WithSession.
func SessionFromContext(ctx context.Context) *service.Session {
	sess, _ := ctx.Value(sessionContextKey).(*service.Session)
	return sess
}

func withSessionContext(r *http.Request, sess *service.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess))
}

// requestLog returns the request-scoped log entry set by LogRequests.
func requestLog(r *http.Request) *logrus.Entry {
	if entry, ok := r.Context().Value(logContextKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Sessions resolves the session cookie to a live session, creating an
// anonymous one when the cookie is missing, forged or expired.
type Sessions struct {
	auth   *service.AuthService
	store  *service.SessionStore
	secure bool
}

// NewSessions creates the session middleware.
func NewSessions(auth *service.AuthService, store *service.SessionStore, secure bool) *Sessions {
	return &Sessions{auth: auth, store: store, secure: secure}
}

// Wrap injects the caller's session into the request context.
func (s *Sessions) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.lookup(r)
		if sess == nil {
			sess = s.store.Create()
			if err := s.setCookie(w, sess); err != nil {
				requestLog(r).WithError(err).Error("issue session cookie")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, withSessionContext(r, sess))
	})
}

func (s *Sessions) lookup(r *http.Request) *service.Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	id, err := s.auth.ParseSessionToken(cookie.Value)
	if err != nil {
		return nil
	}
	sess, err := s.store.Get(id)
	if err != nil {
		return nil
	}
	return sess
}

func (s *Sessions) setCookie(w http.ResponseWriter, sess *service.Session) error {
	token, err := s.auth.IssueSessionToken(sess.ID(), sessionTokenTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTokenTTL.Seconds()),
	})
	return nil
}

func (s *Sessions) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// RequireAuth rejects requests whose session is not logged in. Page loads
// are redirected to the login screen; everything else gets a 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil || !sess.Authenticated() {
			if r.Method == http.MethodGet {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets conservative browser security headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status. It forwards Flush so SSE
// responses still stream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// LogRequests assigns a request id, logs one line per request and counts
// it in m.
func LogRequests(log *logger.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := logger.RequestID(r)
		r.Header.Set(logger.RequestIDHeader, id)
		w.Header().Set(logger.RequestIDHeader, id)

		entry := log.WithRequest(r)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), logContextKey, entry)))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		m.RecordHTTPRequest(r.Method, rec.status)
		entry.WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

// clientIP returns the remote host without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
