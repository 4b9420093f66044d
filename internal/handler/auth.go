package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/service"
	"github.com/msomdec/fraudshield/internal/view"
)

// AuthHandler handles the login, registration and logout screens.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *Sessions
	store    *service.SessionStore
	limiter  *service.TokenBucket
}

// NewAuthHandler creates a new AuthHandler. limiter is keyed by client IP.
func NewAuthHandler(auth *service.AuthService, sessions *Sessions, store *service.SessionStore, limiter *service.TokenBucket) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, store: store, limiter: limiter}
}

// HandleRoot sends the caller to the screen matching their login state.
// GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sess := SessionFromContext(r.Context())
	if sess != nil && sess.Authenticated() {
		http.Redirect(w, r, "/welcome", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// enterLogin moves the session to the login screen. Logged-in users are
// sent back to the welcome screen instead.
func enterLogin(w http.ResponseWriter, r *http.Request) bool {
	sess := SessionFromContext(r.Context())
	if err := sess.Navigate(domain.ScreenLoginOrRegister); err != nil {
		http.Redirect(w, r, "/welcome", http.StatusSeeOther)
		return false
	}
	return true
}

func (h *AuthHandler) allow(r *http.Request) bool {
	if h.limiter == nil || h.limiter.Allow(clientIP(r)) {
		return true
	}
	requestLog(r).Warn("login rate limit exceeded")
	return false
}

// HandleLoginPage renders the login form.
// GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if !enterLogin(w, r) {
		return
	}
	f := view.LoginForm{}
	if r.URL.Query().Get("registered") == "1" {
		f.Info = "Account created. Please log in."
	}
	view.LoginPage(f).Render(r.Context(), w)
}

// HandleLogin checks credentials and rotates the session on success.
// POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !enterLogin(w, r) {
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if !h.allow(r) {
		w.WriteHeader(http.StatusTooManyRequests)
		view.LoginPage(view.LoginForm{Email: email, Error: "Too many attempts. Please wait a minute and try again."}).Render(r.Context(), w)
		return
	}

	ok, err := h.auth.Authenticate(r.Context(), email, password)
	if err != nil {
		requestLog(r).WithError(err).Error("authenticate user")
		w.WriteHeader(http.StatusInternalServerError)
		view.LoginPage(view.LoginForm{Email: email, Error: "An unexpected error occurred. Please try again."}).Render(r.Context(), w)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		view.LoginPage(view.LoginForm{Email: email, Error: "Invalid email or password."}).Render(r.Context(), w)
		return
	}

	user, err := h.auth.User(r.Context(), email)
	if err != nil {
		requestLog(r).WithError(err).Error("get user after login")
		w.WriteHeader(http.StatusInternalServerError)
		view.LoginPage(view.LoginForm{Email: email, Error: "An unexpected error occurred. Please try again."}).Render(r.Context(), w)
		return
	}

	sess := h.store.Login(SessionFromContext(r.Context()), user)
	if err := h.sessions.setCookie(w, sess); err != nil {
		requestLog(r).WithError(err).Error("issue session cookie")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	requestLog(r).WithField("user", user.Email).Info("user logged in")
	http.Redirect(w, r, "/welcome", http.StatusSeeOther)
}

// HandleRegisterPage renders the registration form.
// GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if !enterLogin(w, r) {
		return
	}
	view.RegisterPage(view.RegisterForm{}).Render(r.Context(), w)
}

// HandleRegister creates an account and sends the user to the login form.
// POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !enterLogin(w, r) {
		return
	}
	form := view.RegisterForm{
		DisplayName: r.FormValue("display_name"),
		Email:       r.FormValue("email"),
	}

	if !h.allow(r) {
		form.Error = "Too many attempts. Please wait a minute and try again."
		w.WriteHeader(http.StatusTooManyRequests)
		view.RegisterPage(form).Render(r.Context(), w)
		return
	}

	_, err := h.auth.Register(r.Context(), form.DisplayName, form.Email, r.FormValue("password"), r.FormValue("confirm_password"))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			status = http.StatusConflict
			form.Error = "An account with that email already exists."
		case errors.Is(err, domain.ErrInvalidInput):
			status = http.StatusUnprocessableEntity
			form.Error = userMessage(err, domain.ErrInvalidInput)
		default:
			requestLog(r).WithError(err).Error("register user")
			form.Error = "An unexpected error occurred. Please try again."
		}
		w.WriteHeader(status)
		view.RegisterPage(form).Render(r.Context(), w)
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// HandleLogout drops the session with everything cached in it.
// POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout(SessionFromContext(r.Context()))
	h.sessions.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// userMessage strips the sentinel prefix from a wrapped error, leaving the
// detail written for the user.
func userMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		msg = msg[i+len(sentinel.Error())+2:]
	}
	if msg == "" {
		return sentinel.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
