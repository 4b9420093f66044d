package service

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/samber/lo"
)

// Session is the per-browser state: who is logged in, which screen is
// showing, and results computed during this visit. It is safe for
// concurrent use.
type Session struct {
	id string

	mu             sync.Mutex
	authenticated  bool
	email          string
	displayName    string
	screen         domain.Screen
	analyses       map[string]domain.AnalysisResult
	transcriptions map[string]domain.TranscriptionResult
	lastSeen       time.Time
}

func newSession(now time.Time) *Session {
	return &Session{
		id:             uuid.NewString(),
		screen:         domain.ScreenLoginOrRegister,
		analyses:       make(map[string]domain.AnalysisResult),
		transcriptions: make(map[string]domain.TranscriptionResult),
		lastSeen:       now,
	}
}

// ID returns the opaque session id carried in the cookie token.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

func (s *Session) Screen() domain.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Navigate moves to screen. Authenticated screens need a login;
// LoginOrRegister is only reachable while anonymous.
func (s *Session) Navigate(screen domain.Screen) error {
	if !screen.Valid() {
		return fmt.Errorf("%w: unknown screen %q", domain.ErrInvalidTransition, screen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if screen.RequiresAuth() && !s.authenticated {
		return domain.ErrUnauthorized
	}
	if !screen.RequiresAuth() && s.authenticated {
		return fmt.Errorf("%w: already logged in", domain.ErrInvalidTransition)
	}
	s.screen = screen
	return nil
}

// StoreAnalysis caches a result by file name, replacing any earlier one.
func (s *Session) StoreAnalysis(r domain.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[r.FileName] = r
}

func (s *Session) Analysis(fileName string) (domain.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.analyses[fileName]
	return r, ok
}

// AnalysisFiles lists the cached analysis file names in sorted order.
func (s *Session) AnalysisFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := lo.Keys(s.analyses)
	slices.Sort(names)
	return names
}

func (s *Session) StoreTranscription(r domain.TranscriptionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcriptions[r.FileName] = r
}

func (s *Session) Transcription(fileName string) (domain.TranscriptionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.transcriptions[fileName]
	return r, ok
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// SessionStore keeps sessions in memory and drops them after an idle
// timeout. Stale sessions are removed by a background goroutine.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a store whose sessions expire after idle.
func NewSessionStore(idle time.Duration) *SessionStore {
	st := &SessionStore{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go st.cleanup()
	return st
}

// IdleTimeout returns how long an unused session survives.
func (st *SessionStore) IdleTimeout() time.Duration {
	return st.idle
}

// Create starts a new anonymous session on the LoginOrRegister screen.
func (st *SessionStore) Create() *Session {
	s := newSession(st.now())
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Get returns the live session for id and refreshes its idle timer.
// Expired sessions are removed and reported as ErrNotFound.
func (st *SessionStore) Get(id string) (*Session, error) {
	now := st.now()

	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok && s.idleSince(now.Add(-st.idle)) {
		delete(st.sessions, id)
		ok = false
	}
	st.mu.Unlock()

	if !ok {
		return nil, domain.ErrNotFound
	}
	s.touch(now)
	return s, nil
}

// Login replaces the session old with a fresh authenticated one on the
// Welcome screen. The old id stops working.
func (st *SessionStore) Login(old *Session, user *domain.User) *Session {
	s := newSession(st.now())
	s.authenticated = true
	s.email = user.Email
	s.displayName = user.DisplayName
	s.screen = domain.ScreenWelcome

	st.mu.Lock()
	if old != nil {
		delete(st.sessions, old.id)
	}
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Logout drops the session and everything cached in it.
func (st *SessionStore) Logout(s *Session) {
	if s == nil {
		return
	}
	st.mu.Lock()
	delete(st.sessions, s.id)
	st.mu.Unlock()

	s.mu.Lock()
	s.authenticated = false
	s.email = ""
	s.displayName = ""
	s.screen = domain.ScreenLoginOrRegister
	clear(s.analyses)
	clear(s.transcriptions)
	s.mu.Unlock()
}

// Len returns the number of stored sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Close stops the cleanup goroutine.
func (st *SessionStore) Close() {
	st.stopOnce.Do(func() { close(st.stop) })
}

// Sweep removes every session idle for longer than the timeout.
func (st *SessionStore) Sweep() {
	cutoff := st.now().Add(-st.idle)
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.sessions {
		if s.idleSince(cutoff) {
			delete(st.sessions, id)
		}
	}
}

func (st *SessionStore) cleanup() {
	interval := max(st.idle/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st.Sweep()
		case <-st.stop:
			return
		}
	}
}
