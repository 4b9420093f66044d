package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/service"
)

func newStore(t *testing.T, idle time.Duration) *service.SessionStore {
	t.Helper()
	st := service.NewSessionStore(idle)
	t.Cleanup(st.Close)
	return st
}

func testUser() *domain.User {
	return &domain.User{ID: 1, Email: "user@example.com", DisplayName: "Test User"}
}

func TestSession_AnonymousNavigation(t *testing.T) {
	st := newStore(t, time.Hour)
	s := st.Create()

	if s.Screen() != domain.ScreenLoginOrRegister {
		t.Fatalf("new session should start on login, got %s", s.Screen())
	}
	for _, screen := range []domain.Screen{domain.ScreenWelcome, domain.ScreenAnalyze, domain.ScreenTranscribe, domain.ScreenFeedback} {
		if err := s.Navigate(screen); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("anonymous navigate to %s: expected ErrUnauthorized, got %v", screen, err)
		}
	}
	if err := s.Navigate(domain.ScreenLoginOrRegister); err != nil {
		t.Fatalf("anonymous navigate to login: %v", err)
	}
}

func TestSession_AuthenticatedNavigation(t *testing.T) {
	st := newStore(t, time.Hour)
	s := st.Login(st.Create(), testUser())

	if s.Screen() != domain.ScreenWelcome {
		t.Fatalf("login should land on welcome, got %s", s.Screen())
	}
	for _, screen := range []domain.Screen{domain.ScreenAnalyze, domain.ScreenTranscribe, domain.ScreenFeedback, domain.ScreenWelcome} {
		if err := s.Navigate(screen); err != nil {
			t.Fatalf("navigate to %s: %v", screen, err)
		}
		if s.Screen() != screen {
			t.Fatalf("expected screen %s, got %s", screen, s.Screen())
		}
	}
	if err := s.Navigate(domain.ScreenLoginOrRegister); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := s.Navigate("settings"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unknown screen, got %v", err)
	}
}

func TestSessionStore_LoginRotatesID(t *testing.T) {
	st := newStore(t, time.Hour)
	anon := st.Create()

	authed := st.Login(anon, testUser())
	if authed.ID() == anon.ID() {
		t.Fatal("login must issue a new session id")
	}
	if _, err := st.Get(anon.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("old session id should be gone, got %v", err)
	}
	got, err := st.Get(authed.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Authenticated() || got.Email() != "user@example.com" || got.DisplayName() != "Test User" {
		t.Fatalf("unexpected session state: auth=%v email=%q", got.Authenticated(), got.Email())
	}
}

func TestSessionStore_LogoutClearsEverything(t *testing.T) {
	st := newStore(t, time.Hour)
	s := st.Login(st.Create(), testUser())
	s.StoreAnalysis(domain.AnalysisResult{FileName: "a.wav", Classification: domain.ClassificationFraud})
	s.StoreTranscription(domain.TranscriptionResult{FileName: "b.wav", Text: "hello"})

	st.Logout(s)

	if s.Authenticated() || s.Email() != "" || s.Screen() != domain.ScreenLoginOrRegister {
		t.Fatal("logout should reset auth, email and screen")
	}
	if _, ok := s.Analysis("a.wav"); ok {
		t.Fatal("logout should drop cached analyses")
	}
	if _, ok := s.Transcription("b.wav"); ok {
		t.Fatal("logout should drop cached transcriptions")
	}
	if _, err := st.Get(s.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("logged-out session should be removed, got %v", err)
	}
}

func TestSession_ResultsKeyedByFileName(t *testing.T) {
	st := newStore(t, time.Hour)
	s := st.Login(st.Create(), testUser())

	s.StoreAnalysis(domain.AnalysisResult{FileName: "b.wav", Classification: domain.ClassificationSpam})
	s.StoreAnalysis(domain.AnalysisResult{FileName: "a.wav", Classification: domain.ClassificationNormal})
	s.StoreAnalysis(domain.AnalysisResult{FileName: "b.wav", Classification: domain.ClassificationFraud})

	files := s.AnalysisFiles()
	if len(files) != 2 || files[0] != "a.wav" || files[1] != "b.wav" {
		t.Fatalf("unexpected files: %v", files)
	}
	r, ok := s.Analysis("b.wav")
	if !ok || r.Classification != domain.ClassificationFraud {
		t.Fatalf("expected latest result for b.wav, got %+v", r)
	}
}

func TestSessionStore_IdleExpiry(t *testing.T) {
	st := newStore(t, 20*time.Millisecond)
	s := st.Create()

	time.Sleep(50 * time.Millisecond)

	if _, err := st.Get(s.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected idle session to expire, got %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("expired session should be removed, %d left", st.Len())
	}
}

func TestSessionStore_Sweep(t *testing.T) {
	st := newStore(t, 20*time.Millisecond)
	st.Create()
	st.Create()

	time.Sleep(50 * time.Millisecond)
	fresh := st.Create()
	st.Sweep()

	if st.Len() != 1 {
		t.Fatalf("expected only the fresh session to survive, got %d", st.Len())
	}
	if _, err := st.Get(fresh.ID()); err != nil {
		t.Fatalf("fresh session: %v", err)
	}
}
