// Package inferencetest provides an in-memory inference.Client for tests.
package inferencetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/msomdec/fraudshield/internal/inference"
)

// StubClient scripts the remote service. States are returned by successive
// Get calls; the last one repeats.
type StubClient struct {
	Reply       string
	UploadState inference.State
	States      []inference.State
	UploadErr   error
	GetErr      error
	GenerateErr error
	DeleteErr   error

	mu        sync.Mutex
	uploads   [][]byte
	prompts   []string
	gets      int
	deleted   []string
	nextIndex int
}

func (s *StubClient) Upload(_ context.Context, data []byte, mimeType string) (*inference.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	s.uploads = append(s.uploads, data)
	state := s.UploadState
	if state == "" {
		state = inference.StateActive
	}
	s.nextIndex++
	return &inference.Handle{
		Name:     fmt.Sprintf("files/stub-%d", s.nextIndex),
		URI:      fmt.Sprintf("https://files.example/stub-%d", s.nextIndex),
		MIMEType: mimeType,
		State:    state,
	}, nil
}

func (s *StubClient) Get(_ context.Context, name string) (*inference.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	state := inference.StateActive
	if len(s.States) > 0 {
		state = s.States[min(s.gets, len(s.States)-1)]
	}
	s.gets++
	return &inference.Handle{Name: name, URI: "https://files.example/" + name, MIMEType: "audio/wav", State: state}, nil
}

func (s *StubClient) Generate(_ context.Context, prompt string, _ *inference.Handle) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.GenerateErr != nil {
		return "", s.GenerateErr
	}
	return s.Reply, nil
}

func (s *StubClient) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, name)
	return s.DeleteErr
}

// Uploads returns every buffer passed to Upload.
func (s *StubClient) Uploads() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.uploads...)
}

// Prompts returns every prompt passed to Generate.
func (s *StubClient) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Deleted returns the names passed to Delete.
func (s *StubClient) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Gets returns how many times Get was called.
func (s *StubClient) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}
