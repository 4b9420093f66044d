// Package inference uploads normalized audio to a generative model, waits for
// the remote file to become usable, and returns the model's text reply.
package inference

import "context"

// State is the processing state of an uploaded file.
type State string

const (
	StateProcessing State = "PROCESSING"
	StateActive     State = "ACTIVE"
	StateFailed     State = "FAILED"
)

// Handle refers to a file held by the inference service.
type Handle struct {
	Name     string
	URI      string
	MIMEType string
	State    State
}

// Client is the boundary to the remote model service.
type Client interface {
	Upload(ctx context.Context, data []byte, mimeType string) (*Handle, error)
	Get(ctx context.Context, name string) (*Handle, error)
	// Generate runs prompt against an ACTIVE file and returns the reply text.
	Generate(ctx context.Context, prompt string, file *Handle) (string, error)
	Delete(ctx context.Context, name string) error
}
