package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/fraudshield/internal/domain"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// GeminiClient implements Client on the Gemini API file store.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", domain.ErrConfiguration)
	}
	if model == "" {
		model = DefaultModel
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", domain.ErrConfiguration, err)
	}
	return &GeminiClient{client: c, model: model}, nil
}

func (g *GeminiClient) Upload(ctx context.Context, data []byte, mimeType string) (*Handle, error) {
	f, err := g.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	return toHandle(f), nil
}

func (g *GeminiClient) Get(ctx context.Context, name string) (*Handle, error) {
	f, err := g.client.Files.Get(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", name, err)
	}
	return toHandle(f), nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, file *Handle) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromURI(file.URI, file.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}

func (g *GeminiClient) Delete(ctx context.Context, name string) error {
	if _, err := g.client.Files.Delete(ctx, name, nil); err != nil {
		return fmt.Errorf("delete file %s: %w", name, err)
	}
	return nil
}

func toHandle(f *genai.File) *Handle {
	if f == nil {
		return nil
	}
	return &Handle{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
		State:    State(f.State),
	}
}
