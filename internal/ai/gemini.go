package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// ErrMissingAPIKey is returned when no Gemini credential is configured.
var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model}, nil
}

// Model reports the model name requests are sent to.
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) generate(ctx context.Context, parts ...*genai.Part) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini not configured")
	}
	content := []*genai.Content{
		{Role: genai.RoleUser, Parts: parts},
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, content, nil)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return StripCodeFences(res.Text()), nil
}

func (g *Gemini) ExtractFromImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return g.generate(ctx,
		&genai.Part{Text: ImagePrompt},
		&genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
	)
}

func (g *Gemini) ExtractFromText(ctx context.Context, text string) (string, error) {
	return g.generate(ctx, &genai.Part{Text: TextPrompt(text)})
}

// StripCodeFences removes a leading ```lang line and a trailing ``` from model output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if firstNewline := strings.Index(s, "\n"); firstNewline != -1 {
			s = s[firstNewline+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}

	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}

	return strings.TrimSpace(s)
}
