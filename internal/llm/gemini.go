package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// geminiClient implements the Client interface for the Google Gemini API.
type geminiClient struct {
	client *genai.Client
	model  string
}

// newGeminiClient creates a new Gemini API client.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{client: cl, model: model}, nil
}

// Generate sends req as a chat: every message but the last becomes history.
func (c *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("gemini: request has no messages")
	}

	m := c.client.GenerativeModel(c.model)
	m.GenerationConfig = generationConfig(req)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	last := len(req.Messages) - 1
	cs := m.StartChat()
	cs.History = toHistory(req.Messages[:last])

	resp, err := cs.SendMessage(ctx, toParts(req.Messages[last])...)
	if err != nil {
		return "", wrapGeminiError(err)
	}

	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return StripCodeFences(txt), nil
}

// Close releases the underlying connection.
func (c *geminiClient) Close() error {
	return c.client.Close()
}

func generationConfig(req Request) genai.GenerationConfig {
	gc := genai.GenerationConfig{
		Temperature: ptrFloat32(req.Temperature),
	}
	if req.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = toGenaiSchema(req.Schema)
	}
	return gc
}

func toHistory(msgs []Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		history = append(history, &genai.Content{
			Role:  string(msg.Role),
			Parts: toParts(msg),
		})
	}
	return history
}

func toParts(msg Message) []genai.Part {
	parts := make([]genai.Part, 0, 2)
	if msg.Text != "" {
		parts = append(parts, genai.Text(msg.Text))
	}
	if msg.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: msg.Image.MIMEType, Data: msg.Image.Data})
	}
	return parts
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}

	switch s.Type {
	case TypeString:
		out.Type = genai.TypeString
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeObject:
		out.Type = genai.TypeObject
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

// wrapGeminiError marks quota errors so the retry loop backs off on them.
func wrapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("gemini: %w: %w", common.ErrRateLimit, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return common.Retryable(fmt.Errorf("gemini: %w", err))
		case apiErr.Code >= http.StatusBadRequest:
			return common.Permanent(fmt.Errorf("gemini: %w", err))
		}
	}
	return fmt.Errorf("gemini: %w", err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
