package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docsift-backend/internal/provider"
	"docsift-backend/internal/shared/fault"
)

const defaultModel = "gemini-2.5-flash"

// Client implements provider.Provider over the Gemini API. Schemas constrain
// generation natively via ResponseSchema, and attachments travel as inline
// blobs so the backend's own multimodal handling parses them.
type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient constructs a Gemini-backed provider.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultModel
	}
	return &Client{client: cl, modelName: modelName}, nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Client) GenerateStructured(ctx context.Context, req provider.Request) (*provider.Result, error) {
	modelName := c.modelName
	if req.Options.ModelName != "" {
		modelName = req.Options.ModelName
	}

	m := c.client.GenerativeModel(modelName)
	if req.SystemInstruction != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}
	m.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		m.ResponseSchema = toResponseSchema(req.Schema)
	}
	if req.Options.Temperature != nil {
		m.SetTemperature(float32(*req.Options.Temperature))
	}
	if req.Options.MaxOutputTokens != nil {
		m.SetMaxOutputTokens(int32(*req.Options.MaxOutputTokens))
	}

	parts := make([]genai.Part, 0, len(req.Attachments)+1)
	parts = append(parts, genai.Text(req.Prompt))
	for _, att := range req.Attachments {
		parts = append(parts, genai.Blob{
			MIMEType: http.DetectContentType(att.Data),
			Data:     att.Data,
		})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fault.Wrap(fault.KindProvider, "gemini generate", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fault.New(fault.KindProvider, "gemini response has no candidates")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, fault.New(fault.KindProvider, "gemini response empty content")
	}

	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fault.Wrap(fault.KindProvider, "gemini returned invalid JSON", err)
	}

	usage := map[string]any{}
	if resp.UsageMetadata != nil {
		usage["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		usage["output_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		usage["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	return &provider.Result{Data: data, Usage: usage, Model: modelName}, nil
}

var _ provider.Provider = (*Client)(nil)
