package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"docsift-backend/internal/provider"
	"docsift-backend/internal/shared/fault"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Client implements provider.Provider over OpenAI Chat Completions. The chat
// API takes text only, so attachments are inlined into the user message;
// binary documents belong with a multimodal backend.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs an OpenAI-backed provider.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required for OpenAI")
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// WithEndpoint points the client at a different completions URL, mainly for
// tests and OpenAI-compatible gateways.
func (c *Client) WithEndpoint(url string) *Client {
	c.apiURL = url
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) GenerateStructured(ctx context.Context, req provider.Request) (*provider.Result, error) {
	model := c.model
	if req.Options.ModelName != "" {
		model = req.Options.ModelName
	}

	messages := buildMessages(req)
	format := &responseFormat{Type: "json_object"}
	if req.Schema != nil {
		format = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   "extraction",
				Schema: req.Schema.JSONSchema(),
			},
		}
	}

	body := chatRequest{
		Model:          model,
		Messages:       messages,
		Temperature:    req.Options.Temperature,
		MaxTokens:      req.Options.MaxOutputTokens,
		ResponseFormat: format,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fault.Wrap(fault.KindProvider, "marshal openai request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fault.Wrap(fault.KindProvider, "build openai request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fault.Wrap(fault.KindProvider, "openai request timeout", err)
		}
		return nil, fault.Wrap(fault.KindProvider, "openai request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.KindProvider, "read openai response", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fault.Wrap(fault.KindProvider, "parse openai response", err)
	}
	if parsed.Error != nil {
		return nil, fault.Newf(fault.KindProvider, "openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, fault.New(fault.KindProvider, "openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, fault.New(fault.KindProvider, "openai response empty content")
	}

	var data any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fault.Wrap(fault.KindProvider, "openai returned invalid JSON", err)
	}

	// The completions API does not guarantee schema conformance on every
	// model, so verify before handing data across the contract boundary.
	if req.Schema != nil {
		if err := validateAgainstSchema(req.Schema.JSONSchema(), data); err != nil {
			return nil, fault.Wrap(fault.KindProvider, "openai output does not match schema", err)
		}
	}

	usage := map[string]any{}
	if parsed.Usage != nil {
		usage["prompt_tokens"] = parsed.Usage.PromptTokens
		usage["completion_tokens"] = parsed.Usage.CompletionTokens
		usage["total_tokens"] = parsed.Usage.TotalTokens
	}
	respModel := parsed.Model
	if respModel == "" {
		respModel = model
	}
	return &provider.Result{Data: data, Usage: usage, Model: respModel}, nil
}

func buildMessages(req provider.Request) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemInstruction})
	}

	var b strings.Builder
	b.WriteString(req.Prompt)
	for _, att := range req.Attachments {
		b.WriteString("\n\n--- Document: ")
		b.WriteString(att.Name)
		b.WriteString(" ---\n")
		if utf8.Valid(att.Data) {
			b.Write(att.Data)
		} else {
			b.WriteString("[unsupported binary content]")
		}
	}
	messages = append(messages, chatMessage{Role: "user", Content: b.String()})
	return messages
}

var _ provider.Provider = (*Client)(nil)
