// Package gemini is the boundary to the code-generation service. It sends
// one prompt, returns the generated text with its token usage, and
// classifies every failure into a closed set of faults.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

// Response is a successful generation.
type Response struct {
	Text   string
	Tokens int // total tokens billed for the request
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Response, error)
}

// Fault is the classification of a failed generation.
type Fault int

const (
	// FaultOther is any failure the caller cannot recover from by switching
	// credentials.
	FaultOther Fault = iota
	// FaultQuotaExhausted means the active credential hit a rate or usage
	// limit.
	FaultQuotaExhausted
)

func (f Fault) String() string {
	if f == FaultQuotaExhausted {
		return "quota-exhausted"
	}
	return "other"
}

// ErrQuotaExhausted can be wrapped by Generator implementations (and test
// doubles) to signal quota exhaustion without an API error value.
var ErrQuotaExhausted = errors.New("gemini: quota exhausted")

// Classify maps a generation error to a Fault. It recognises the service's
// 429 status, the RESOURCE_EXHAUSTED status name and ErrQuotaExhausted.
func Classify(err error) Fault {
	if err == nil {
		return FaultOther
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return FaultQuotaExhausted
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(*apiErrPtr)
	}

	// Transports that flatten the status into the message.
	msg := err.Error()
	if strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "Error 429") {
		return FaultQuotaExhausted
	}
	return FaultOther
}

func classifyAPIError(e genai.APIError) Fault {
	if e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED" {
		return FaultQuotaExhausted
	}
	return FaultOther
}

// Client generates content through the Gemini API with one API key.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Client bound to apiKey.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: c, model: model}, nil
}

// Generate sends prompt as a single user turn.
func (c *Client) Generate(ctx context.Context, prompt string) (Response, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return Response{}, fmt.Errorf("gemini: generate: %w", err)
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	text := resp.Text()
	if text == "" {
		return Response{Tokens: tokens}, errors.New("gemini: generate: empty response")
	}
	return Response{Text: text, Tokens: tokens}, nil
}

// Dial is a credential.Dialer that creates Clients for model.
func Dial(model string) func(ctx context.Context, apiKey string) (Generator, error) {
	return func(ctx context.Context, apiKey string) (Generator, error) {
		return NewClient(ctx, apiKey, model)
	}
}
