package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
	"github.com/bryanwahyu/mediassist-gateway/internal/infra/ai/prompt"
)

const (
	maxTokens    = 2048
	defaultModel = "gpt-4o-mini"
)

// Client hosts the symptom analyzer function on a chat completion model.
// It implements symptoms.Invoker; its output is validated like any other
// remote result.
type Client struct {
	*openai.Client
	Model string
}

var _ symptoms.Invoker = (*Client)(nil)

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithConfig allows a custom base URL or HTTP client
func NewClientWithConfig(cfg openai.ClientConfig, model string) *Client {
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	if name != symptoms.AnalyzerFunction {
		return nil, &symptoms.RemoteInvocationError{Code: "NOT_FOUND", Message: fmt.Sprintf("function %q is not served by the openai transport", name)}
	}
	p, err := toPayload(payload)
	if err != nil {
		return nil, &symptoms.RemoteInvocationError{Code: "INVALID_ARGUMENT", Message: "decode payload", Err: err}
	}

	model := c.Model
	if model == "" {
		model = defaultModel
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(p)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &symptoms.RemoteInvocationError{Code: "INTERNAL", Message: "model returned no choices"}
	}

	return json.RawMessage(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}

func toPayload(payload any) (symptoms.Payload, error) {
	switch p := payload.(type) {
	case symptoms.Payload:
		return p, nil
	case *symptoms.Payload:
		if p == nil {
			return symptoms.Payload{}, errors.New("nil payload")
		}
		return *p, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return symptoms.Payload{}, err
	}
	var p symptoms.Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return symptoms.Payload{}, err
	}
	return p, nil
}

func classify(err error) *symptoms.RemoteInvocationError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := "INTERNAL"
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			code = "RESOURCE_EXHAUSTED"
		case http.StatusUnauthorized:
			code = "UNAUTHENTICATED"
		case http.StatusForbidden:
			code = "PERMISSION_DENIED"
		case http.StatusBadRequest:
			code = "INVALID_ARGUMENT"
		case http.StatusServiceUnavailable, http.StatusBadGateway:
			code = "UNAVAILABLE"
		}
		return &symptoms.RemoteInvocationError{Code: code, Message: apiErr.Message, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &symptoms.RemoteInvocationError{Code: "DEADLINE_EXCEEDED", Message: "chat completion timed out", Err: err}
	}
	return &symptoms.RemoteInvocationError{Code: "UNAVAILABLE", Message: "failed to create chat completion", Err: err}
}
