// internal/providers/chat.go
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	commonhttp "admissions-workers/internal/common/http"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Content returns the first choice's text, or "" when there is none.
func (r *chatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

func newChatRequest(model, system, user string, maxTokens int) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: analysisTemperature,
		MaxTokens:   maxTokens,
	}
}

// completeChat posts an OpenAI-compatible chat completion.
func completeChat(ctx context.Context, client *commonhttp.Client, baseURL string, headers map[string]string, req chatRequest) (*chatResponse, error) {
	var resp chatResponse
	if err := client.PostJSON(ctx, joinURL(baseURL, "chat/completions"), headers, req, &resp); err != nil {
		return nil, classifyCallError(ctx, err)
	}
	return &resp, nil
}

// classifyCallError maps deadline expiry to ErrLLMTimeout and everything else to ErrLLMSynthesisFailed.
func classifyCallError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrLLMTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrLLMTimeout
	}
	return fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, err)
}

func bearer(key string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + key}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
