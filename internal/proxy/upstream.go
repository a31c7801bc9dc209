// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/jeranaias/beauty-advisor/internal/advisor"
)

// Upstream produces a completion for fully assembled messages.
type Upstream interface {
	Complete(ctx context.Context, messages []advisor.ChatMessage) (string, error)
}

// ErrNoChoices is returned when a 2xx upstream reply has nothing to return.
var ErrNoChoices = errors.New("upstream returned no choices")

// UpstreamError is a non-2xx upstream response. Body is for server logs only.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// OpenAIUpstream calls an OpenAI-compatible chat completions endpoint.
type OpenAIUpstream struct {
	http    *resty.Client
	baseURL string
}

// NewOpenAIUpstream creates an upstream client. A zero timeout means none.
func NewOpenAIUpstream(baseURL, apiKey string, timeout time.Duration) *OpenAIUpstream {
	httpClient := resty.New().
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &OpenAIUpstream{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Complete sends one chat completion request with the fixed sampling
// parameters and returns the first choice's text.
func (u *OpenAIUpstream) Complete(ctx context.Context, messages []advisor.ChatMessage) (string, error) {
	var out openai.ChatCompletionResponse
	resp, err := u.http.R().
		SetContext(ctx).
		SetBody(advisor.NewRequest(messages)).
		SetResult(&out).
		Post(u.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("upstream request: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	return out.Choices[0].Message.Content, nil
}
