// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client calls the advisor proxy on behalf of a chat session.
//
// One request per user action: no retry, no backoff, and no timeout unless one
// is configured. Upstream error payloads are never surfaced; callers only see
// success or one of the sentinel errors below.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/jeranaias/beauty-advisor/internal/advisor"
	"github.com/jeranaias/beauty-advisor/internal/model"
)

// PlaceholderEndpoint is the endpoint shipped in the sample config.
const PlaceholderEndpoint = "YOUR_PROXY_URL_HERE"

// Mode selects the wire format spoken to the endpoint.
type Mode string

const (
	// ModeProxy posts {userMessage, messages} and reads {message}.
	ModeProxy Mode = "proxy"

	// ModeOpenAI posts a full chat completion request to a pass-through
	// endpoint and reads choices[0].message.content.
	ModeOpenAI Mode = "openai"
)

// Error variables returned by RequestCompletion.
var (
	// ErrNotConfigured indicates the endpoint is missing or still the placeholder.
	ErrNotConfigured = errors.New("advisor endpoint not configured")

	// ErrRequestFailed covers transport errors and non-2xx responses.
	ErrRequestFailed = errors.New("advisor request failed")

	// ErrMalformedResponse indicates a 2xx response without the expected field.
	ErrMalformedResponse = errors.New("malformed advisor response")
)

// Config configures a Client.
type Config struct {
	Endpoint string
	Mode     Mode
	// Timeout of zero means the request waits as long as ctx allows.
	Timeout time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	http     *resty.Client
	endpoint string
	mode     Mode
	log      zerolog.Logger
}

// New creates a client for cfg.
func New(cfg Config, logger zerolog.Logger) *Client {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeProxy
	}
	httpClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	return &Client{
		http:     httpClient,
		endpoint: strings.TrimSpace(cfg.Endpoint),
		mode:     mode,
		log:      logger.With().Str("component", "client").Logger(),
	}
}

// IsConfigured reports whether the client points at a real endpoint.
func (c *Client) IsConfigured() bool {
	return c.endpoint != "" && c.endpoint != PlaceholderEndpoint
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Mode returns the wire mode.
func (c *Client) Mode() Mode {
	return c.mode
}

// BuildMessages returns [system prompt] + history + [new user message].
// History is forwarded as-is; the proxy applies its own window.
func BuildMessages(history []model.Message, newMessage string) []model.Message {
	out := make([]model.Message, 0, len(history)+2)
	out = append(out, model.Message{Role: model.RoleSystem, Content: advisor.SystemPrompt})
	out = append(out, history...)
	out = append(out, model.Message{Role: model.RoleUser, Content: newMessage})
	return out
}

// RequestCompletion sends one exchange and returns the assistant's reply.
func (c *Client) RequestCompletion(ctx context.Context, history []model.Message, newMessage string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	messages := BuildMessages(history, newMessage)

	var body any
	switch c.mode {
	case ModeOpenAI:
		body = advisor.NewRequest(advisor.ToOpenAI(messages))
	default:
		// The proxy injects the system prompt itself.
		body = advisor.ChatRequest{
			UserMessage: newMessage,
			Messages:    advisor.ToOpenAI(messages[1 : len(messages)-1]),
		}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		c.log.Warn().Err(err).Str("mode", string(c.mode)).Msg("advisor request failed")
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Int("history", len(history)).
		Msg("advisor response")

	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode())
	}

	if c.mode == ModeOpenAI {
		return parseCompletion(resp.Body())
	}
	return parseReply(resp.Body())
}

func parseReply(data []byte) (string, error) {
	var reply struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if reply.Message == nil || *reply.Message == "" {
		return "", fmt.Errorf("%w: missing message", ErrMalformedResponse)
	}
	return *reply.Message, nil
}

func parseCompletion(data []byte) (string, error) {
	var completion openai.ChatCompletionResponse
	if err := json.Unmarshal(data, &completion); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: missing choices[0].message.content", ErrMalformedResponse)
	}
	return completion.Choices[0].Message.Content, nil
}
