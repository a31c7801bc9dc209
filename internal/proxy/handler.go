// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/jeranaias/beauty-advisor/internal/advisor"
	"github.com/jeranaias/beauty-advisor/internal/util"
)

// MaxBodyBytes caps the request body the proxy will read. Clients send their
// whole history and only the last advisor.HistoryWindow entries are kept, so
// the cap sits well above any real conversation.
const MaxBodyBytes = 8 << 20

// upstreamLogBodyRunes bounds how much of an upstream error body is logged.
const upstreamLogBodyRunes = 2000

var (
	errMessagesNotArray = errors.New("messages must be an array")

	invalidRequestReply = advisor.ErrorReply{Error: "Invalid request: userMessage is required"}
	tooLongReply        = advisor.ErrorReply{Error: "Message too long. Please keep messages under 1000 characters."}
	configErrorReply    = advisor.ErrorReply{
		Error:   "configuration_error",
		Message: "The advisor is not configured yet. Please contact the site owner.",
	}
	upstreamErrorReply = advisor.ErrorReply{
		Error:   "upstream_unavailable",
		Message: "I apologize, but I'm experiencing technical difficulties. Please try again shortly.",
	}
	internalErrorReply = advisor.ErrorReply{
		Error:   "internal_error",
		Message: "I apologize, but something went wrong. Please try again.",
	}
	rateLimitedReply = advisor.ErrorReply{
		Error:   "rate_limited",
		Message: "Too many requests. Please wait a moment and try again.",
	}
)

type chatPayload struct {
	UserMessage json.RawMessage `json:"userMessage"`
	Messages    json.RawMessage `json:"messages"`
}

// AssembleMessages builds the upstream conversation: the system prompt, the
// last advisor.HistoryWindow entries of history in their original order and
// the new user message.
func AssembleMessages(history []advisor.ChatMessage, userMessage string) []advisor.ChatMessage {
	if len(history) > advisor.HistoryWindow {
		history = history[len(history)-advisor.HistoryWindow:]
	}
	out := make([]advisor.ChatMessage, 0, len(history)+2)
	out = append(out, advisor.SystemMessage())
	out = append(out, history...)
	out = append(out, advisor.ChatMessage{Role: "user", Content: userMessage})
	return out
}

// handleChat serves the chat endpoint for every method.
func (s *Server) handleChat(c *gin.Context) {
	origin := c.GetHeader("Origin")
	allowed := s.policy.Allowed(origin)
	if s.policy.AllowAll() {
		c.Set(ctxOriginPolicy, "allow_all")
	}

	if c.Request.Method == http.MethodOptions {
		if !allowed {
			s.forbidden(c)
			return
		}
		s.countAllowAll()
		s.setCORS(c, origin)
		s.metrics.outcome(OutcomePreflight)
		c.Status(http.StatusNoContent)
		return
	}

	if c.Request.Method != http.MethodPost {
		c.Header("Allow", "POST, OPTIONS")
		s.metrics.outcome(OutcomeMethodNotAllowed)
		c.String(http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !allowed {
		s.forbidden(c)
		return
	}
	s.countAllowAll()
	s.setCORS(c, origin)

	if s.limiter != nil && !s.limiter.Allow(c.ClientIP()) {
		c.Header("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
		s.reply(c, http.StatusTooManyRequests, OutcomeRateLimited, rateLimitedReply)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	var payload chatPayload
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		s.log.Error().Err(err).Msg("failed to decode chat request")
		s.reply(c, http.StatusInternalServerError, OutcomeInternalError, internalErrorReply)
		return
	}
	history, err := decodeHistory(payload.Messages)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to decode chat history")
		s.reply(c, http.StatusInternalServerError, OutcomeInternalError, internalErrorReply)
		return
	}

	userMessage, ok := decodeUserMessage(payload.UserMessage)
	if !ok {
		s.reply(c, http.StatusBadRequest, OutcomeBadRequest, invalidRequestReply)
		return
	}
	if utf8.RuneCountInString(userMessage) > advisor.MaxUserMessageRunes {
		s.reply(c, http.StatusBadRequest, OutcomeBadRequest, tooLongReply)
		return
	}

	if s.upstream == nil {
		s.log.Error().Msg("OPENAI_API_KEY is not set")
		s.reply(c, http.StatusInternalServerError, OutcomeConfigError, configErrorReply)
		return
	}

	start := time.Now()
	text, err := s.upstream.Complete(c.Request.Context(), AssembleMessages(history, userMessage))
	if err != nil {
		s.metrics.UpstreamDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			s.log.Error().
				Int("upstream_status", upErr.StatusCode).
				Str("upstream_body", util.TruncateRunes(upErr.Body, upstreamLogBodyRunes)).
				Msg("upstream returned an error")
			s.reply(c, http.StatusInternalServerError, OutcomeUpstreamError, upstreamErrorReply)
			return
		}
		s.log.Error().Err(err).Msg("upstream request failed")
		s.reply(c, http.StatusInternalServerError, OutcomeInternalError, internalErrorReply)
		return
	}
	s.metrics.UpstreamDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	s.metrics.outcome(OutcomeOK)
	c.JSON(http.StatusOK, advisor.ChatReply{Message: text})
}

func (s *Server) setCORS(c *gin.Context, origin string) {
	if origin == "" {
		origin = "*"
	}
	h := c.Writer.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Max-Age", "86400")
	if origin != "*" {
		h.Add("Vary", "Origin")
	}
}

func (s *Server) forbidden(c *gin.Context) {
	s.metrics.outcome(OutcomeForbidden)
	c.String(http.StatusForbidden, "Origin not allowed")
}

func (s *Server) countAllowAll() {
	if s.policy.AllowAll() {
		s.metrics.AllowAllRequests.Inc()
	}
}

func (s *Server) reply(c *gin.Context, status int, outcome string, body advisor.ErrorReply) {
	s.metrics.outcome(outcome)
	c.JSON(status, body)
}

func decodeHistory(raw json.RawMessage) ([]advisor.ChatMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, errMessagesNotArray
	}
	var history []advisor.ChatMessage
	if err := json.Unmarshal(trimmed, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func decodeUserMessage(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
