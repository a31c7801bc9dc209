// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package advisor holds the beauty advisor persona and the fixed sampling
// parameters sent upstream. Both the proxy and the passthrough client mode use
// it, so the two never disagree about what the model is told.
package advisor

import (
	"github.com/sashabaranov/go-openai"

	"github.com/jeranaias/beauty-advisor/internal/model"
)

// SystemPrompt is injected as the first message of every upstream request.
const SystemPrompt = `You are a professional Beauty Advisor assistant. Your role is to provide expert beauty advice, product recommendations, and personalized consultations.

Key responsibilities:
- Provide personalized skincare, makeup, and haircare recommendations
- Ask clarifying questions about skin type, concerns, preferences, and lifestyle
- Explain ingredients, application techniques, and beauty routines
- Be warm, professional, and empowering in your communication
- Recommend consulting a dermatologist for serious skin concerns
- Consider skin type, age, climate, and personal preferences

Product categories you can discuss:
- Skincare: cleansers, moisturizers, serums, sunscreens, treatments
- Makeup: foundations, concealers, lipsticks, eyeshadows, mascaras
- Haircare: shampoos, conditioners, treatments, styling products, color

Stay on beauty topics and politely decline unrelated requests. Keep answers concise.`

// Fixed upstream parameters. They are not configurable per request.
const (
	Model            = openai.GPT3Dot5Turbo
	Temperature      = float32(0.7)
	MaxTokens        = 500
	TopP             = float32(1)
	FrequencyPenalty = float32(0.5)
	PresencePenalty  = float32(0.5)
)

// MaxUserMessageRunes is the longest user message the proxy accepts.
const MaxUserMessageRunes = 1000

// HistoryWindow is how many prior messages the proxy forwards upstream.
const HistoryWindow = 10

// ChatMessage is the upstream wire message.
type ChatMessage = openai.ChatCompletionMessage

// SystemMessage returns the system prompt as an outbound message.
func SystemMessage() ChatMessage {
	return ChatMessage{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt}
}

// NewRequest builds an upstream request around already-assembled messages.
func NewRequest(messages []ChatMessage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:            Model,
		Messages:         messages,
		Temperature:      Temperature,
		MaxTokens:        MaxTokens,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
	}
}

// ToOpenAI converts stored messages to the upstream wire type.
func ToOpenAI(msgs []model.Message) []ChatMessage {
	out := make([]ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = ChatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// =============================================================================
// CLIENT <-> PROXY ENVELOPES
// =============================================================================

// ChatRequest is the body the client posts to the proxy.
type ChatRequest struct {
	UserMessage string        `json:"userMessage"`
	Messages    []ChatMessage `json:"messages"`
}

// ChatReply is the proxy's success body.
type ChatReply struct {
	Message string `json:"message"`
}

// ErrorReply is the proxy's failure body. Message is shown to the user; Error
// is a short label.
type ErrorReply struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
