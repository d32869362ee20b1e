// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package deepseek provides a DeepSeek-backed llm.Provider. DeepSeek exposes
// an OpenAI-compatible chat API, so the implementation delegates to the
// openai provider pointed at the DeepSeek endpoint.
package deepseek

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/llm"
	"github.com/maesd-ai/maesd/providers/openai"
)

const (
	// DefaultBaseURL is the public DeepSeek API endpoint.
	DefaultBaseURL = "https://api.deepseek.com/v1"
	// DefaultModel is the general-purpose chat model.
	DefaultModel = "deepseek-chat"
)

// Provider implements llm.Provider against the DeepSeek API.
type Provider struct {
	inner *openai.Provider
}

// Config holds the DeepSeek connection settings. Zero values fall back to
// the public endpoint and deepseek-chat.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// New creates a new DeepSeek provider.
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	opts := []openai.Option{
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithAPIKey(cfg.APIKey))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, openai.WithMaxTokens(cfg.MaxTokens))
	}
	return &Provider{inner: openai.New(opts...)}
}

// Chat implements llm.Provider.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return p.inner.Chat(ctx, req)
}

var _ llm.Provider = (*Provider)(nil)
