// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package actions holds the action bank: the prompt-driven steps the roles
// chain into the design pipeline. Every action renders a templated prompt,
// asks the configured provider, and parses the '## Section' structured
// completion.
package actions

import (
	"context"
	"log/slog"
	"strings"

	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/llm"
	"github.com/maesd-ai/maesd/pkg/resilience"
)

// Base carries what every prompt action needs: the provider, the role
// persona prefix, and the retry policy for malformed completions.
type Base struct {
	name     string
	provider llm.Provider
	prefix   string
	retry    resilience.RetryConfig
	logger   *slog.Logger
}

// NewBase wires a prompt action. The prefix is the role persona prepended
// as a system message; empty is fine for role-less use.
func NewBase(name string, provider llm.Provider, prefix string) Base {
	return Base{
		name:     name,
		provider: provider,
		prefix:   prefix,
		retry:    resilience.PromptRetryConfig(),
		logger:   slog.Default(),
	}
}

// Name implements core.Action.
func (b Base) Name() string { return b.name }

// SetPrefix replaces the persona prefix, used when a role adopts a shared
// action instance.
func (b *Base) SetPrefix(prefix string) { b.prefix = prefix }

// ask sends the prompt and returns the raw completion.
func (b Base) ask(ctx context.Context, prompt string) (string, error) {
	return llm.Ask(ctx, b.provider, b.prefix, prompt)
}

// askSection sends the prompt, requires the named '## Section' in the
// completion, and retries once when the model ignored the format.
func (b Base) askSection(ctx context.Context, prompt, section string) (string, string, error) {
	var content, sectionText string
	err := b.retry.Do(ctx, func() error {
		var err error
		content, err = b.ask(ctx, prompt)
		if err != nil {
			return err
		}
		sectionText, err = Section(content, section)
		if err != nil {
			b.logger.DebugContext(ctx, "completion missing section",
				"action", b.name, "section", section)
			return err
		}
		return nil
	})
	return content, sectionText, err
}

// render substitutes {placeholder} markers in a prompt template.
func render(template string, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

var _ core.Action = (*IntentAnalysis)(nil)
