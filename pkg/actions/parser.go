// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// ParseSections splits completion text into its '## Title' sections. Titles
// keep their spelling with a trailing colon stripped, a formatting slip
// models make often enough to tolerate.
func ParseSections(text string) map[string]string {
	sections := make(map[string]string)
	for _, block := range strings.Split(text, "##") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		title, content, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), ":"))
		if title == "" {
			continue
		}
		sections[title] = strings.TrimSpace(content)
	}
	return sections
}

// Section returns a named section, with a recoverable parse error when the
// completion did not follow the format. Retrying the prompt usually fixes
// it.
func Section(text, title string) (string, error) {
	sections := ParseSections(text)
	content, ok := sections[title]
	if !ok {
		return "", errors.New(errors.CodeParseError, "expected section missing from completion", nil).
			WithContext("section", title).
			WithRecoverable(true)
	}
	return content, nil
}

var codeBlockRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n?(.*?)```")

// StripCodeFence unwraps a fenced code block when the whole content is one.
func StripCodeFence(text string) string {
	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ExtractJSONObjects scans text for top-level JSON objects, tolerating prose
// and commas between them. Objects that fail to parse are skipped.
func ExtractJSONObjects(text string) []json.RawMessage {
	text = StripCodeFence(text)
	var out []json.RawMessage
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidate := text[start : i+1]
					if json.Valid([]byte(candidate)) {
						out = append(out, json.RawMessage(candidate))
					}
					start = -1
				}
			}
		}
	}
	return out
}

// DecodeJSONObjects extracts the JSON objects in text and unmarshals each
// into T, dropping the ones that do not fit.
func DecodeJSONObjects[T any](text string) []T {
	var out []T
	for _, raw := range ExtractJSONObjects(text) {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}
