// Package llm wraps the chat-completion backends behind one small interface.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Completer sends one system+user exchange and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// ErrEmptyResponse is returned when a backend answers with no content.
var ErrEmptyResponse = errors.New("empty response from model")

var reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON returns the outermost {...} span of a model reply, which may be
// wrapped in prose or markdown fences.
func ExtractJSON(text string) (string, bool) {
	m := reJSONObject.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}
