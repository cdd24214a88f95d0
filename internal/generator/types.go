// Package generator wraps remote text-completion models behind a single
// prompt-in, text-out capability.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Config carries per-call settings. APIKey is resolved by the caller on
// every request so a rotated credential takes effect without a restart.
type Config struct {
	APIKey string
	Model  string
	// JSON asks the provider for a JSON-only reply when it supports that.
	JSON bool
}

// Generator produces a single text reply for a single prompt.
type Generator interface {
	Name() string
	// RequiresAPIKey reports whether Generate needs Config.APIKey.
	RequiresAPIKey() bool
	Generate(ctx context.Context, cfg Config, prompt string) (string, error)
}

var (
	// ErrEmptyResponse means the provider answered without any text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrMissingAPIKey is returned when a key-based provider gets no key.
	ErrMissingAPIKey = errors.New("API key required")
)

// StatusError is a non-success HTTP status from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Code, e.Body)
}

// IsPermanent reports whether retrying err cannot help: client errors
// other than timeouts and rate limits, and a missing key.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500 &&
			se.Code != http.StatusRequestTimeout &&
			se.Code != http.StatusTooManyRequests
	}
	return false
}

// truncate shortens upstream bodies before they land in error strings.
// maxLen counts bytes; the cut never splits a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
