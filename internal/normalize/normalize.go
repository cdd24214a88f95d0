// Package normalize turns a free-form model reply into a TranslationResult.
//
// The model is not a trusted producer of structured data, so Normalize is a
// total function: it tries a strict JSON decode of the most likely payload
// and falls back to deriving a result from the raw text. It never returns
// an error and always yields the full result shape.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valpere/linguabridge/internal"
	"github.com/valpere/linguabridge/internal/postprocess"
)

// UnparsedNotice is the description used when the reply holds no usable
// JSON object.
const UnparsedNotice = "The model reply could not be parsed; showing the raw translation."

// Outcome is a normalized reply plus whether its JSON payload decoded.
type Outcome struct {
	Result internal.TranslationResult
	Parsed bool
}

// Normalize recovers a result from raw. raw must be non-empty after
// cleanup for the translation invariant to hold; callers treat an empty
// reply as an upstream failure before getting here.
func Normalize(raw string) Outcome {
	// Reasoning tags are only removed when the fence-stripped reply does not
	// decode, so tag-like text inside JSON strings survives.
	text := postprocess.StripFences(raw)
	fields, err := decode(Candidate(text))
	if err != nil {
		text = Clean(raw)
		fields, err = decode(Candidate(text))
		if err != nil {
			return Outcome{Result: fallback(text)}
		}
	}

	return Outcome{
		Result: internal.TranslationResult{
			Translation: coerceTranslation(fields["translation"], text),
			Idioms:      coerceIdioms(fields["idioms"]),
			Description: coerceString(fields["description"]),
		},
		Parsed: true,
	}
}

// Clean strips reasoning blocks and code fences, then trims.
func Clean(raw string) string {
	return postprocess.StripFences(postprocess.RemoveThinking(raw))
}

// Candidate returns the span from the first '{' to the last '}', or the
// whole text when no such span exists.
func Candidate(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

func decode(candidate string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode model reply: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("model reply is not a JSON object")
	}
	return fields, nil
}

func fallback(text string) internal.TranslationResult {
	return internal.TranslationResult{
		Translation: postprocess.FirstLine(text),
		Idioms:      []string{},
		Description: UnparsedNotice,
	}
}

func coerceTranslation(v any, text string) string {
	if s := coerceString(v); s != "" {
		return s
	}
	return postprocess.FirstLine(text)
}

func coerceIdioms(v any) []string {
	idioms := []string{}
	items, ok := v.([]any)
	if !ok {
		return idioms
	}
	for _, item := range items {
		if s := coerceString(item); s != "" {
			idioms = append(idioms, s)
		}
	}
	return idioms
}

// coerceString returns the trimmed value when v is a string, else "".
func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
