// Package language holds the static registry of languages the translator
// knows friendly names for.
package language

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Entry describes one registered language.
type Entry struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Code        string `json:"code"`
}

// registry is read-only after package initialisation.
var registry = map[string]Entry{
	"it": {Key: "it", DisplayName: "Italian", Code: "it"},
	"es": {Key: "es", DisplayName: "Spanish", Code: "es"},
}

// Resolve looks up an identifier case-insensitively. Regional variants such
// as "es-MX" fall back to their base language.
func Resolve(identifier string) (Entry, bool) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	if e, ok := registry[key]; ok {
		return e, true
	}

	tag, err := language.Parse(key)
	if err != nil {
		return Entry{}, false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return Entry{}, false
	}
	e, ok := registry[base.String()]
	return e, ok
}

// Describe returns the display name and code used in prompts. An unknown
// identifier is echoed verbatim as the display name and lowercased as the
// code, so arbitrary language names still reach the model.
func Describe(identifier string) (displayName, code string) {
	if e, ok := Resolve(identifier); ok {
		return e.DisplayName, e.Code
	}
	return identifier, strings.ToLower(identifier)
}

// Entries lists the registry sorted by key.
func Entries() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
