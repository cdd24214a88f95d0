// Package detector identifies which registered language a text is in.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/linguabridge/internal/language"
)

// Detector chooses among the registry languages only, which keeps the
// lingua models small and avoids answers the registry cannot resolve.
type Detector struct {
	detector lingua.LanguageDetector
	codes    map[string]bool
}

// New builds a detector for the registry languages.
func New() *Detector {
	var isoCodes []lingua.IsoCode639_1
	codes := make(map[string]bool)
	for _, e := range language.Entries() {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToUpper(e.Code))
		if iso == lingua.UnknownIsoCode639_1 {
			continue
		}
		isoCodes = append(isoCodes, iso)
		codes[e.Code] = true
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromIsoCodes639_1(isoCodes...).
		Build()

	return &Detector{detector: detector, codes: codes}
}

// Supports reports whether code is one of the detectable languages.
func (d *Detector) Supports(code string) bool {
	return d.codes[strings.ToLower(code)]
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lowercase ISO 639-1 code of text's language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
