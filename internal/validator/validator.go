// Package validator checks that a translation result is in the expected target language.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/linguabridge/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator checks that a translation is written in the expected target language.
// The underlying language detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator sharing det.
func New(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// IsValid returns true when translatedText appears to be written in targetCode.
//
// Short texts, targets outside the detectable set, and texts whose language
// cannot be determined pass without error. When the detected language
// differs from targetCode the returned error names both codes.
func (v *Validator) IsValid(translatedText, targetCode string) (bool, error) {
	if targetCode == "" || !v.det.Supports(targetCode) {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetCode) {
		return false, fmt.Errorf("expected %s but detected %s", targetCode, detected)
	}

	return true, nil
}
