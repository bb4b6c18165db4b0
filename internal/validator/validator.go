// Package validator flags translations that do not look like English.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/vidlingo/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Most search queries are shorter and pass unchecked.
const minValidationLength = 20

const english = "en"

// Validator checks that translated queries are written in English.
// The underlying language detector is expensive to build; share it.
type Validator struct {
	det *detector.Detector
}

func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// CheckEnglish returns an error when text is clearly in another language.
//
// Empty text is an error. Short texts and texts whose language cannot be
// determined pass.
func (v *Validator) CheckEnglish(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.Detect(text)
	if !ok {
		return nil
	}

	if detected != english {
		return fmt.Errorf("expected %s but detected %s", english, detected)
	}
	return nil
}
