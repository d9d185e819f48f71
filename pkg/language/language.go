// Package language tags a source with its most likely natural language,
// judged from a sample of its tokens.
package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Unknown is reported when the sample is empty or no language is reliable.
const Unknown = "unknown"

type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to langs, or to every language
// lingua knows when fewer than two are given.
func NewDetector(langs ...lingua.Language) *Detector {
	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(langs) < 2 {
		detector = builder.FromAllLanguages().Build()
	} else {
		detector = builder.FromLanguages(langs...).Build()
	}
	return &Detector{detector: detector}
}

// Detect returns the lower-case English name of the language of tokens.
func (d *Detector) Detect(tokens []string) string {
	if len(tokens) == 0 {
		return Unknown
	}
	lang, ok := d.detector.DetectLanguageOf(strings.Join(tokens, " "))
	if !ok {
		return Unknown
	}
	return strings.ToLower(lang.String())
}
