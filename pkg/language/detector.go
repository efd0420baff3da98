// Package language picks the language research output is written in.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Default is used when detection is inconclusive.
const Default = "en"

// Detector maps text to an ISO 639-1 code using whatlanggo.
type Detector struct {
	// Fallback is returned for empty or unreliable input.
	Fallback string
	// MinConfidence is the lowest whatlanggo confidence accepted.
	MinConfidence float64
}

// NewDetector returns a detector with the default fallback.
func NewDetector(minConfidence float64) *Detector {
	return &Detector{Fallback: Default, MinConfidence: minConfidence}
}

// Detect returns the language code for text.
func (d *Detector) Detect(text string) string {
	fallback := d.Fallback
	if fallback == "" {
		fallback = Default
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}

	info := whatlanggo.Detect(text)
	if info.Confidence < d.MinConfidence {
		return fallback
	}
	if code := Code(info.Lang); code != "" {
		return code
	}
	return fallback
}

// whatlanggo reports some languages, Persian among them, without an
// ISO 639-1 code.
var codes = map[whatlanggo.Lang]string{
	whatlanggo.Pes: "fa",
	whatlanggo.Arb: "ar",
	whatlanggo.Urd: "ur",
	whatlanggo.Cmn: "zh",
}

// Code returns the ISO 639-1 code for lang, or "" if it has none.
func Code(lang whatlanggo.Lang) string {
	if code, ok := codes[lang]; ok {
		return code
	}
	return lang.Iso6391()
}

var names = map[string]string{
	"en": "English",
	"fa": "Persian",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"ru": "Russian",
	"uk": "Ukrainian",
	"pl": "Polish",
	"tr": "Turkish",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"hi": "Hindi",
	"ar": "Arabic",
	"ur": "Urdu",
	"sv": "Swedish",
}

// Name returns the English name of a language code for use in prompts.
// Unknown codes are returned upper-cased.
func Name(code string) string {
	if n, ok := names[strings.ToLower(code)]; ok {
		return n
	}
	if code == "" {
		return names[Default]
	}
	return strings.ToUpper(code)
}

// Instruction is appended to prompts so the model answers in the language.
func Instruction(code string) string {
	name := Name(code)
	return "You MUST write your entire response in " + name + ". Do not use other languages."
}
