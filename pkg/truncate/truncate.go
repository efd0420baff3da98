// Package truncate bounds extracted page text while keeping its opening and
// closing portions.
package truncate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker replaces the elided middle of truncated text.
const Marker = "[...]"

const (
	separator = "\n\n" + Marker + "\n\n"
	// Below this many characters of window budget the marker is not worth
	// its space and only the head is kept.
	minWindowBudget = 16
)

var separatorLen = utf8.RuneCountInString(separator)

// Truncator keeps a head and a tail window of the text and elides the middle.
// Lengths are counted in characters (runes), never bytes.
type Truncator struct {
	// HeadFraction is the share of the window budget given to the head.
	HeadFraction float64
}

// New returns a Truncator. Fractions outside (0, 1) select an even split.
func New(headFraction float64) *Truncator {
	if headFraction <= 0 || headFraction >= 1 {
		headFraction = 0.5
	}
	return &Truncator{HeadFraction: headFraction}
}

// Truncate returns text unchanged when it fits in maxChars characters and
// otherwise returns at most maxChars characters made of the leading window,
// the marker and the trailing window. Windows end on paragraph, sentence or
// word boundaries where one is close enough.
func (t *Truncator) Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	budget := maxChars - separatorLen
	if budget < minWindowBudget {
		return string(head(runes, maxChars))
	}

	fraction := t.HeadFraction
	if fraction <= 0 || fraction >= 1 {
		fraction = 0.5
	}
	headBudget := int(float64(budget) * fraction)
	tailBudget := budget - headBudget

	h := head(runes, headBudget)
	tl := tail(runes, tailBudget)
	switch {
	case len(h) == 0:
		return string(tl)
	case len(tl) == 0:
		return string(h)
	}
	return string(h) + separator + string(tl)
}

// head returns the longest prefix of at most limit runes that ends on the
// best available boundary, with trailing space removed.
func head(runes []rune, limit int) []rune {
	if len(runes) <= limit {
		return trimRight(runes)
	}
	if limit <= 0 {
		return nil
	}
	if cut := paragraphBefore(runes, limit); cut >= limit/2 {
		return trimRight(runes[:cut])
	}
	if cut := sentenceBefore(runes, limit); cut >= limit/2 {
		return trimRight(runes[:cut])
	}
	if cut := spaceBefore(runes, limit); cut > 0 {
		return trimRight(runes[:cut])
	}
	return runes[:limit]
}

// tail returns the longest suffix of at most limit runes that starts on the
// best available boundary, with leading space removed.
func tail(runes []rune, limit int) []rune {
	n := len(runes)
	if n <= limit {
		return trimLeft(runes)
	}
	if limit <= 0 {
		return nil
	}
	start := n - limit
	window := limit / 2

	if cut := paragraphAfter(runes, start); cut >= 0 && cut-start <= window {
		return trimLeft(runes[cut:])
	}
	if cut := sentenceAfter(runes, start); cut >= 0 && cut-start <= window {
		return trimLeft(runes[cut:])
	}
	if unicode.IsSpace(runes[start-1]) {
		return trimLeft(runes[start:])
	}
	if cut := spaceAfter(runes, start); cut >= 0 && cut < n {
		return trimLeft(runes[cut:])
	}
	return runes[start:]
}

// paragraphBefore returns the index of the last blank-line break that ends
// at or before limit, or -1.
func paragraphBefore(runes []rune, limit int) int {
	for i := limit - 1; i > 0; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i - 1
		}
	}
	return -1
}

// sentenceBefore returns the index just past the last sentence terminator
// that is followed by whitespace and lies within the first limit runes.
func sentenceBefore(runes []rune, limit int) int {
	for i := limit - 1; i >= 0; i-- {
		if isTerminator(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	return -1
}

// spaceBefore returns the index of the last whitespace rune at or before
// limit, so runes[:i] never splits a word.
func spaceBefore(runes []rune, limit int) int {
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

// paragraphAfter returns the index of the first rune after a blank-line
// break at or after start, or -1.
func paragraphAfter(runes []rune, start int) int {
	for i := max(start, 1); i < len(runes); i++ {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return -1
}

// sentenceAfter returns the index of the first rune following a sentence
// terminator and whitespace, at or after start, or -1.
func sentenceAfter(runes []rune, start int) int {
	for i := max(start, 1); i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) && isTerminator(runes[i-1]) {
			return i + 1
		}
	}
	return -1
}

func spaceAfter(runes []rune, start int) int {
	for i := start; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return -1
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '؟', '۔':
		return true
	}
	return false
}

func trimRight(runes []rune) []rune {
	return []rune(strings.TrimRightFunc(string(runes), unicode.IsSpace))
}

func trimLeft(runes []rune) []rune {
	return []rune(strings.TrimLeftFunc(string(runes), unicode.IsSpace))
}
