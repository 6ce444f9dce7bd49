// Package cards pulls masked card numbers out of the "Card Detail(s)" section
// of statement text.
package cards

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker opens the card section. The marker line itself is never scanned.
const Marker = "***Card Detail"

// MinRawLength is the shortest hyphen-stripped token accepted as a card number.
const MinRawLength = 8

// stopWords end the section when found anywhere in a line.
var stopWords = []string{"Invoice", "Thank", "see you"}

type state int

const (
	outside state = iota
	inside
	terminated
)

func (s state) String() string {
	switch s {
	case outside:
		return "outside"
	case inside:
		return "inside"
	case terminated:
		return "terminated"
	}
	return "unknown"
}

// Parse returns the unique normalized card tokens found in text, in the order
// they first appear. Text without a marker yields nil.
func Parse(text string) []string {
	return Dedup(Scan(text))
}

// Scan walks the lines of text and returns every accepted token, duplicates
// included.
func Scan(text string) []string {
	var out []string
	st := outside
	for _, line := range SplitLines(text) {
		if st == terminated {
			break
		}
		if strings.Contains(line, Marker) {
			st = inside
			continue
		}
		if st != inside {
			continue
		}
		if IsTerminator(line) {
			st = terminated
			continue
		}
		if !IsCandidate(line) {
			continue
		}
		if tok, ok := NormalizeToken(firstField(line)); ok {
			out = append(out, tok)
		}
	}
	return out
}

// IsTerminator reports whether line closes the card section: blank, starting
// with an underscore, or containing one of the stop words.
func IsTerminator(line string) bool {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "_") {
		return true
	}
	for _, w := range stopWords {
		if strings.Contains(line, w) {
			return true
		}
	}
	return false
}

// IsCandidate reports whether line holds at least one digit and a hyphen.
func IsCandidate(line string) bool {
	return strings.Contains(line, "-") && strings.IndexFunc(line, unicode.IsDigit) >= 0
}

// NormalizeToken strips hyphens and then leading zeros from raw. The token is
// accepted when the hyphen-stripped form is at least MinRawLength characters,
// so an all-zero raw such as "0000-0000" is accepted as the empty string.
func NormalizeToken(raw string) (string, bool) {
	digits := strings.ReplaceAll(raw, "-", "")
	if utf8.RuneCountInString(digits) < MinRawLength {
		return "", false
	}
	return strings.TrimLeft(digits, "0"), true
}

// Dedup drops repeated tokens, keeping the first occurrence of each.
func Dedup(tokens []string) []string {
	if tokens == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func firstField(line string) string {
	if f := strings.Fields(line); len(f) > 0 {
		return f[0]
	}
	return ""
}
