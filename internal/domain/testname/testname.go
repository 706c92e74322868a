// Package testname canonicalizes free-text lab test names into a comparable form.
package testname

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// maxAcronymLen is the longest all-caps token kept verbatim (e.g. "CBC", "HBA1C").
const maxAcronymLen = 6

var parenthesized = regexp.MustCompile(`\(.*?\)`)

// Normalize maps a raw lab test name to its comparable form.
//
// Rules, applied in order:
//  1. ";" present: the final segment, with its comma tail and parenthesized
//     parts stripped, is returned when it is a short all-caps acronym;
//     otherwise normalization continues with the first segment.
//  2. "," present: normalization continues with the text before the first comma.
//  3. Parenthesized qualifiers are removed, whitespace collapsed, and the
//     remainder title-cased unless it is itself a short acronym.
//
// Normalize is total and idempotent; "" yields "".
func Normalize(raw string) string {
	s := clean(raw)

	if strings.Contains(s, ";") {
		segments := strings.Split(s, ";")
		if last := stripQualifiers(segments[len(segments)-1]); isAcronym(last) {
			return last
		}
		s = segments[0]
	}

	s = stripQualifiers(s)
	if isAcronym(s) {
		return s
	}
	return titleCase(s)
}

// NormalizeAll normalizes every name, preserving order.
func NormalizeAll(raw []string) []string {
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = Normalize(r)
	}
	return out
}

// stripQualifiers drops everything after the first comma and every
// parenthesized part.
func stripQualifiers(s string) string {
	if before, _, found := strings.Cut(s, ","); found {
		s = before
	}
	return clean(parenthesized.ReplaceAllString(s, " "))
}

// clean applies NFKC and collapses runs of whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

func isAcronym(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxAcronymLen {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
