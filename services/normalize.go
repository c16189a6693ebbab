package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// descriptionLimit is how many characters of the abstract make up the
// derived summary.
const descriptionLimit = 100

// TitleCase lower-cases the whole string and then upper-cases the first
// letter of each whitespace-separated token. Input is NFC-normalized
// first. The token rule is deliberately plain whitespace splitting, not
// Unicode word segmentation, so "di-breakdown" stays "Di-breakdown".
func TitleCase(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	words := strings.Split(s, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

// DeriveDescription computes the truncated, title-cased summary of an
// abstract. Always recomputed when the abstract changes, never edited on
// its own.
func DeriveDescription(abstract string) string {
	runes := []rune(norm.NFC.String(abstract))
	if len(runes) > descriptionLimit {
		runes = runes[:descriptionLimit]
	}
	return TitleCase(string(runes)) + "..."
}

// Display-date vocabulary: Indonesian day names, English month names,
// all uppercase. Legacy records on disk already use this format.
var (
	displayDays = [...]string{
		"MINGGU", "SENIN", "SELASA", "RABU", "KAMIS", "JUMAT", "SABTU",
	}
	displayMonths = [...]string{
		"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE",
		"JULY", "AUGUST", "SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
	}
)

// DisplayDate renders a creation timestamp as "SENIN - 2 JUNE 2025".
// Assigned once at creation and never mutated.
func DisplayDate(t time.Time) string {
	return fmt.Sprintf("%s - %d %s %d",
		displayDays[int(t.Weekday())],
		t.Day(),
		displayMonths[int(t.Month())-1],
		t.Year(),
	)
}
