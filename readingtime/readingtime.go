// Package readingtime estimates how long a text takes to read.
package readingtime

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// WordsPerMinute is the default reading speed.
const WordsPerMinute = 200

// Result is the outcome of an estimate.
type Result struct {
	Words   int
	Minutes float64
}

// Options tunes an estimate. The zero value uses WordsPerMinute.
type Options struct {
	WordsPerMinute int
}

// Estimate counts words in text and converts the count to minutes.
// Words are runs of characters between ASCII whitespace; every CJK
// ideograph in the Basic Multilingual Plane counts as a word on its own,
// and punctuation or whitespace directly following one is not counted
// again. Text is walked in UTF-16 code units, so characters outside the
// BMP are ordinary word characters.
func Estimate(text string, opts Options) Result {
	wpm := opts.WordsPerMinute
	if wpm <= 0 {
		wpm = WordsPerMinute
	}
	words := countWords(utf16.Encode([]rune(text)))
	return Result{
		Words:   words,
		Minutes: float64(words) / float64(wpm),
	}
}

func countWords(text []uint16) int {
	start, end := 0, len(text)-1
	for start <= end && isWordBound(text[start]) {
		start++
	}
	for end >= start && isWordBound(text[end]) {
		end--
	}
	at := func(i int) uint16 {
		if i < len(text) {
			return text[i]
		}
		return '\n'
	}
	words := 0
	for i := start; i <= end; i++ {
		c := text[i]
		next := at(i + 1)
		if isCJK(c) || (!isWordBound(c) && (isWordBound(next) || isCJK(next))) {
			words++
		}
		if isCJK(c) {
			for i <= end && (isPunctuation(at(i+1)) || isWordBound(at(i+1))) {
				i++
			}
		}
	}
	return words
}

// Displayed converts a raw minute estimate into the figure shown on a post
// page: the integer part when the decimal representation has no fractional
// digits other than zero, otherwise the integer part plus two.
func Displayed(minutes float64) int {
	whole, frac, _ := strings.Cut(strconv.FormatFloat(minutes, 'f', -1, 64), ".")
	m, _ := strconv.Atoi(whole)
	if strings.Trim(frac, "0") == "" {
		return m
	}
	return m + 2
}

// Minutes estimates text with default options and returns the displayed
// minute count.
func Minutes(text string) int {
	return Displayed(Estimate(text, Options{}).Minutes)
}

func isWordBound(c uint16) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

type unitRange struct{ lo, hi uint16 }

var cjkRanges = []unitRange{
	{0x3040, 0x309f}, // hiragana
	{0x4e00, 0x9fff}, // unified ideographs
	{0xac00, 0xd7a3}, // hangul syllables
}

var punctuationRanges = []unitRange{
	{0x21, 0x2f},
	{0x3a, 0x40},
	{0x5b, 0x60},
	{0x7b, 0x7e},
	{0x3000, 0x303f}, // CJK symbols and punctuation
	{0xff00, 0xffef}, // full-width forms
}

func inRanges(c uint16, ranges []unitRange) bool {
	for _, r := range ranges {
		if c >= r.lo && c <= r.hi {
			return true
		}
	}
	return false
}

func isCJK(c uint16) bool {
	return inRanges(c, cjkRanges)
}

func isPunctuation(c uint16) bool {
	return inRanges(c, punctuationRanges)
}
