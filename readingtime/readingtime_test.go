package readingtime

import (
	"strings"
	"testing"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("palavra ", n))
}

func TestEstimateWordCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"whitespace only", " \n\t ", 0},
		{"single", "olá", 1},
		{"two words", "olá mundo", 2},
		{"padded", "  olá   mundo \n", 2},
		{"html is not a bound", "Olá<br />mundo", 2},
		{"joined fragments", "Olámundo", 1},
		{"cjk ideographs", "日本語", 3},
		{"cjk with punctuation", "日本。 語", 3},
		{"mixed", "Go 言語 rocks", 4},
		{"astral ideographs form one word", "𠀀𠀁", 1},
		{"astral ideographs between spaces", "𠀀 𠀁", 2},
	}
	for _, tt := range tests {
		got := Estimate(tt.input, Options{}).Words
		if got != tt.want {
			t.Errorf("%s: Estimate(%q).Words = %d, want %d", tt.name, tt.input, got, tt.want)
		}
	}
}

func TestEstimateMinutes(t *testing.T) {
	got := Estimate(words(300), Options{})
	if got.Minutes != 1.5 {
		t.Errorf("Minutes = %v, want 1.5", got.Minutes)
	}
	custom := Estimate(words(300), Options{WordsPerMinute: 100})
	if custom.Minutes != 3 {
		t.Errorf("Minutes at 100 wpm = %v, want 3", custom.Minutes)
	}
}

func TestDisplayedBias(t *testing.T) {
	tests := []struct {
		minutes float64
		want    int
	}{
		{0, 0},
		{3.0, 3},
		{3.5, 5},
		{3.2, 5},
		{3.95, 5},
		{0.005, 2},
		{12, 12},
	}
	for _, tt := range tests {
		if got := Displayed(tt.minutes); got != tt.want {
			t.Errorf("Displayed(%v) = %d, want %d", tt.minutes, got, tt.want)
		}
	}
}

func TestMinutes(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{600, 3},
		{700, 5},
		{640, 5},
		{1, 2},
	}
	for _, tt := range tests {
		if got := Minutes(words(tt.words)); got != tt.want {
			t.Errorf("Minutes(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}
