package textutil

import (
	"strings"
	"unicode"
)

// SplitPeriods splits text on '.', trims each piece, and drops empty pieces.
func SplitPeriods(text string) []string {
	parts := strings.Split(text, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitSentences segments text into sentences. A sentence ends after a run of
// '.', '!' or '?' (plus any closing quotes or brackets) that is followed by
// whitespace or the end of input, or at a line break. Terminal punctuation is
// kept; surrounding whitespace is trimmed and empty sentences are dropped.
// Sentences are cut from text as given, without Unicode normalization.
func SplitSentences(text string) []string {
	runes := []rune(text)

	var sentences []string
	start := 0
	flush := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' || r == '\r' {
			flush(i)
			continue
		}
		if !isTerminal(r) {
			continue
		}
		end := i + 1
		for end < len(runes) && (isTerminal(runes[end]) || isCloser(runes[end])) {
			end++
		}
		if end == len(runes) || unicode.IsSpace(runes[end]) {
			flush(end)
			i = end - 1
		}
	}
	flush(len(runes))
	return sentences
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}
