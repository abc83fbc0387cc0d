package actions

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"echoes/internal/textutil"
)

// Priority ranks an action item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is assigned to every extracted item.
const DefaultPriority = PriorityMedium

// ParsePriority validates a priority label.
func ParsePriority(value string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(value))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", value)
	}
}

// Item is one extracted action.
type Item struct {
	Action   string   `json:"action"`
	Context  string   `json:"context"`
	Priority Priority `json:"priority"`
}

// word matches a Unicode word, unlike RE2's ASCII-only \w.
const word = `([\p{L}\p{N}_]+)`

// Patterns are tried in this order against each NFC-normalized, lower-cased
// sentence.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`need to ` + word),
	regexp.MustCompile(`should ` + word),
	regexp.MustCompile(`must ` + word),
	regexp.MustCompile(`will ` + word),
	regexp.MustCompile(`going to ` + word),
}

// Extractor finds action items in text.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns every pattern match in sentence order, then pattern order.
// A sentence matching several patterns yields several items; nothing is
// merged. The result is never nil.
func (e *Extractor) Extract(text string) []Item {
	items := []Item{}
	for _, sentence := range textutil.SplitSentences(text) {
		lowered := strings.ToLower(norm.NFC.String(sentence))
		for _, pattern := range patterns {
			for _, match := range pattern.FindAllStringSubmatch(lowered, -1) {
				items = append(items, Item{
					Action:   match[1],
					Context:  sentence,
					Priority: DefaultPriority,
				})
			}
		}
	}
	return items
}
