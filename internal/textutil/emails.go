package textutil

import "regexp"

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ExtractEmails returns every email-shaped substring of text in order of
// appearance. Repeats are kept; no validation beyond the pattern is done.
func ExtractEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}
