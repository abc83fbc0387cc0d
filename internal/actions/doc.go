// Package actions extracts action items from transcript text with a fixed,
// ordered list of intent patterns.
package actions
