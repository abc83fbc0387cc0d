package calendar

import (
	"time"

	"echoes/internal/textutil"
)

const (
	// FollowupTitlePrefix starts every follow-up title.
	FollowupTitlePrefix = "Follow-up: "
	// FollowupTitleRunes is the number of summary runes kept in the title.
	FollowupTitleRunes = 50
)

// FollowupStart returns tomorrow at hour:00 in now's location, seconds zeroed.
func FollowupStart(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
}

// FollowupTitle returns the prefix, the first 50 runes of summary and "...".
func FollowupTitle(summary string) string {
	runes := []rune(summary)
	if len(runes) > FollowupTitleRunes {
		runes = runes[:FollowupTitleRunes]
	}
	return FollowupTitlePrefix + string(runes) + "..."
}

// Followup builds the follow-up event for a run: titled from summary,
// starting tomorrow at hour, lasting duration, inviting every email address
// found in transcript in order of appearance.
func Followup(now time.Time, summary, transcript string, hour int, duration time.Duration) EventRequest {
	start := FollowupStart(now, hour)
	return NewEventRequest(FollowupTitle(summary), start, start.Add(duration), textutil.ExtractEmails(transcript))
}
