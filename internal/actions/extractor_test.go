package actions

import (
	"reflect"
	"testing"
)

func TestExtractScheduleAndPrepare(t *testing.T) {
	text := "We need to schedule a meeting. John will prepare the report."
	got := NewExtractor().Extract(text)
	want := []Item{
		{Action: "schedule", Context: "We need to schedule a meeting.", Priority: PriorityMedium},
		{Action: "prepare", Context: "John will prepare the report.", Priority: PriorityMedium},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractKeepsDecomposedSentenceVerbatim(t *testing.T) {
	text := "We need to re\u0301view the cafe\u0301 budget."
	got := NewExtractor().Extract(text)
	if len(got) != 1 {
		t.Fatalf("expected one item, got %+v", got)
	}
	if got[0].Context != text {
		t.Fatalf("context %q is not the source sentence %q", got[0].Context, text)
	}
	if got[0].Action != "r\u00e9view" {
		t.Fatalf("expected composed verb, got %q", got[0].Action)
	}
}

func TestExtractPreservesOverlappingMatches(t *testing.T) {
	got := NewExtractor().Extract("We are going to need to hire someone")
	if len(got) != 2 {
		t.Fatalf("expected two items, got %+v", got)
	}
	// Pattern order, not position order, within one sentence.
	if got[0].Action != "hire" || got[1].Action != "need" {
		t.Fatalf("unexpected order: %+v", got)
	}
	for _, item := range got {
		if item.Context != "We are going to need to hire someone" {
			t.Fatalf("context must be the original sentence, got %q", item.Context)
		}
	}
}

func TestExtractCases(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		actions []string
	}{
		{"no intent", "The weather was nice. Lunch was good.", nil},
		{"case insensitive", "WE MUST FINISH TODAY!", []string{"finish"}},
		{"line breaks split sentences", "Alice should call Bob\nBob will email Carol", []string{"call", "email"}},
		{"repeated pattern", "You should read it and should sign it.", []string{"read", "sign"}},
		{"unicode verb", "Nous devons; we will éditer la page.", []string{"éditer"}},
		{"empty", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items := NewExtractor().Extract(tc.text)
			if items == nil {
				t.Fatal("Extract must never return nil")
			}
			var got []string
			for _, item := range items {
				got = append(got, item.Action)
				if item.Priority != DefaultPriority {
					t.Fatalf("unexpected priority %q", item.Priority)
				}
			}
			if !reflect.DeepEqual(got, tc.actions) {
				t.Fatalf("actions = %q, want %q", got, tc.actions)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority(" High "); err != nil || p != PriorityHigh {
		t.Fatalf("ParsePriority = %q, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}
