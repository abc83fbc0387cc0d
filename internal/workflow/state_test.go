package workflow

import "testing"

func TestStateTransitions(t *testing.T) {
	m := newStateMachine()
	order := []State{
		StateConverting, StateNormalizing, StateTranscribing, StateSummarizing,
		StateExtractingActions, StateIntegrating, StateCompleted,
	}
	for _, next := range order {
		if err := m.advance(next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if len(m.history) != len(order)+1 {
		t.Fatalf("unexpected history: %v", m.history)
	}
	if err := m.advance(StateFailed); err == nil {
		t.Fatal("expected terminal state to reject transitions")
	}
}

func TestStateRejectsSkips(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateInitialized, StateConverting, true},
		{StateInitialized, StateTranscribing, false},
		{StateNormalizing, StateSummarizing, false},
		{StateTranscribing, StateFailed, true},
		{StateFailed, StateConverting, false},
		{StateCompleted, StateFailed, false},
	}
	for _, tc := range tests {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}
