package workflow

import "fmt"

// State is a run's position in the pipeline.
type State string

const (
	StateInitialized       State = "initialized"
	StateConverting        State = "converting"
	StateNormalizing       State = "normalizing"
	StateTranscribing      State = "transcribing"
	StateSummarizing       State = "summarizing"
	StateExtractingActions State = "extracting_actions"
	StateIntegrating       State = "integrating"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

var nextState = map[State]State{
	StateInitialized:       StateConverting,
	StateConverting:        StateNormalizing,
	StateNormalizing:       StateTranscribing,
	StateTranscribing:      StateSummarizing,
	StateSummarizing:       StateExtractingActions,
	StateExtractingActions: StateIntegrating,
	StateIntegrating:       StateCompleted,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether to directly follows s. Any non-terminal
// state may fail.
func (s State) CanTransition(to State) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return nextState[s] == to
}

type stateMachine struct {
	current State
	history []State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateInitialized, history: []State{StateInitialized}}
}

func (m *stateMachine) advance(to State) error {
	if !m.current.CanTransition(to) {
		return fmt.Errorf("invalid transition %s -> %s", m.current, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}
