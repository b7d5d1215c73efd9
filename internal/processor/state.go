package processor

import (
	"fmt"
	"slices"

	"github.com/dshills/docflow-mcp/internal/log"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// State is a step of request processing
type State string

const (
	StateIdle       State = "idle"
	StateAnalyzing  State = "analyzing"
	StateSingleShot State = "single_shot"
	StateChunking   State = "chunking"
	StateMerging    State = "merging"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// transitions lists the legal successors of each state
var transitions = map[State][]State{
	StateIdle:       {StateAnalyzing, StateFailed},
	StateAnalyzing:  {StateSingleShot, StateChunking, StateFailed},
	StateSingleShot: {StateMerging, StateFailed},
	StateChunking:   {StateMerging, StateFailed},
	StateMerging:    {StateDone, StateFailed},
}

// CanTransition reports whether from -> to is a legal transition
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// StateObserver is notified of every transition of a request
type StateObserver func(requestID string, from, to State)

// machine tracks the state of a single request
type machine struct {
	id        string
	state     State
	observers []StateObserver
}

func newMachine(id string, observers []StateObserver) *machine {
	return &machine{id: id, state: StateIdle, observers: observers}
}

func (m *machine) transition(to State) error {
	from := m.state
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
	}
	m.state = to
	log.Debugf("request %s: %s -> %s", m.id, from, to)
	for _, observe := range m.observers {
		observe(m.id, from, to)
	}
	return nil
}

// fail moves the request to StateFailed unless it already finished
func (m *machine) fail() {
	if m.state == StateDone || m.state == StateFailed {
		return
	}
	_ = m.transition(StateFailed)
}
