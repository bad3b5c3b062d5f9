package pipeline

import (
	"github.com/mrsingh-rishi/voice-bridge/model"
)

// State is a step of a pipeline run.
type State string

const (
	StateReceived    State = "received"
	StateNormalized  State = "normalized"
	StateTranscribed State = "transcribed"
	StateReplied     State = "replied"
	StateSynthesized State = "synthesized"
	StateResponded   State = "responded"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateResponded || s == StateFailed
}

var next = map[State]State{
	StateReceived:    StateNormalized,
	StateNormalized:  StateTranscribed,
	StateTranscribed: StateReplied,
	StateReplied:     StateSynthesized,
	StateSynthesized: StateResponded,
}

// Result is the outcome of one run. The state trail is append-only.
type Result struct {
	RequestID   string
	Trail       []State
	Transcript  model.TranscriptionResult
	Substituted bool
	Exchange    model.ChatExchange
	Audio       model.AudioBuffer
	Err         *model.Error
}

func newResult(id string) *Result {
	return &Result{RequestID: id, Trail: []State{StateReceived}}
}

// State returns the current state.
func (r *Result) State() State {
	return r.Trail[len(r.Trail)-1]
}

// advance moves to the successor of the current state. It panics on an
// illegal transition, which is a programming error.
func (r *Result) advance(to State) {
	if next[r.State()] != to {
		panic("pipeline: illegal transition " + string(r.State()) + " -> " + string(to))
	}
	r.Trail = append(r.Trail, to)
}

func (r *Result) fail(err *model.Error) *Result {
	if !r.State().Terminal() {
		r.Trail = append(r.Trail, StateFailed)
	}
	r.Err = err
	r.Audio = model.AudioBuffer{}
	return r
}
