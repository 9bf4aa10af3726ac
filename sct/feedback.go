package sct

import (
	"maps"

	"github.com/cottand/gowhat/syntax"
)

// Feedback is the message shown to the student, anchored to the State
// in which the check failed
type Feedback struct {
	Message string
	State   *State
}

func NewFeedback(msg string, state *State) *Feedback {
	return &Feedback{Message: msg, State: state}
}

// Region returns the highlighted part of the student code, or nil when the
// state has no highlight or highlighting was disabled
func (f *Feedback) Region() *syntax.Region {
	if f == nil || f.State == nil || f.State.HighlightingDisabled() {
		return nil
	}
	return f.State.StudentProgram().Region(f.State.Highlight())
}

// Payload is the outcome of running a whole SCT against a submission
type Payload struct {
	Correct bool              `json:"correct"`
	Message string            `json:"message"`
	Region  *syntax.Region    `json:"region,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Tests   int               `json:"tests"`
}

func payloadFor(rep *Reporter, fb *Feedback) Payload {
	p := Payload{Correct: fb == nil, Tags: maps.Clone(rep.tags), Tests: rep.executed}
	if fb != nil {
		p.Message = fb.Message
		p.Region = fb.Region()
	}
	return p
}
