package sct

import (
	"go/ast"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/gowhat/internal/log"
	"github.com/cottand/gowhat/syntax"
)

var sctLogger = log.DefaultLogger.With("section", "sct")

// State is a snapshot of where a chain of checks currently looks: the
// student and solution subtrees, the names bound around them, the
// environment overrides, the highlight and the message stack.
//
// A State is never modified after creation: deriving one (ToChild) copies
// every field that is not overridden.
type State struct {
	studentProgram  *syntax.Source
	solutionProgram *syntax.Source
	// solutionSource owns solutionTree, which differs from solutionProgram after Override
	solutionSource *syntax.Source

	studentTree, solutionTree       ast.Node
	studentContext, solutionContext Bindings
	studentEnv, solutionEnv         Bindings

	highlight            ast.Node
	highlightingDisabled bool
	messages             *immutable.List[Message]
	forceDiagnose        bool

	parent *State
	// loops is shared along a lineage for as long as the tree pair does not change
	loops *loopCache
}

type Config struct {
	Student  *syntax.Source
	Solution *syntax.Source
	// ForceDiagnose surfaces the diagnose feedback of CheckCorrect even when the check passed
	ForceDiagnose bool
}

// NewState returns the root State for a submission
func NewState(cfg Config) *State {
	return &State{
		studentProgram:  cfg.Student,
		solutionProgram: cfg.Solution,
		solutionSource:  cfg.Solution,
		studentTree:     cfg.Student.Module,
		solutionTree:    cfg.Solution.Module,
		messages:        immutable.NewList[Message](),
		forceDiagnose:   cfg.ForceDiagnose,
		loops:           &loopCache{},
	}
}

// Trees is a student subtree together with the matching solution subtree
type Trees struct {
	Student, Solution ast.Node
}

// Derive lists the fields a child State overrides. Zero fields are inherited.
type Derive struct {
	// Trees replaces both subtrees. Unless Highlight is set, the new student subtree is highlighted.
	Trees *Trees
	// SolutionSource is the Source the new solution subtree was parsed from
	SolutionSource *syntax.Source

	StudentContext, SolutionContext *Bindings
	StudentEnv, SolutionEnv         *Bindings

	Highlight           ast.Node
	DisableHighlighting bool
	AppendMessage       *Message
}

// ToChild returns a new State with the fields of d overridden
func (s *State) ToChild(d Derive) *State {
	child := *s
	child.parent = s

	if d.Trees != nil {
		child.studentTree, child.solutionTree = d.Trees.Student, d.Trees.Solution
		child.highlight = d.Trees.Student
		if child.studentTree != s.studentTree || child.solutionTree != s.solutionTree {
			child.loops = &loopCache{}
		}
	}
	if d.SolutionSource != nil {
		child.solutionSource = d.SolutionSource
	}
	if d.StudentContext != nil {
		child.studentContext = *d.StudentContext
	}
	if d.SolutionContext != nil {
		child.solutionContext = *d.SolutionContext
	}
	if d.StudentEnv != nil {
		child.studentEnv = *d.StudentEnv
	}
	if d.SolutionEnv != nil {
		child.solutionEnv = *d.SolutionEnv
	}
	if d.Highlight != nil {
		child.highlight = d.Highlight
	}
	if d.DisableHighlighting {
		child.highlightingDisabled = true
	}
	if d.AppendMessage != nil {
		child.messages = child.messages.Append(*d.AppendMessage)
	}
	return &child
}

func (s *State) StudentProgram() *syntax.Source  { return s.studentProgram }
func (s *State) SolutionProgram() *syntax.Source { return s.solutionProgram }
func (s *State) SolutionSource() *syntax.Source  { return s.solutionSource }
func (s *State) StudentTree() ast.Node           { return s.studentTree }
func (s *State) SolutionTree() ast.Node          { return s.solutionTree }
func (s *State) StudentContext() Bindings        { return s.studentContext }
func (s *State) SolutionContext() Bindings       { return s.solutionContext }
func (s *State) StudentEnv() Bindings            { return s.studentEnv }
func (s *State) SolutionEnv() Bindings           { return s.solutionEnv }
func (s *State) HighlightingDisabled() bool      { return s.highlightingDisabled }
func (s *State) ForceDiagnose() bool             { return s.forceDiagnose }
func (s *State) Parent() *State                  { return s.parent }

// Highlight returns the node feedback should be anchored to, or nil when
// highlighting is disabled for this State
func (s *State) Highlight() ast.Node {
	if s.highlightingDisabled {
		return nil
	}
	return s.highlight
}

// StudentText is the student code of the current subtree
func (s *State) StudentText() string {
	return s.studentProgram.Text(s.studentTree)
}

// SolutionText is the solution code of the current subtree
func (s *State) SolutionText() string {
	return s.solutionSource.Text(s.solutionTree)
}

func (s *State) Messages() []Message {
	out := make([]Message, 0, s.messages.Len())
	itr := s.messages.Iterator()
	for !itr.Done() {
		_, m := itr.Next()
		out = append(out, m)
	}
	return out
}

type loopCache struct {
	filled            bool
	student, solution ast.Node
	studentLoops      []syntax.ForLoop
	solutionLoops     []syntax.ForLoop
}

// ForLoops returns the for loops of the current student and solution subtrees.
// They are extracted once and reused by every State deriving from this one
// without changing the tree pair.
func (s *State) ForLoops() (student, solution []syntax.ForLoop) {
	c := s.loops
	if c.filled && c.student == s.studentTree && c.solution == s.solutionTree {
		return c.studentLoops, c.solutionLoops
	}
	*c = loopCache{
		filled:        true,
		student:       s.studentTree,
		solution:      s.solutionTree,
		studentLoops:  syntax.ForLoops(s.studentTree),
		solutionLoops: syntax.ForLoops(s.solutionTree),
	}
	sctLogger.Debug("extracted for loops",
		"student", len(c.studentLoops),
		"solution", len(c.solutionLoops),
		"tree", syntax.Slog(s.studentProgram, s.studentTree),
	)
	return c.studentLoops, c.solutionLoops
}
