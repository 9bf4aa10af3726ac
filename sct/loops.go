package sct

import (
	"fmt"
	"go/ast"

	"github.com/cottand/gowhat/syntax"
)

const (
	partIter   = "sequence part"
	partBody   = "body"
	partOrElse = "else part"

	defineMoreLoops = "Define more `for` loops."
	loopPartMessage = "Check the {{.part}} of the {{.ordinal}} {{.construct}}."
)

// ForLoopChecks are the checks TestForLoop runs against the parts of one loop
type ForLoopChecks struct {
	// Index is the 1-based position of the loop among the loops of the current subtree
	Index  int
	Iter   Check
	Body   Check
	OrElse Check
	// NoExpand leaves failure messages of the part checks as they are,
	// instead of prefixing them with the part and loop they come from
	NoExpand bool
}

// TestForLoop finds the loop at p.Index in the student and solution subtrees
// and runs each given check against the matching part of both loops.
// Body and else checks see the loop variables in their context.
func TestForLoop(p ForLoopChecks) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		rep.SetTag("fun", "test_for_loop")

		stu, sol, err := nthLoop(rep, s, p.Index)
		if err != nil {
			return nil, err
		}

		prefix := func(part string) string {
			if p.NoExpand {
				return ""
			}
			return fmt.Sprintf("Check your code in the %s of the %s for loop.", part, Ordinal(p.Index))
		}
		targets := &loopTargets{student: stu.TargetNames(), solution: sol.TargetNames()}
		vars := map[string]any{"ordinal": Ordinal(p.Index), "construct": "for loop"}

		if err := subTest(rep, s, p.Iter, Trees{stu.Iter, sol.Iter}, nil, prefix(partIter), vars); err != nil {
			return nil, err
		}
		if err := subTest(rep, s, p.Body, Trees{stu.Body, sol.Body}, targets, prefix(partBody), vars); err != nil {
			return nil, err
		}
		if err := subTest(rep, s, p.OrElse, Trees{stu.OrElse, sol.OrElse}, targets, prefix(partOrElse), vars); err != nil {
			return nil, err
		}
		return s, nil
	}
}

type loopTargets struct {
	student, solution []string
}

// nthLoop returns the loops at the 1-based index. When the student wrote fewer
// loops, the failure has already been reported when the error is returned.
func nthLoop(rep *Reporter, s *State, index int) (stu, sol syntax.ForLoop, err error) {
	if index < 1 {
		return stu, sol, Authoring(InvalidIndex, "loop index must be 1 or more, got %d", index)
	}
	stuLoops, solLoops := s.ForLoops()
	if index > len(stuLoops) {
		// the message stands alone, s only anchors the highlight
		_, err = rep.DoTest(FeedbackTest{Feedback: NewFeedback(defineMoreLoops, s)})
		return stu, sol, err
	}
	if index > len(solLoops) {
		return stu, sol, Authoring(MissingSolutionPart,
			"the solution has %d `for` loops, there is no %s one to check", len(solLoops), Ordinal(index))
	}
	return stuLoops[index-1], solLoops[index-1], nil
}

// subTest runs check against a part of a construct. Nothing happens when no
// check is given. A non-empty prefix joins the message stack after what the
// chain already pushed.
func subTest(rep *Reporter, s *State, check Check, trees Trees, targets *loopTargets, prefix string, vars map[string]any) error {
	if check == nil {
		return nil
	}
	d := Derive{Trees: &trees, AppendMessage: &Message{Template: prefix, Vars: vars}}
	if targets != nil {
		stu := s.StudentContext().Enter(targets.student...)
		sol := s.SolutionContext().Enter(targets.solution...)
		d.StudentContext, d.SolutionContext = &stu, &sol
	}
	child := s.ToChild(d)

	_, err := rep.DoTest(TestFunc(func() (*State, error) {
		return check(rep, child)
	}))
	return err
}

// CheckForLoop zooms in on the loop at the 1-based index, to be followed by
// CheckIter, CheckBody or CheckOrElse
func CheckForLoop(index int) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		rep.SetTag("fun", "check_for_loop")

		stu, sol, err := nthLoop(rep, s, index)
		if err != nil {
			return nil, err
		}
		return s.ToChild(Derive{
			Trees: &Trees{Student: stu.Node, Solution: sol.Node},
			AppendMessage: &Message{Vars: map[string]any{
				"ordinal":   Ordinal(index),
				"construct": "for loop",
			}},
		}), nil
	}
}

// CheckIter zooms in on the range expression (or condition) of the current loop
func CheckIter() Check { return checkLoopPart(partIter) }

// CheckBody zooms in on the body of the current loop, with the loop variables in context
func CheckBody() Check { return checkLoopPart(partBody) }

// CheckOrElse zooms in on the else part of the current loop, which is always empty in Go
func CheckOrElse() Check { return checkLoopPart(partOrElse) }

func checkLoopPart(part string) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		stu, stuOk := loopOf(s.StudentTree())
		sol, solOk := loopOf(s.SolutionTree())
		if !stuOk || !solOk {
			return nil, Authoring(NotALoop, "checking the %s of a loop needs `check_for_loop()` first", part)
		}

		d := Derive{AppendMessage: &Message{Template: loopPartMessage, Vars: map[string]any{"part": part}}}
		switch part {
		case partIter:
			d.Trees = &Trees{Student: stu.Iter, Solution: sol.Iter}
		case partBody:
			d.Trees = &Trees{Student: stu.Body, Solution: sol.Body}
		case partOrElse:
			d.Trees = &Trees{Student: stu.OrElse, Solution: sol.OrElse}
		}
		if part != partIter {
			stuCtx := s.StudentContext().Enter(stu.TargetNames()...)
			solCtx := s.SolutionContext().Enter(sol.TargetNames()...)
			d.StudentContext, d.SolutionContext = &stuCtx, &solCtx
		}
		return s.ToChild(d), nil
	}
}

func loopOf(n ast.Node) (syntax.ForLoop, bool) {
	stmt, ok := n.(ast.Stmt)
	if !ok || syntax.IsNil(stmt) {
		return syntax.ForLoop{}, false
	}
	return syntax.SplitLoop(stmt)
}
