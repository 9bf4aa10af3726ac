package checks

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"reflect"

	"github.com/cottand/gowhat/runner"
	"github.com/cottand/gowhat/sct"
	"github.com/cottand/gowhat/syntax"
)

const (
	defaultValueMsg  = "Expected {{.sol}}, but got {{.stu}}."
	defaultOutputMsg = "Expected the output `{{.sol}}`, but got `{{.stu}}`."
	runErrorMsg      = "Running your code generated an error: `{{.err}}`."
)

// Runner evaluates a snippet after a program, with bindings declared in between
type Runner interface {
	Run(ctx context.Context, program string, bindings []runner.Binding, snippet string) (runner.Result, error)
}

// HasEqualValue evaluates the student and solution expressions, with the
// environment and the bound context values declared, and compares the results
func HasEqualValue(run Runner, msg string) sct.Check {
	return func(rep *sct.Reporter, s *sct.State) (*sct.State, error) {
		rep.SetTag("fun", "has_equal_value")
		stuExpr, solExpr := expression(s.StudentTree()), expression(s.SolutionTree())
		if stuExpr == nil || solExpr == nil {
			return nil, sct.Authoring(sct.NotAnExpression, "`has_equal_value()` needs an expression, the current code is a statement")
		}

		stu, sol, err := runBoth(rep.Context(), run, s, stuExpr, solExpr)
		var runErr *studentRunError
		if errors.As(err, &runErr) {
			return fail(rep, s, runErrorMsg, map[string]any{"err": runErr.err.Error()})
		}
		if err != nil {
			return nil, err
		}
		if sameValue(stu.Value, sol.Value) {
			return s, nil
		}
		if msg == "" {
			msg = defaultValueMsg
		}
		return fail(rep, s, msg, map[string]any{
			"stu": fmt.Sprintf("%#v", stu.Value),
			"sol": fmt.Sprintf("%#v", sol.Value),
		})
	}
}

// HasEqualOutput runs the student and solution code of the current subtree,
// with the environment and the bound context values declared, and compares what they print
func HasEqualOutput(run Runner, msg string) sct.Check {
	return func(rep *sct.Reporter, s *sct.State) (*sct.State, error) {
		rep.SetTag("fun", "has_equal_output")

		stu, sol, err := runBoth(rep.Context(), run, s, s.StudentTree(), s.SolutionTree())
		var runErr *studentRunError
		if errors.As(err, &runErr) {
			return fail(rep, s, runErrorMsg, map[string]any{"err": runErr.err.Error()})
		}
		if err != nil {
			return nil, err
		}
		if stu.Output == sol.Output {
			return s, nil
		}
		if msg == "" {
			msg = defaultOutputMsg
		}
		return fail(rep, s, msg, map[string]any{
			"stu": compact(stu.Output),
			"sol": compact(sol.Output),
		})
	}
}

type studentRunError struct{ err error }

func (e *studentRunError) Error() string { return e.err.Error() }
func (e *studentRunError) Unwrap() error { return e.err }

// runBoth runs the solution first: the solution failing is an authoring error,
// the student failing is reported as a studentRunError
func runBoth(ctx context.Context, run Runner, s *sct.State, stuNode, solNode ast.Node) (stu, sol runner.Result, err error) {
	solProgram, solSnippet := snippet(s.SolutionProgram(), s.SolutionSource(), solNode)
	sol, err = run.Run(ctx, solProgram, bindings(s.SolutionEnv(), s.SolutionContext()), solSnippet)
	if err != nil {
		return stu, sol, sct.Authoring(sct.SolutionFailed, "running the solution failed: %v", err)
	}

	stuProgram, stuSnippet := snippet(s.StudentProgram(), s.StudentProgram(), stuNode)
	stu, err = run.Run(ctx, stuProgram, bindings(s.StudentEnv(), s.StudentContext()), stuSnippet)
	if err != nil {
		return stu, sol, &studentRunError{err: err}
	}
	return stu, sol, nil
}

// snippet returns the program to run before the code of n, and that code.
// A whole program is run on its own.
func snippet(program, owner *syntax.Source, n ast.Node) (string, string) {
	if m, ok := n.(*syntax.Module); ok {
		return "", owner.Text(m)
	}
	return program.Code, owner.Text(n)
}

// expression returns the expression held by n, or nil when n is a statement
func expression(n ast.Node) ast.Expr {
	n = unwrap(n)
	if syntax.IsNil(n) {
		return nil
	}
	e, _ := n.(ast.Expr)
	return e
}

func bindings(env, contextVals sct.Bindings) []runner.Binding {
	var out []runner.Binding
	for _, b := range env.Bound() {
		out = append(out, runner.Binding{Name: b.Name, Value: b.Value})
	}
	for _, b := range contextVals.Bound() {
		out = append(out, runner.Binding{Name: b.Name, Value: b.Value})
	}
	return out
}

func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	// values of types declared by the interpreted code come from distinct interpreters
	return fmt.Sprintf("%T %#v", a, a) == fmt.Sprintf("%T %#v", b, b)
}
