package runner

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cottand/gowhat/internal/log"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

var runnerLogger = log.DefaultLogger.With("section", "runner")

const DefaultTimeout = 5 * time.Second

// Binding is a variable declared before the snippet is evaluated
type Binding struct {
	Name  string
	Value any
}

// Result is what evaluating a snippet produced
type Result struct {
	// Value is the value of the snippet's last expression, if any
	Value any
	// Output is what the snippet wrote to stdout and stderr. Output of the program is not included.
	Output string
}

// Error is returned when the interpreter rejects or fails to run code
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Runner evaluates Go code with the yaegi interpreter. Every Run uses a fresh interpreter.
type Runner struct {
	Timeout time.Duration
}

func New(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run evaluates program, then declares bindings, then evaluates snippet
func (r *Runner) Run(ctx context.Context, program string, bindings []Binding, snippet string) (Result, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := &bytes.Buffer{}
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return Result{}, fmt.Errorf("error loading Go interpreter: %w", err)
	}

	if strings.TrimSpace(program) != "" {
		if _, err := i.EvalWithContext(ctx, program); err != nil {
			return Result{Output: out.String()}, &Error{Stage: "running program", Err: err}
		}
	}

	for _, b := range bindings {
		if b.Name == "_" || b.Name == "" {
			continue
		}
		lit, err := Literal(b.Value)
		if err != nil {
			return Result{}, &Error{Stage: "binding " + b.Name, Err: err}
		}
		// a name already declared by the program gets assigned instead
		if _, err := i.EvalWithContext(ctx, fmt.Sprintf("%s := %s", b.Name, lit)); err != nil {
			if _, err := i.EvalWithContext(ctx, fmt.Sprintf("%s = %s", b.Name, lit)); err != nil {
				return Result{}, &Error{Stage: "binding " + b.Name, Err: err}
			}
		}
	}

	out.Reset()
	v, err := i.EvalWithContext(ctx, snippet)
	res := Result{Output: out.String()}
	if err != nil {
		runnerLogger.Debug("snippet failed", "snippet", snippet, "err", err)
		return res, &Error{Stage: "running snippet", Err: err}
	}
	if v.IsValid() && v.CanInterface() {
		res.Value = v.Interface()
	}
	return res, nil
}
