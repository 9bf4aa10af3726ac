package sct

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrCode int

const (
	None ErrCode = iota
	MixedContextArgs
	TooManyPositionalArgs
	UnknownContextName
	InvalidOverride
	InvalidIndex
	MissingSolutionPart
	NotAnExpression
	EmptyCheckOr
	NotALoop
	InvalidPattern
	SolutionFailed
)

// AuthoringError is raised for malformed checks. It is never caused by a
// submission and combinators never catch it.
type AuthoringError struct {
	Code    ErrCode
	Message string
}

func (e *AuthoringError) Error() string {
	return fmt.Sprintf("(A%03d) %s", e.Code, e.Message)
}

// Authoring returns an *AuthoringError carrying the stack of the caller
func Authoring(code ErrCode, format string, args ...any) error {
	return errors.WithStack(&AuthoringError{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Failure is the error a check returns when the submission does not pass it
type Failure struct {
	Feedback *Feedback
}

func (f *Failure) Error() string {
	if f.Feedback == nil {
		return "check failed"
	}
	return f.Feedback.Message
}

// failure wraps fb into a *Failure
func failure(fb *Feedback) error {
	return &Failure{Feedback: fb}
}

// AsFailure returns the feedback of err if err is a *Failure
func AsFailure(err error) (*Feedback, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Feedback, true
	}
	return nil, false
}

// IsAuthoring reports whether err is (or wraps) an *AuthoringError
func IsAuthoring(err error) bool {
	var a *AuthoringError
	return errors.As(err, &a)
}
