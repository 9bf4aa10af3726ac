package sct

import (
	"testing"

	"github.com/cottand/gowhat/syntax"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, name, code string) *syntax.Source {
	t.Helper()
	src, err := syntax.Parse(name, code)
	require.NoError(t, err)
	return src
}

func newState(t *testing.T, student, solution string) *State {
	t.Helper()
	return NewState(Config{
		Student:  parse(t, "student.go", student),
		Solution: parse(t, "solution.go", solution),
	})
}

// pass returns a child State, so that callers can tell whether it was kept
func pass() Check {
	return func(rep *Reporter, s *State) (*State, error) {
		return s.ToChild(Derive{}), nil
	}
}

// counting wraps check and counts how often it ran
type counting struct {
	calls int
}

func (c *counting) wrap(check Check) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		c.calls++
		return check(rep, s)
	}
}

func requireFailure(t *testing.T, err error) *Feedback {
	t.Helper()
	fb, ok := AsFailure(err)
	require.True(t, ok, "expected a check failure, got %v", err)
	return fb
}

func requireAuthoring(t *testing.T, err error, code ErrCode) *AuthoringError {
	t.Helper()
	var authErr *AuthoringError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, code, authErr.Code)
	return authErr
}
