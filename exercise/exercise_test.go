package exercise

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cottand/gowhat/sct"
	"github.com/cottand/gowhat/syntax"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumExercise = `
name: sum
timeout: 2s
student: |
  total := 0
  for i := range 10 {
      total -= i
  }
solution: |
  total := 0
  for i := range 10 {
      total += i
  }
sct:
  - test_for_loop:
      index: 1
      body:
        - has_code: {pattern: '+=', fixed: true, msg: 'Add ` + "`i`" + ` to ` + "`total`" + `.'}
`

func TestGrade(t *testing.T) {
	ex, err := Parse([]byte(sumExercise), "")
	require.NoError(t, err)
	assert.Equal(t, "sum", ex.Name)
	assert.Equal(t, Duration(2*time.Second), ex.Timeout)

	payload, err := ex.Grade(context.Background())
	require.NoError(t, err)

	want := sct.Payload{
		Correct: false,
		Message: "Check your code in the body of the 1st for loop. Add `i` to `total`.",
		Region:  &syntax.Region{LineStart: 2, ColumnStart: 19, LineEnd: 4, ColumnEnd: 1},
		Tags:    map[string]string{"fun": "has_code"},
	}
	if diff := cmp.Diff(want, payload, cmpopts.IgnoreFields(sct.Payload{}, "Tests")); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}
	assert.Positive(t, payload.Tests)

	ex.Student = ex.Solution
	payload, err = ex.Grade(context.Background())
	require.NoError(t, err)
	assert.True(t, payload.Correct)
	assert.Empty(t, payload.Message)
}

func TestGradeUnparsableSubmission(t *testing.T) {
	ex, err := Parse([]byte(sumExercise), "")
	require.NoError(t, err)
	ex.Student = "for i := range 10 {"

	payload, err := ex.Grade(context.Background())
	require.NoError(t, err)
	assert.False(t, payload.Correct)
	assert.Contains(t, payload.Message, "Your code could not be parsed")
	assert.Contains(t, payload.Message, "student.go:1:")
}

func TestGradeBrokenExercise(t *testing.T) {
	cases := map[string]string{
		"solution does not parse": "solution: 'x :='\nstudent: 'x := 1'",
		"unknown check":           "solution: 'x := 1'\nstudent: 'x := 1'\nsct: [nope]",
		"authoring error":         "solution: 'x := 1'\nstudent: 'x := 1'\nsct: [check_or: []]",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			ex, err := Parse([]byte(src), "")
			require.NoError(t, err)
			_, err = ex.Grade(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestGradeOutput(t *testing.T) {
	ex, err := Parse([]byte(`
student: |
  import "fmt"
  fmt.Println(1 + 2)
solution: |
  import "fmt"
  fmt.Println(3)
sct: [has_equal_output]
`), "")
	require.NoError(t, err)

	payload, err := ex.Grade(context.Background())
	require.NoError(t, err)
	assert.True(t, payload.Correct, payload.Message)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "student.go"), []byte("x := 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solution.go"), []byte("x := 2"), 0o644))
	path := filepath.Join(dir, "ex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: files\nstudent_file: student.go\nsolution_file: solution.go\nsct: [has_equal_ast]\n"), 0o644))

	ex, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x := 1", ex.Student)
	assert.Equal(t, "x := 2", ex.Solution)

	payload, err := ex.Grade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Expected `x := 2`, but got `x := 1`.", payload.Message)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDurationErrors(t *testing.T) {
	_, err := Parse([]byte("name: slow\ntimeout: soon\n"), "")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 2, decodeErr.Line)
}
