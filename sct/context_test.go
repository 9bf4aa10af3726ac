package sct

import (
	"go/ast"
	"testing"

	"github.com/cottand/gowhat/syntax"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inLoopBody returns a State looking at the body of the first loop, with the loop variables in context
func inLoopBody(t *testing.T, student, solution string) *State {
	t.Helper()
	s, err := Chain(CheckForLoop(1), CheckBody())(NewReporter(), newState(t, student, solution))
	require.NoError(t, err)
	return s
}

func TestSetContextPositional(t *testing.T) {
	s := inLoopBody(t,
		"for j, y := range xs { _ = j * y }",
		"for i, x := range xs { _ = i * x }",
	)
	require.Equal(t, []string{"j", "y"}, s.StudentContext().Names())
	require.Equal(t, []string{"i", "x"}, s.SolutionContext().Names())

	got, err := SetContext(1, "b")(NewReporter(), s)
	require.NoError(t, err)

	if diff := cmp.Diff([]Binding{{"j", 1}, {"y", "b"}}, got.StudentContext().Bound()); diff != "" {
		t.Errorf("student context (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Binding{{"i", 1}, {"x", "b"}}, got.SolutionContext().Bound()); diff != "" {
		t.Errorf("solution context (-want +got):\n%s", diff)
	}
	assert.Empty(t, s.StudentContext().Bound(), "parent state is left untouched")
}

func TestSetContextTooManyPositional(t *testing.T) {
	s := inLoopBody(t, "for i := range 3 { _ = i }", "for i := range 3 { _ = i }")

	_, err := SetContext(1, 2)(NewReporter(), s)
	authErr := requireAuthoring(t, err, TooManyPositionalArgs)
	assert.Contains(t, authErr.Message, "too many positional args")
	assert.Contains(t, authErr.Message, "There are 1 context vals, but tried to set 2")
}

func TestSetContextNamed(t *testing.T) {
	s := inLoopBody(t,
		"for j, y := range xs { _ = j * y }",
		"for i, x := range xs { _ = i * x }",
	)

	t.Run("translated to student names", func(t *testing.T) {
		got, err := SetContextNamed(map[string]any{"x": 5})(NewReporter(), s)
		require.NoError(t, err)
		v, ok := got.StudentContext().Get("y")
		require.True(t, ok)
		assert.Equal(t, 5, v)
		_, ok = got.StudentContext().Get("j")
		assert.False(t, ok)
		v, _ = got.SolutionContext().Get("x")
		assert.Equal(t, 5, v)
	})

	t.Run("unknown name", func(t *testing.T) {
		single := inLoopBody(t, "for i := range 3 { _ = i }", "for i := range 3 { _ = i }")
		_, err := SetContextNamed(map[string]any{"x": 5})(NewReporter(), single)
		authErr := requireAuthoring(t, err, UnknownContextName)
		assert.Contains(t, authErr.Message, "context val names are [i]")
		assert.Contains(t, authErr.Message, "[x]")
	})

	t.Run("no context", func(t *testing.T) {
		_, err := SetContextNamed(map[string]any{"x": 5})(NewReporter(), newState(t, "a := 1", "a := 1"))
		authErr := requireAuthoring(t, err, UnknownContextName)
		assert.Contains(t, authErr.Message, "missing")
	})

	t.Run("mixed", func(t *testing.T) {
		_, err := SetContextArgs([]any{1}, map[string]any{"i": 1})(NewReporter(), s)
		authErr := requireAuthoring(t, err, MixedContextArgs)
		assert.Equal(t, "in `set_context()`, specify arguments either by position, either by name", authErr.Message)
	})
}

func TestMissingFrom(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, missingFrom([]string{"a", "b", "c"}, []string{"d", "b"}))
	assert.Empty(t, missingFrom([]string{"b"}, []string{"b", "a"}))
}

func TestSetEnv(t *testing.T) {
	s := newState(t, "a := 1", "a := 1")
	got, err := SetEnv(map[string]any{"n": 3, "name": "go"})(NewReporter(), s)
	require.NoError(t, err)

	want := []Binding{{"n", 3}, {"name", "go"}}
	assert.Equal(t, want, got.StudentEnv().Bound())
	assert.Equal(t, want, got.SolutionEnv().Bound())
	assert.Zero(t, got.StudentContext().Len(), "the context is not touched")
}

func TestOverride(t *testing.T) {
	rhs := func(t *testing.T, src string) (*State, ast.Expr) {
		s := newState(t, src, src)
		return s, s.SolutionTree().(*syntax.Module).Body()[0].(*ast.AssignStmt).Rhs[0]
	}

	t.Run("expression slot", func(t *testing.T) {
		s, expr := rhs(t, "y := 1 + 1")
		s = s.ToChild(Derive{Trees: &Trees{Student: s.StudentTree().(*syntax.Module).Body()[0].(*ast.AssignStmt).Rhs[0], Solution: expr}})

		got, err := Override("1+2")(NewReporter(), s)
		require.NoError(t, err)
		assert.IsType(t, &ast.BinaryExpr{}, got.SolutionTree())
		assert.Equal(t, "1+2", got.SolutionText())
		assert.Same(t, s.StudentTree(), got.StudentTree())
		assert.Equal(t, s.Highlight(), got.Highlight())
		assert.Same(t, s.SolutionProgram(), got.SolutionProgram(), "only the subtree is replaced")
	})

	t.Run("statement slot", func(t *testing.T) {
		s := newState(t, "y := 1", "y := 1")
		stmt := s.SolutionTree().(*syntax.Module).Body()[0]
		s = s.ToChild(Derive{Trees: &Trees{Student: s.StudentTree().(*syntax.Module).Body()[0], Solution: stmt}})

		got, err := Override("y := 2")(NewReporter(), s)
		require.NoError(t, err)
		assert.IsType(t, &ast.AssignStmt{}, got.SolutionTree())
	})

	t.Run("whole program", func(t *testing.T) {
		s := newState(t, "y := 1", "y := 1")
		got, err := Override("y := 1 + 2")(NewReporter(), s)
		require.NoError(t, err)
		assert.IsType(t, &syntax.Module{}, got.SolutionTree())
		assert.Equal(t, "y := 1 + 2", got.SolutionText())
	})

	t.Run("keeps message variables", func(t *testing.T) {
		s, err := CheckForLoop(1)(NewReporter(), newState(t, "for range 3 {}", "for range 3 {}"))
		require.NoError(t, err)
		got, err := Override("for range 4 {}")(NewReporter(), s)
		require.NoError(t, err)
		assert.Equal(t, "the 1st for loop", got.BuildMessage("the {{.ordinal}} {{.construct}}", nil))
	})

	t.Run("invalid code", func(t *testing.T) {
		_, err := Override("1 +")(NewReporter(), newState(t, "y := 1", "y := 1"))
		requireAuthoring(t, err, InvalidOverride)
	})
}

func TestDisableHighlighting(t *testing.T) {
	s := newState(t, twoLoops, twoLoops)

	payload, err := Run(NewReporter(), s, Chain(CheckForLoop(1), CheckBody(), Fail("wrong")))
	require.NoError(t, err)
	assert.Equal(t, &syntax.Region{LineStart: 3, ColumnStart: 22, LineEnd: 5, ColumnEnd: 1}, payload.Region)

	payload, err = Run(NewReporter(), s, Chain(DisableHighlighting(), CheckForLoop(1), CheckBody(), Fail("wrong")))
	require.NoError(t, err)
	assert.False(t, payload.Correct)
	assert.Nil(t, payload.Region)
}

func TestSetContextNestedLoops(t *testing.T) {
	s, err := Chain(CheckForLoop(1), CheckBody(), CheckForLoop(1), CheckBody())(NewReporter(), newState(t,
		"for a := range 3 {\n\tfor b := range a {\n\t\tprintln(a, b)\n\t}\n}",
		"for i := range 3 {\n\tfor j := range i {\n\t\tprintln(i, j)\n\t}\n}",
	))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, s.StudentContext().Names())
	require.Equal(t, []string{"j"}, s.SolutionContext().Scope())

	t.Run("positional binds the inner loop", func(t *testing.T) {
		got, err := SetContext(7)(NewReporter(), s)
		require.NoError(t, err)
		assert.Equal(t, []Binding{{"b", 7}}, got.StudentContext().Bound())
		assert.Equal(t, []Binding{{"j", 7}}, got.SolutionContext().Bound())
	})

	t.Run("outer variables do not count", func(t *testing.T) {
		_, err := SetContext(7, 8)(NewReporter(), s)
		authErr := requireAuthoring(t, err, TooManyPositionalArgs)
		assert.Contains(t, authErr.Message, "There are 1 context vals, but tried to set 2")
	})

	t.Run("named", func(t *testing.T) {
		got, err := SetContextNamed(map[string]any{"j": 2})(NewReporter(), s)
		require.NoError(t, err)
		assert.Equal(t, []Binding{{"b", 2}}, got.StudentContext().Bound())

		_, err = SetContextNamed(map[string]any{"i": 2})(NewReporter(), s)
		authErr := requireAuthoring(t, err, UnknownContextName)
		assert.Contains(t, authErr.Message, "context val names are [j]")
	})

	t.Run("inside test_for_loop", func(t *testing.T) {
		var seen *State
		_, err := Chain(CheckForLoop(1), CheckBody(), TestForLoop(ForLoopChecks{
			Index: 1,
			Body:  Chain(SetContext(4), spy(func(s *State) { seen = s })),
		}))(NewReporter(), newState(t, nestedLoops, nestedLoops))
		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, []Binding{{"j", 4}}, seen.SolutionContext().Bound())
	})
}
