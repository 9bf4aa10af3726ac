package sct

import (
	"fmt"
	"go/ast"
	"maps"
	"reflect"
	"slices"
	"sort"

	"github.com/cottand/gowhat/syntax"
	"github.com/xtgo/set"
)

// Fail always fails with msg, rendered through the message stack of the State.
// Useful while writing checks, to see how far a chain gets.
func Fail(msg string) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		return rep.DoTest(FeedbackTest{Feedback: NewFeedback(s.BuildMessage(msg, nil), s)})
	}
}

// Override replaces the solution subtree with code for the rest of the chain.
//
// When the current solution subtree is not a whole program and code is a single
// statement, the statement (or, for an expression statement, its expression) of the
// same node type as the current subtree is used instead, so that overriding an
// expression with "1 + 2" yields the expression and not a program.
func Override(code string) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		src, err := syntax.Parse("override", code)
		if err != nil {
			return nil, Authoring(InvalidOverride, "`override()` could not parse the code: %v", err)
		}
		var replacement ast.Node = src.Module
		old := s.SolutionTree()
		if _, isModule := old.(*syntax.Module); !isModule && !syntax.IsNil(old) && len(src.Module.Body()) == 1 {
			stmt := src.Module.Body()[0]
			candidates := []ast.Node{stmt}
			if exprStmt, ok := stmt.(*ast.ExprStmt); ok {
				candidates = append(candidates, exprStmt.X)
			}
			for _, candidate := range candidates {
				if reflect.TypeOf(candidate) == reflect.TypeOf(old) {
					replacement = candidate
					break
				}
			}
		}

		var vars map[string]any
		if msgs := s.Messages(); len(msgs) > 0 {
			vars = maps.Clone(msgs[len(msgs)-1].Vars)
		}
		return s.ToChild(Derive{
			Trees:          &Trees{Student: s.StudentTree(), Solution: replacement},
			SolutionSource: src,
			Highlight:      s.highlight,
			AppendMessage:  &Message{Vars: vars},
		}), nil
	}
}

// SetContext binds the variables of the innermost loop by position, in the
// student and solution contexts independently. Addressing by position
// tolerates a student naming a loop variable differently from the solution.
func SetContext(args ...any) Check {
	return SetContextArgs(args, nil)
}

// SetContextNamed binds context names as they are called in the solution.
// Each name is translated to the student's name at the same position.
func SetContextNamed(kwargs map[string]any) Check {
	return SetContextArgs(nil, kwargs)
}

// SetContextArgs is SetContext and SetContextNamed in one, supplying both
// positional and named values is an authoring error
func SetContextArgs(args []any, kwargs map[string]any) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		stuCurrent, solCurrent := s.StudentContext(), s.SolutionContext()
		stuNames, solNames := stuCurrent.Scope(), solCurrent.Scope()

		if len(args) > 0 && len(kwargs) > 0 {
			return nil, Authoring(MixedContextArgs, "in `set_context()`, specify arguments either by position, either by name")
		}

		stu, sol := stuCurrent, solCurrent
		if len(args) > 0 {
			if len(args) > len(solNames) {
				return nil, Authoring(TooManyPositionalArgs,
					"too many positional args. There are %d context vals, but tried to set %d", len(solNames), len(args))
			}
			for i, v := range args {
				sol = sol.Set(solNames[i], v)
				// excess values are unused on the student side
				if i < len(stuNames) {
					stu = stu.Set(stuNames[i], v)
				}
			}
		}

		if len(kwargs) > 0 {
			names := slices.Sorted(maps.Keys(kwargs))
			if unknown := missingFrom(names, solNames); len(unknown) > 0 {
				valid := "missing"
				if len(solNames) > 0 {
					valid = fmt.Sprint(solNames)
				}
				return nil, Authoring(UnknownContextName,
					"`set_context()` failed: context val names are %s, but you tried to set %v", valid, names)
			}
			for _, name := range names {
				sol = sol.Set(name, kwargs[name])
				if i := slices.Index(solNames, name); i < len(stuNames) {
					stu = stu.Set(stuNames[i], kwargs[name])
				}
			}
		}

		return s.ToChild(Derive{StudentContext: &stu, SolutionContext: &sol}), nil
	}
}

// missingFrom returns the sorted names not present in available
func missingFrom(names, available []string) []string {
	data := make(sort.StringSlice, 0, len(names)+len(available))
	data = append(data, names...)
	pivot := set.Uniq(data)
	data = data[:pivot]

	other := sort.StringSlice(slices.Clone(available))
	sort.Sort(other)
	other = other[:set.Uniq(other)]

	data = append(data, other...)
	size := set.Diff(data, pivot)
	return data[:size]
}

// SetEnv binds names in the student and solution environments. Unlike
// SetContext the names are not validated; they only take effect once a check runs code.
func SetEnv(env map[string]any) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		stu, sol := s.StudentEnv(), s.SolutionEnv()
		for _, name := range slices.Sorted(maps.Keys(env)) {
			stu = stu.Set(name, env[name])
			sol = sol.Set(name, env[name])
		}
		return s.ToChild(Derive{StudentEnv: &stu, SolutionEnv: &sol}), nil
	}
}

// DisableHighlighting stops feedback of the rest of the chain from marking student code
func DisableHighlighting() Check {
	return func(rep *Reporter, s *State) (*State, error) {
		return s.ToChild(Derive{DisableHighlighting: true}), nil
	}
}
