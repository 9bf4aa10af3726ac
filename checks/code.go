package checks

import (
	"go/ast"
	"regexp"
	"strings"

	"github.com/cottand/gowhat/internal/log"
	"github.com/cottand/gowhat/sct"
	"github.com/cottand/gowhat/syntax"
)

var checksLogger = log.DefaultLogger.With("section", "checks")

const (
	defaultCodeMsg = "Could not find the correct pattern in your code."
	defaultASTMsg  = "Expected `{{.sol}}`, but got `{{.stu}}`."
)

// fail reports msg, rendered through the message stack of s, as the failure of the current check
func fail(rep *sct.Reporter, s *sct.State, msg string, vars map[string]any) (*sct.State, error) {
	return rep.DoTest(sct.FeedbackTest{Feedback: sct.NewFeedback(s.BuildMessage(msg, vars), s)})
}

type CodeOpts struct {
	Pattern string
	// Fixed matches Pattern as a plain substring instead of a regular expression
	Fixed bool
	Msg   string
}

// HasCode passes when the student code of the current subtree contains opts.Pattern
func HasCode(opts CodeOpts) sct.Check {
	return func(rep *sct.Reporter, s *sct.State) (*sct.State, error) {
		rep.SetTag("fun", "has_code")
		text := s.StudentText()

		var found bool
		if opts.Fixed {
			found = strings.Contains(text, opts.Pattern)
		} else {
			re, err := regexp.Compile(opts.Pattern)
			if err != nil {
				return nil, sct.Authoring(sct.InvalidPattern, "`has_code()` pattern %q is invalid: %v", opts.Pattern, err)
			}
			found = re.MatchString(text)
		}
		if found {
			return s, nil
		}
		msg := opts.Msg
		if msg == "" {
			msg = defaultCodeMsg
		}
		return fail(rep, s, msg, map[string]any{"pattern": opts.Pattern})
	}
}

type ASTOpts struct {
	// Code replaces the solution subtree as the expected code
	Code string
	// Partial passes when the expected code is found anywhere in the student subtree
	Partial bool
	Msg     string
}

// HasEqualAST compares the structure of the student and solution subtrees,
// ignoring formatting and comments
func HasEqualAST(opts ASTOpts) sct.Check {
	return func(rep *sct.Reporter, s *sct.State) (*sct.State, error) {
		rep.SetTag("fun", "has_equal_ast")

		expected, expectedText := s.SolutionTree(), s.SolutionText()
		if opts.Code != "" {
			src, err := syntax.Parse("expected", opts.Code)
			if err != nil {
				return nil, sct.Authoring(sct.InvalidOverride, "`has_equal_ast()` could not parse the code: %v", err)
			}
			expected, expectedText = src.Module, opts.Code
		}
		student := unwrap(s.StudentTree())
		expected = unwrap(expected)

		var ok bool
		if opts.Partial {
			ok = containsAll(student, expected)
		} else {
			ok = syntax.Equal(student, expected)
		}
		checksLogger.Debug("compared trees", "equal", ok, "student", syntax.Slog(s.StudentProgram(), student))
		if ok {
			return s, nil
		}

		msg := opts.Msg
		if msg == "" {
			msg = defaultASTMsg
		}
		return fail(rep, s, msg, map[string]any{
			"stu": compact(s.StudentText()),
			"sol": compact(expectedText),
		})
	}
}

// unwrap reduces a program of a single statement to that statement,
// and an expression statement to its expression
func unwrap(n ast.Node) ast.Node {
	if m, ok := n.(*syntax.Module); ok {
		if body := m.Body(); len(body) == 1 {
			n = body[0]
		}
	}
	if exprStmt, ok := n.(*ast.ExprStmt); ok {
		return exprStmt.X
	}
	return n
}

func containsAll(haystack, needle ast.Node) bool {
	needles := []ast.Node{needle}
	if m, ok := needle.(*syntax.Module); ok {
		needles = needles[:0]
		for _, stmt := range m.Body() {
			needles = append(needles, unwrap(stmt))
		}
	}
	for _, n := range needles {
		if !contains(haystack, n) {
			return false
		}
	}
	return true
}

// contains reports whether a subtree of haystack is structurally equal to needle.
// Hashes only preselect the candidates.
func contains(haystack, needle ast.Node) bool {
	want := syntax.Hash(needle)
	roots := []ast.Node{haystack}
	if m, ok := haystack.(*syntax.Module); ok {
		roots = roots[:0]
		for _, stmt := range m.Body() {
			roots = append(roots, stmt)
		}
	}
	found := false
	for _, root := range roots {
		if syntax.IsNil(root) {
			continue
		}
		ast.Inspect(root, func(n ast.Node) bool {
			if found || n == nil {
				return false
			}
			found = syntax.Hash(n) == want && syntax.Equal(n, needle)
			return !found
		})
	}
	return found
}

func compact(code string) string {
	return strings.Join(strings.Fields(code), " ")
}
