package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		a, b  string
		equal bool
	}{
		{"x := 1 + 2", "x:=1+2", true},
		{"x := 1 // one", "x := 1", true},
		{`s := "a"`, "s := `a`", true},
		{"for i := range xs {\n\tprintln(i)\n}", "for i := range xs { println(i) }", true},
		{"x := 1 + 2", "x := 2 + 1", false},
		{"x := a - b", "x := a + b", false},
		{"x := 1", "x = 1", false},
		{"for i := range xs {}", "for j := range xs {}", false},
		{"i++", "i--", false},
		{"x := 1\ny := 2", "x := 1", false},
	}
	for _, c := range cases {
		t.Run(c.a+" vs "+c.b, func(t *testing.T) {
			a, b := MustParse("a.go", c.a), MustParse("b.go", c.b)
			assert.Equal(t, c.equal, Equal(a.Module, b.Module))
		})
	}
}

func TestHashIgnoresWrapping(t *testing.T) {
	script := MustParse("script.go", "println(1)")
	file := MustParse("file.go", "package main\n\nfunc main() {\n\tprintln(1)\n}\n")

	assert.Equal(t, Hash(script.Module), Hash(file.Module))
	assert.Equal(t, Hash(script.Module.Body()[0]), Hash(file.Module.Body()[0]))
	assert.NotEqual(t, Hash(script.Module), Hash(script.Module.Body()[0]))
}

func TestEqualKeepsFieldsApart(t *testing.T) {
	cases := []struct{ a, b string }{
		{`f("ab", "c")`, `f("a", "bc")`},
		{"f(ab, c)", "f(a, bc)"},
		{`x := "1" + 2`, `x := 1 + "2"`},
	}
	for _, c := range cases {
		t.Run(c.a, func(t *testing.T) {
			a, b := MustParse("a.go", c.a), MustParse("b.go", c.b)
			assert.False(t, Equal(a.Module, b.Module))
			assert.NotEqual(t, Hash(a.Module), Hash(b.Module))
		})
	}
}

func TestShape(t *testing.T) {
	src := MustParse("a.go", "x = -y")
	assert.Equal(t, []string{
		"Module",
		"(", "AssignStmt", "=",
		"(", "Ident", "x", ")",
		"(", "UnaryExpr", "-",
		"(", "Ident", "y", ")",
		")",
		")",
	}, Shape(src.Module))
	assert.Equal(t, []string{"nil"}, Shape(nil))
}
