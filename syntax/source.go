package syntax

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"reflect"
	"strings"
	"sync/atomic"
)

const (
	scriptPrelude = "package main\n"
	mainOpen      = "\nfunc main() {\n"
	mainClose     = "\n}\n"
)

// Module is the root node of every parsed program.
//
// A script (optional imports followed by statements) is parsed as the body
// of a synthetic main function; a source starting with a package clause is
// parsed as a regular file.
type Module struct {
	File  *ast.File
	Stmts []ast.Stmt

	script   bool
	from, to token.Pos
}

func (m *Module) Pos() token.Pos { return m.from }
func (m *Module) End() token.Pos { return m.to }

// IsScript reports whether the module was written as a bare statement list
func (m *Module) IsScript() bool { return m.script }

// Body returns the statements at the top level of the module.
// For full files, these are the statements of every function body, in declaration order.
func (m *Module) Body() []ast.Stmt {
	if m.script {
		return m.Stmts
	}
	var out []ast.Stmt
	for _, decl := range m.File.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Body != nil {
			out = append(out, fd.Body.List...)
		}
	}
	return out
}

// Source is a parsed program together with the text it was parsed from
type Source struct {
	Name   string
	Code   string
	Fset   *token.FileSet
	Module *Module

	file *token.File
	// offsets used to map positions in the wrapped script back into Code
	script                         bool
	headerBase, bodyBase, bodyOrig int
}

// Region is a 1-based, inclusive span of the original source text
type Region struct {
	LineStart   int `json:"line_start"`
	ColumnStart int `json:"column_start"`
	LineEnd     int `json:"line_end"`
	ColumnEnd   int `json:"column_end"`
}

func (r Region) String() string {
	if r.LineStart == r.LineEnd {
		return fmt.Sprintf("%d:%d-%d", r.LineStart, r.ColumnStart, r.ColumnEnd)
	}
	return fmt.Sprintf("%d:%d-%d:%d", r.LineStart, r.ColumnStart, r.LineEnd, r.ColumnEnd)
}

// Parse parses code into a Source named name.
// Positions in parse errors refer to code, not to the wrapped script.
func Parse(name, code string) (*Source, error) {
	if isFile(code) {
		fset := newFileSet(len(code))
		f, err := parser.ParseFile(fset, name, code, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		src := &Source{Name: name, Code: code, Fset: fset, file: fset.File(f.Pos())}
		src.Module = &Module{
			File: f,
			from: token.Pos(src.file.Base()),
			to:   token.Pos(src.file.Base() + src.file.Size()),
		}
		return src, nil
	}

	header := importHeaderLen(code)
	wrapped := scriptPrelude + code[:header] + mainOpen + code[header:] + mainClose
	fset := newFileSet(len(wrapped))
	src := &Source{
		Name:       name,
		Code:       code,
		Fset:       fset,
		script:     true,
		headerBase: len(scriptPrelude),
		bodyBase:   len(scriptPrelude) + header + len(mainOpen),
		bodyOrig:   header,
	}
	f, err := parser.ParseFile(fset, name, wrapped, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, src.parseError(err)
	}
	src.file = fset.File(f.Pos())
	main, ok := f.Decls[len(f.Decls)-1].(*ast.FuncDecl)
	if !ok || main.Body == nil {
		return nil, fmt.Errorf("parse %s: script did not produce a body", name)
	}
	src.Module = &Module{
		File:   f,
		Stmts:  main.Body.List,
		script: true,
		from:   src.file.Pos(src.headerBase),
		to:     src.file.Pos(src.bodyBase + len(code) - header),
	}
	return src, nil
}

// MustParse is like Parse but panics on error. Meant for tests and static fixtures.
func MustParse(name, code string) *Source {
	src, err := Parse(name, code)
	if err != nil {
		panic(err)
	}
	return src
}

// nextBase hands out position ranges so that no two Sources share positions,
// which lets Owns tell which Source a node was parsed from
var nextBase atomic.Int64

// newFileSet returns a FileSet whose next file of up to size bytes gets positions no other Source uses
func newFileSet(size int) *token.FileSet {
	span := int64(size) + 2
	base := nextBase.Add(span) - span + 1
	fset := token.NewFileSet()
	fset.AddFile("", int(base), 0)
	return fset
}

func isFile(code string) bool {
	_, err := parser.ParseFile(token.NewFileSet(), "", code, parser.PackageClauseOnly)
	return err == nil
}

// importHeaderLen returns the length of the leading import declarations of a script
func importHeaderLen(code string) int {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", scriptPrelude+code, parser.ImportsOnly)
	if err != nil || len(f.Decls) == 0 {
		return 0
	}
	end := fset.Position(f.Decls[len(f.Decls)-1].End()).Offset - len(scriptPrelude)
	return max(0, min(end, len(code)))
}

func (s *Source) parseError(err error) error {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return fmt.Errorf("parse %s: %w", s.Name, err)
	}
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		line, col := s.lineCol(s.origOffset(e.Pos.Offset))
		msgs = append(msgs, fmt.Sprintf("%s:%d:%d: %s", s.Name, line, col, e.Msg))
	}
	return fmt.Errorf("parse %s: %s", s.Name, strings.Join(msgs, "; "))
}

func (s *Source) origOffset(off int) int {
	if !s.script {
		return max(0, min(off, len(s.Code)))
	}
	if off >= s.bodyBase {
		return max(s.bodyOrig, min(off-s.bodyBase+s.bodyOrig, len(s.Code)))
	}
	return max(0, min(off-s.headerBase, s.bodyOrig))
}

func (s *Source) lineCol(off int) (line, col int) {
	line = 1 + strings.Count(s.Code[:off], "\n")
	col = off - strings.LastIndexByte(s.Code[:off], '\n')
	return line, col
}

// Owns reports whether n was parsed from this Source
func (s *Source) Owns(n ast.Node) bool {
	if s == nil || s.file == nil || IsNil(n) || !n.Pos().IsValid() {
		return false
	}
	base := s.file.Base()
	return int(n.Pos()) >= base && int(n.End()) <= base+s.file.Size()
}

func (s *Source) span(n ast.Node) (start, end int, ok bool) {
	if !s.Owns(n) {
		return 0, 0, false
	}
	start = s.origOffset(s.file.Offset(n.Pos()))
	end = s.origOffset(s.file.Offset(n.End()))
	return start, max(start, end), true
}

// Region returns the span of n in the original text, or nil when n
// has no position in this Source
func (s *Source) Region(n ast.Node) *Region {
	start, end, ok := s.span(n)
	if !ok {
		return nil
	}
	if end > start {
		end--
	}
	r := &Region{}
	r.LineStart, r.ColumnStart = s.lineCol(start)
	r.LineEnd, r.ColumnEnd = s.lineCol(end)
	return r
}

// Text returns the original text of n, falling back to its printed form
// for nodes that were not parsed from this Source
func (s *Source) Text(n ast.Node) string {
	if m, ok := n.(*Module); ok && m == s.Module {
		return s.Code
	}
	if start, end, ok := s.span(n); ok {
		return s.Code[start:end]
	}
	return s.Print(n)
}

// Print renders n the way gofmt would
func (s *Source) Print(n ast.Node) string {
	if IsNil(n) {
		return ""
	}
	if m, ok := n.(*Module); ok {
		if m == s.Module {
			return s.Code
		}
		n = m.File
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, s.Fset, n); err != nil {
		return fmt.Sprintf("%T", n)
	}
	return buf.String()
}

// IsNil reports whether n is nil or a typed nil pointer
func IsNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
