package syntax

import (
	"go/ast"
)

// ForLoop is a for statement split into the parts checks can target
type ForLoop struct {
	Node ast.Stmt
	// Targets are the loop variables: the key and value of a range loop,
	// or the identifiers assigned by the init statement of a three-clause loop
	Targets []*ast.Ident
	// Iter is the range expression, or the condition of a three-clause loop (nil for `for {}`)
	Iter ast.Node
	Body *ast.BlockStmt
	// OrElse is always empty: Go loops have no else clause
	OrElse *ast.BlockStmt
}

// TargetNames returns the names of the loop variables in declaration order
func (l ForLoop) TargetNames() []string {
	names := make([]string, len(l.Targets))
	for i, id := range l.Targets {
		names[i] = id.Name
	}
	return names
}

// ForLoops returns the for loops among the statements held directly by tree,
// in document order. Loops nested inside other statements are not included.
func ForLoops(tree ast.Node) []ForLoop {
	var out []ForLoop
	for _, stmt := range Statements(tree) {
		if loop, ok := SplitLoop(stmt); ok {
			out = append(out, loop)
		}
	}
	return out
}

// Statements returns the statement list directly held by tree.
// A single statement is its own list.
func Statements(tree ast.Node) []ast.Stmt {
	if IsNil(tree) {
		return nil
	}
	switch t := tree.(type) {
	case *Module:
		return t.Body()
	case *ast.BlockStmt:
		return t.List
	case *ast.FuncDecl:
		if t.Body == nil {
			return nil
		}
		return t.Body.List
	case *ast.FuncLit:
		return t.Body.List
	case *ast.CaseClause:
		return t.Body
	case *ast.CommClause:
		return t.Body
	case ast.Stmt:
		return []ast.Stmt{t}
	}
	return nil
}

// SplitLoop decomposes stmt if it is a (possibly labeled) for statement
func SplitLoop(stmt ast.Stmt) (ForLoop, bool) {
	for {
		labeled, ok := stmt.(*ast.LabeledStmt)
		if !ok {
			break
		}
		stmt = labeled.Stmt
	}

	switch s := stmt.(type) {
	case *ast.RangeStmt:
		loop := ForLoop{Node: s, Iter: s.X, Body: s.Body, OrElse: &ast.BlockStmt{}}
		for _, e := range []ast.Expr{s.Key, s.Value} {
			if id, ok := e.(*ast.Ident); ok {
				loop.Targets = append(loop.Targets, id)
			}
		}
		return loop, true
	case *ast.ForStmt:
		loop := ForLoop{Node: s, Body: s.Body, OrElse: &ast.BlockStmt{}}
		if s.Cond != nil {
			loop.Iter = s.Cond
		}
		if assign, ok := s.Init.(*ast.AssignStmt); ok {
			for _, lhs := range assign.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					loop.Targets = append(loop.Targets, id)
				}
			}
		}
		return loop, true
	}
	return ForLoop{}, false
}
