package syntax

import (
	"encoding/binary"
	"go/ast"
	"go/token"
	"hash/fnv"
	"reflect"
	"slices"
	"strconv"
)

// Hash returns a hash of the structure of n: node kinds, identifier names,
// literal values and operators. Positions, comments and formatting are ignored,
// so two nodes parsed from differently formatted but equivalent code hash equally.
// Equal nodes hash equally, the reverse does not hold.
func Hash(n ast.Node) uint64 {
	h := fnv.New64a()
	var buf []byte
	for _, atom := range Shape(n) {
		buf = binary.AppendUvarint(buf[:0], uint64(len(atom)))
		buf = append(buf, atom...)
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

// Equal reports whether a and b are structurally equal
func Equal(a, b ast.Node) bool {
	return slices.Equal(Shape(a), Shape(b))
}

// Shape flattens the structure of n into the atoms Hash and Equal compare:
// an opening and a closing marker around each node, its kind, and the
// names, literal values and operators it carries.
func Shape(n ast.Node) []string {
	if m, ok := n.(*Module); ok {
		atoms := []string{"Module"}
		for _, stmt := range m.Body() {
			atoms = appendShape(atoms, stmt)
		}
		return atoms
	}
	return appendShape(nil, n)
}

func appendShape(atoms []string, n ast.Node) []string {
	if IsNil(n) {
		return append(atoms, "nil")
	}
	ast.Inspect(n, func(n ast.Node) bool {
		if n == nil {
			atoms = append(atoms, ")")
			return false
		}
		switch n.(type) {
		case *ast.Comment, *ast.CommentGroup:
			return false
		}
		atoms = append(atoms, "(", reflect.TypeOf(n).Elem().Name())

		switch n := n.(type) {
		case *ast.Ident:
			atoms = append(atoms, n.Name)
		case *ast.BasicLit:
			value := n.Value
			if n.Kind == token.STRING {
				if unquoted, err := strconv.Unquote(value); err == nil {
					value = unquoted
				}
			}
			atoms = append(atoms, n.Kind.String(), value)
		case *ast.BinaryExpr:
			atoms = append(atoms, n.Op.String())
		case *ast.UnaryExpr:
			atoms = append(atoms, n.Op.String())
		case *ast.AssignStmt:
			atoms = append(atoms, n.Tok.String())
		case *ast.IncDecStmt:
			atoms = append(atoms, n.Tok.String())
		case *ast.BranchStmt:
			atoms = append(atoms, n.Tok.String())
		case *ast.RangeStmt:
			atoms = append(atoms, n.Tok.String())
		case *ast.GenDecl:
			atoms = append(atoms, n.Tok.String())
		}
		return true
	})
	return atoms
}
