package syntax

import (
	"fmt"
	"go/ast"
	"log/slog"
)

// Slog wraps a node as a slog.LogValuer to not render source text
// unless it definitely needs to be logged
func Slog(src *Source, n ast.Node) slog.LogValuer {
	return nodeLogValuer{src: src, node: n}
}

type nodeLogValuer struct {
	src  *Source
	node ast.Node
}

func (l nodeLogValuer) LogValue() slog.Value {
	if IsNil(l.node) {
		return slog.StringValue("<nil>")
	}
	if l.src == nil {
		return slog.StringValue(fmt.Sprintf("%T", l.node))
	}
	return slog.GroupValue(
		slog.String("kind", fmt.Sprintf("%T", l.node)),
		slog.String("code", l.src.Text(l.node)),
	)
}
