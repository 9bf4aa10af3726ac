package sct

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Binding is a name with the value it is bound to
type Binding struct {
	Name  string
	Value any
}

// Bindings is a persistent, insertion-ordered mapping from names to values.
// A name can be declared without being bound (a loop variable before set_context).
// Every update returns a new Bindings sharing structure with the old one.
//
// The names declared by the last Enter form the innermost scope, the only
// names set_context addresses. Outer names stay visible to code that runs.
type Bindings struct {
	names  *immutable.List[string]
	values *immutable.Map[string, any]
	scope  *immutable.List[string]
}

// NewBindings declares names, in order, without binding them
func NewBindings(names ...string) Bindings {
	return Bindings{}.Declare(names...)
}

func (b Bindings) init() Bindings {
	if b.names == nil {
		b.names = immutable.NewList[string]()
		b.values = immutable.NewMap[string, any](nil)
	}
	return b
}

func (b Bindings) Len() int {
	if b.names == nil {
		return 0
	}
	return b.names.Len()
}

// Names returns the declared names in insertion order
func (b Bindings) Names() []string {
	out := make([]string, 0, b.Len())
	for i := 0; i < b.Len(); i++ {
		out = append(out, b.names.Get(i))
	}
	return out
}

func (b Bindings) Has(name string) bool {
	for i := 0; i < b.Len(); i++ {
		if b.names.Get(i) == name {
			return true
		}
	}
	return false
}

// Get returns the value name is bound to
func (b Bindings) Get(name string) (any, bool) {
	if b.values == nil {
		return nil, false
	}
	return b.values.Get(name)
}

// Declare appends names that are not declared yet. A name that is declared
// again becomes unbound, as an inner loop variable shadows an outer one.
func (b Bindings) Declare(names ...string) Bindings {
	b = b.init()
	for _, name := range names {
		if !b.Has(name) {
			b.names = b.names.Append(name)
		}
		if _, bound := b.values.Get(name); bound {
			b.values = b.values.Delete(name)
		}
	}
	return b
}

// Enter declares names as a new innermost scope, replacing the previous one
func (b Bindings) Enter(names ...string) Bindings {
	b = b.Declare(names...)
	scope := immutable.NewList[string]()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			scope = scope.Append(name)
		}
	}
	b.scope = scope
	return b
}

// Scope returns the names of the innermost scope in declaration order
func (b Bindings) Scope() []string {
	if b.scope == nil {
		return nil
	}
	out := make([]string, 0, b.scope.Len())
	itr := b.scope.Iterator()
	for !itr.Done() {
		_, name := itr.Next()
		out = append(out, name)
	}
	return out
}

// Set binds name to v, declaring it if needed
func (b Bindings) Set(name string, v any) Bindings {
	b = b.init()
	if !b.Has(name) {
		b.names = b.names.Append(name)
	}
	b.values = b.values.Set(name, v)
	return b
}

// SetAll binds every Binding in order
func (b Bindings) SetAll(bindings ...Binding) Bindings {
	for _, binding := range bindings {
		b = b.Set(binding.Name, binding.Value)
	}
	return b
}

// Bound returns the bound names with their values, in insertion order
func (b Bindings) Bound() []Binding {
	var out []Binding
	for _, name := range b.Names() {
		if v, ok := b.Get(name); ok {
			out = append(out, Binding{Name: name, Value: v})
		}
	}
	return out
}

func (b Bindings) String() string {
	sb := strings.Builder{}
	sb.WriteByte('{')
	for i, name := range b.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		if v, ok := b.Get(name); ok {
			_, _ = fmt.Fprintf(&sb, "=%v", v)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
