package sct

import (
	"maps"
	"strings"
	"text/template"
)

// Message is a fragment of feedback accumulated along a chain.
// Vars are visible to this fragment and to every fragment rendered after it.
type Message struct {
	Template string
	Vars     map[string]any
}

func renderMessage(tmpl string, vars map[string]any) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	t, err := template.New("msg").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		sctLogger.Warn("invalid message template", "template", tmpl, "err", err)
		return tmpl
	}
	sb := strings.Builder{}
	if err := t.Execute(&sb, vars); err != nil {
		sctLogger.Warn("could not render message template", "template", tmpl, "err", err)
		return tmpl
	}
	return sb.String()
}

func joinMessages(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// BuildMessage renders the message stack of s followed by tail.
// vars are added on top of the variables accumulated along the stack.
func (s *State) BuildMessage(tail string, vars map[string]any) string {
	merged := make(map[string]any)
	var parts []string
	for _, m := range s.Messages() {
		maps.Copy(merged, m.Vars)
		if m.Template != "" {
			parts = append(parts, renderMessage(m.Template, merged))
		}
	}
	maps.Copy(merged, vars)
	parts = append(parts, renderMessage(tail, merged))
	return joinMessages(parts...)
}
