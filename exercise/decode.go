package exercise

import (
	"errors"
	"fmt"

	"github.com/cottand/gowhat/checks"
	"github.com/cottand/gowhat/sct"
	"gopkg.in/yaml.v3"
)

// DecodeError points at the part of an exercise file that could not be turned into checks
type DecodeError struct {
	Line, Column int
	Msg          string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Msg)
}

func errorAt(n *yaml.Node, format string, args ...any) error {
	return &DecodeError{Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

// Decoder turns the declarative sct of an exercise into checks.
//
// A chain is a sequence of steps. A step is either a bare name (`disable_highlighting`)
// or a mapping with a single key naming the check, whose value holds its arguments.
type Decoder struct {
	Runner checks.Runner
}

type stepBuilder func(d *Decoder, args *yaml.Node) (sct.Check, error)

var steps map[string]stepBuilder

func init() {
	steps = map[string]stepBuilder{
		"multi":                (*Decoder).multi,
		"check_or":             (*Decoder).checkOr,
		"check_not":            (*Decoder).checkNot,
		"check_correct":        (*Decoder).checkCorrect,
		"fail":                 (*Decoder).fail,
		"override":             (*Decoder).override,
		"set_context":          (*Decoder).setContext,
		"set_env":              (*Decoder).setEnv,
		"disable_highlighting": noArgs(sct.DisableHighlighting),
		"test_for_loop":        (*Decoder).testForLoop,
		"check_for_loop":       (*Decoder).checkForLoop,
		"check_iter":           noArgs(sct.CheckIter),
		"check_body":           noArgs(sct.CheckBody),
		"check_orelse":         noArgs(sct.CheckOrElse),
		"has_code":             (*Decoder).hasCode,
		"has_equal_ast":        (*Decoder).hasEqualAST,
		"has_equal_value":      (*Decoder).hasEqualValue,
		"has_equal_output":     (*Decoder).hasEqualOutput,
	}
}

// Chain decodes n, a sequence of steps or a single step
func (d *Decoder) Chain(n *yaml.Node) (sct.Check, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		return d.Chain(n.Content[0])
	case yaml.SequenceNode:
		chain := make([]sct.Check, 0, len(n.Content))
		for _, child := range n.Content {
			step, err := d.step(child)
			if err != nil {
				return nil, err
			}
			chain = append(chain, step)
		}
		return sct.Chain(chain...), nil
	}
	return d.step(n)
}

// chains decodes a sequence whose items are each a chain
func (d *Decoder) chains(n *yaml.Node) ([]sct.Check, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, "expected a list of checks")
	}
	out := make([]sct.Check, 0, len(n.Content))
	for _, child := range n.Content {
		c, err := d.Chain(child)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (d *Decoder) step(n *yaml.Node) (sct.Check, error) {
	var (
		name string
		args = &yaml.Node{}
	)
	switch n.Kind {
	case yaml.ScalarNode:
		name = n.Value
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, errorAt(n, "a step must have exactly one key, found %d", len(n.Content)/2)
		}
		name, args = n.Content[0].Value, n.Content[1]
	case yaml.SequenceNode:
		return d.Chain(n)
	default:
		return nil, errorAt(n, "expected a check")
	}

	build, ok := steps[name]
	if !ok {
		return nil, errorAt(n, "unknown check %q", name)
	}
	check, err := build(d, args)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, errorAt(n, "%s: %v", name, err)
	}
	return check, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == 0 || n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func noArgs(build func() sct.Check) stepBuilder {
	return func(_ *Decoder, args *yaml.Node) (sct.Check, error) {
		if !isNull(args) && !(args.Kind == yaml.MappingNode && len(args.Content) == 0) {
			return nil, errorAt(args, "takes no arguments")
		}
		return build(), nil
	}
}

// decodeArgs decodes args into v. A scalar is decoded into *short instead, when short is given.
func decodeArgs(args *yaml.Node, v any, short *string) error {
	if isNull(args) {
		return nil
	}
	if args.Kind == yaml.ScalarNode && short != nil {
		*short = args.Value
		return nil
	}
	return args.Decode(v)
}

func (d *Decoder) multi(args *yaml.Node) (sct.Check, error) {
	cs, err := d.chains(args)
	if err != nil {
		return nil, err
	}
	return sct.Multi(cs...), nil
}

func (d *Decoder) checkOr(args *yaml.Node) (sct.Check, error) {
	cs, err := d.chains(args)
	if err != nil {
		return nil, err
	}
	return sct.CheckOr(cs...), nil
}

func (d *Decoder) checkNot(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Msg    string    `yaml:"msg"`
		Checks yaml.Node `yaml:"checks"`
	}
	if err := decodeArgs(args, &a, nil); err != nil {
		return nil, err
	}
	if a.Msg == "" {
		return nil, errorAt(args, "check_not needs a msg")
	}
	cs, err := d.chains(&a.Checks)
	if err != nil {
		return nil, err
	}
	return sct.CheckNot(a.Msg, cs...), nil
}

func (d *Decoder) checkCorrect(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Check    yaml.Node `yaml:"check"`
		Diagnose yaml.Node `yaml:"diagnose"`
	}
	if err := decodeArgs(args, &a, nil); err != nil {
		return nil, err
	}
	check, err := d.Chain(&a.Check)
	if err != nil {
		return nil, err
	}
	diagnose, err := d.Chain(&a.Diagnose)
	if err != nil {
		return nil, err
	}
	return sct.CheckCorrect(check, diagnose), nil
}

func (d *Decoder) fail(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Msg string `yaml:"msg"`
	}
	if err := decodeArgs(args, &a, &a.Msg); err != nil {
		return nil, err
	}
	return sct.Fail(a.Msg), nil
}

func (d *Decoder) override(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Code string `yaml:"code"`
	}
	if err := decodeArgs(args, &a, &a.Code); err != nil {
		return nil, err
	}
	return sct.Override(a.Code), nil
}

func (d *Decoder) setContext(args *yaml.Node) (sct.Check, error) {
	switch args.Kind {
	case yaml.SequenceNode:
		var values []any
		if err := args.Decode(&values); err != nil {
			return nil, err
		}
		return sct.SetContext(values...), nil
	case yaml.MappingNode:
		var named map[string]any
		if err := args.Decode(&named); err != nil {
			return nil, err
		}
		return sct.SetContextNamed(named), nil
	}
	return nil, errorAt(args, "set_context takes a list of values or a mapping of names to values")
}

func (d *Decoder) setEnv(args *yaml.Node) (sct.Check, error) {
	var env map[string]any
	if err := decodeArgs(args, &env, nil); err != nil {
		return nil, err
	}
	return sct.SetEnv(env), nil
}

func (d *Decoder) testForLoop(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Index         int       `yaml:"index"`
		Iter          yaml.Node `yaml:"iter"`
		Body          yaml.Node `yaml:"body"`
		OrElse        yaml.Node `yaml:"orelse"`
		ExpandMessage *bool     `yaml:"expand_message"`
	}
	a.Index = 1
	if err := decodeArgs(args, &a, nil); err != nil {
		return nil, err
	}
	p := sct.ForLoopChecks{Index: a.Index, NoExpand: a.ExpandMessage != nil && !*a.ExpandMessage}
	var err error
	if p.Iter, err = d.Chain(&a.Iter); err != nil {
		return nil, err
	}
	if p.Body, err = d.Chain(&a.Body); err != nil {
		return nil, err
	}
	if p.OrElse, err = d.Chain(&a.OrElse); err != nil {
		return nil, err
	}
	return sct.TestForLoop(p), nil
}

func (d *Decoder) checkForLoop(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Index int `yaml:"index"`
	}
	a.Index = 1
	if args.Kind == yaml.ScalarNode && !isNull(args) {
		if err := args.Decode(&a.Index); err != nil {
			return nil, err
		}
	} else if err := decodeArgs(args, &a, nil); err != nil {
		return nil, err
	}
	return sct.CheckForLoop(a.Index), nil
}

func (d *Decoder) hasCode(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Pattern string `yaml:"pattern"`
		Fixed   bool   `yaml:"fixed"`
		Msg     string `yaml:"msg"`
	}
	if err := decodeArgs(args, &a, &a.Pattern); err != nil {
		return nil, err
	}
	if a.Pattern == "" {
		return nil, errorAt(args, "has_code needs a pattern")
	}
	return checks.HasCode(checks.CodeOpts{Pattern: a.Pattern, Fixed: a.Fixed, Msg: a.Msg}), nil
}

func (d *Decoder) hasEqualAST(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Code  string `yaml:"code"`
		Exact *bool  `yaml:"exact"`
		Msg   string `yaml:"msg"`
	}
	if err := decodeArgs(args, &a, &a.Msg); err != nil {
		return nil, err
	}
	return checks.HasEqualAST(checks.ASTOpts{
		Code:    a.Code,
		Partial: a.Exact != nil && !*a.Exact,
		Msg:     a.Msg,
	}), nil
}

func (d *Decoder) hasEqualValue(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Msg string `yaml:"msg"`
	}
	if err := decodeArgs(args, &a, &a.Msg); err != nil {
		return nil, err
	}
	return checks.HasEqualValue(d.Runner, a.Msg), nil
}

func (d *Decoder) hasEqualOutput(args *yaml.Node) (sct.Check, error) {
	var a struct {
		Msg string `yaml:"msg"`
	}
	if err := decodeArgs(args, &a, &a.Msg); err != nil {
		return nil, err
	}
	return checks.HasEqualOutput(d.Runner, a.Msg), nil
}
