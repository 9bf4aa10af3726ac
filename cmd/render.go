package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cottand/gowhat/sct"
	"github.com/cottand/gowhat/syntax"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// graded is the outcome of grading one exercise file
type graded struct {
	Path    string       `json:"path"`
	Name    string       `json:"name,omitempty"`
	Payload *sct.Payload `json:"payload,omitempty"`
	Err     string       `json:"error,omitempty"`
	code    string
}

type renderer struct {
	w     io.Writer
	color bool
}

func newRenderer(w io.Writer, noColor bool) *renderer {
	color := false
	if f, ok := w.(*os.File); ok && !noColor {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &renderer{w: w, color: color}
}

func (r *renderer) paint(ansi, s string) string {
	if !r.color {
		return s
	}
	return ansi + s + ansiReset
}

func (r *renderer) text(results []graded) error {
	sb := &strings.Builder{}
	for _, res := range results {
		title := res.Path
		if res.Name != "" {
			title = fmt.Sprintf("%s (%s)", res.Name, res.Path)
		}
		switch {
		case res.Err != "":
			fmt.Fprintf(sb, "%s %s\n  %s\n", r.paint(ansiRed, "ERROR"), title, res.Err)
		case res.Payload.Correct:
			fmt.Fprintf(sb, "%s %s %s\n", r.paint(ansiGreen, "PASS"), title,
				r.paint(ansiDim, fmt.Sprintf("(%d tests)", res.Payload.Tests)))
		default:
			fmt.Fprintf(sb, "%s %s\n  %s\n", r.paint(ansiRed, "FAIL"), title, res.Payload.Message)
			if res.Payload.Region != nil {
				sb.WriteString(r.highlight(res.code, *res.Payload.Region))
			}
		}
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}

// highlight prints the first line of region with a caret line under the highlighted columns
func (r *renderer) highlight(code string, region syntax.Region) string {
	lines := strings.Split(code, "\n")
	if region.LineStart < 1 || region.LineStart > len(lines) {
		return ""
	}
	line := lines[region.LineStart-1]
	start := min(max(region.ColumnStart-1, 0), len(line))
	end := len(line)
	if region.LineEnd == region.LineStart {
		end = min(max(region.ColumnEnd, start), len(line))
	}

	gutter := fmt.Sprintf("  %d | ", region.LineStart)
	pad := strings.Repeat(" ", len(gutter)-2) + "| "
	carets := strings.Repeat("^", max(runewidth.StringWidth(line[start:end]), 1))
	return gutter + line + "\n" + pad + padding(line[:start]) + r.paint(ansiRed, carets) + "\n"
}

// padding blanks out prefix keeping its tabs, so the carets line up under wide runes too
func padding(prefix string) string {
	sb := &strings.Builder{}
	for _, c := range prefix {
		if c == '\t' {
			sb.WriteRune('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(c)))
	}
	return sb.String()
}

func (r *renderer) json(results []graded) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
