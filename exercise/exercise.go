package exercise

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cottand/gowhat/internal/log"
	"github.com/cottand/gowhat/runner"
	"github.com/cottand/gowhat/sct"
	"github.com/cottand/gowhat/syntax"
	"gopkg.in/yaml.v3"
)

var exerciseLogger = log.DefaultLogger.With("section", "exercise")

// Exercise is a submission together with the solution and the checks to grade it with
type Exercise struct {
	Name          string    `yaml:"name"`
	Student       string    `yaml:"student"`
	StudentFile   string    `yaml:"student_file"`
	Solution      string    `yaml:"solution"`
	SolutionFile  string    `yaml:"solution_file"`
	ForceDiagnose bool      `yaml:"force_diagnose"`
	Timeout       Duration  `yaml:"timeout"`
	SCT           yaml.Node `yaml:"sct"`
}

// Duration is a time.Duration written the way time.ParseDuration reads it
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return &DecodeError{Line: n.Line, Column: n.Column, Msg: err.Error()}
	}
	*d = Duration(parsed)
	return nil
}

// Load reads an exercise file. Code files it refers to are resolved relative to it.
func Load(path string) (*Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read exercise: %w", err)
	}
	ex, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ex, nil
}

// Parse decodes an exercise, reading code files relative to dir
func Parse(data []byte, dir string) (*Exercise, error) {
	ex := &Exercise{}
	if err := yaml.Unmarshal(data, ex); err != nil {
		return nil, fmt.Errorf("could not decode exercise: %w", err)
	}
	if ex.StudentFile != "" {
		code, err := os.ReadFile(filepath.Join(dir, ex.StudentFile))
		if err != nil {
			return nil, fmt.Errorf("could not read student code: %w", err)
		}
		ex.Student = string(code)
	}
	if ex.SolutionFile != "" {
		code, err := os.ReadFile(filepath.Join(dir, ex.SolutionFile))
		if err != nil {
			return nil, fmt.Errorf("could not read solution code: %w", err)
		}
		ex.Solution = string(code)
	}
	return ex, nil
}

// Grade runs the checks of the exercise against the student code.
// An unparsable submission is graded as incorrect; an error is only
// returned when the exercise itself is broken.
func (ex *Exercise) Grade(ctx context.Context) (sct.Payload, error) {
	solution, err := syntax.Parse("solution.go", ex.Solution)
	if err != nil {
		return sct.Payload{}, fmt.Errorf("solution does not parse: %w", err)
	}
	dec := &Decoder{Runner: runner.New(time.Duration(ex.Timeout))}
	chain, err := dec.Chain(&ex.SCT)
	if err != nil {
		return sct.Payload{}, fmt.Errorf("could not decode sct: %w", err)
	}

	student, err := syntax.Parse("student.go", ex.Student)
	if err != nil {
		exerciseLogger.Info("submission does not parse", "exercise", ex.Name, "err", err)
		return sct.Payload{Message: fmt.Sprintf("Your code could not be parsed: %v", err)}, nil
	}

	rep := sct.NewReporterContext(ctx)
	state := sct.NewState(sct.Config{Student: student, Solution: solution, ForceDiagnose: ex.ForceDiagnose})
	payload, err := sct.Run(rep, state, chain)
	if err != nil {
		return sct.Payload{}, fmt.Errorf("exercise %q: %w", ex.Name, err)
	}
	exerciseLogger.Info("graded", "exercise", ex.Name, "correct", payload.Correct, "tests", payload.Tests)
	return payload, nil
}
