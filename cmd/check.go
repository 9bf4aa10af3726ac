package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/cottand/gowhat/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var CheckCmd = &cobra.Command{
	Use:          "check exercise.yaml...",
	Short:        "Grade submissions against the checks of their exercise",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	logLevel    *int
	logSections *[]string
	format      *string
	noColor     *bool
	jobs        *int
)

func init() {
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	logSections = CheckCmd.Flags().StringSlice("log-sections", nil, "extra log sections to emit debug and info records for, * for all")
	format = CheckCmd.Flags().StringP("format", "f", "text", "output format, text or json")
	noColor = CheckCmd.Flags().Bool("no-color", false, "never colour the output")
	jobs = CheckCmd.Flags().IntP("jobs", "j", runtime.GOMAXPROCS(0), "exercises graded at the same time")
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))
	log.EnableSections(*logSections...)

	if *format != "text" && *format != "json" {
		return fmt.Errorf("unknown format %q, expected text or json", *format)
	}

	results := gradeAll(cmd, args, *jobs)

	r := newRenderer(cmd.OutOrStdout(), *noColor)
	var err error
	if *format == "json" {
		err = r.json(results)
	} else {
		err = r.text(results)
	}
	if err != nil {
		return fmt.Errorf("could not write results: %w", err)
	}
	return summarize(results)
}

// gradeAll grades every exercise file, at most jobs at a time. Results keep the order of paths.
func gradeAll(cmd *cobra.Command, paths []string, jobs int) []graded {
	results := make([]graded, len(paths))
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	g, ctx := errgroup.WithContext(parent)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			results[i] = grade(ctx, path)
			return nil
		})
	}
	// grading errors are kept per exercise
	_ = g.Wait()
	return results
}

func summarize(results []graded) error {
	var broken, incorrect []string
	for _, res := range results {
		switch {
		case res.Err != "":
			broken = append(broken, res.Path)
		case !res.Payload.Correct:
			incorrect = append(incorrect, res.Path)
		}
	}
	if len(broken) > 0 {
		return fmt.Errorf("%d of %d exercises could not be graded: %s", len(broken), len(results), strings.Join(broken, ", "))
	}
	if len(incorrect) > 0 {
		return fmt.Errorf("%d of %d submissions are incorrect", len(incorrect), len(results))
	}
	return nil
}
