package sct

import (
	"context"
	"log/slog"

	"github.com/cottand/gowhat/internal/log"
)

var reporterLogger = log.DefaultLogger.With("section", "sct.reporter")

// Test is a unit of work judged by the Reporter
type Test interface {
	Run() (*State, error)
}

// TestFunc defers a check until the Reporter runs it
type TestFunc func() (*State, error)

func (f TestFunc) Run() (*State, error) { return f() }

// FeedbackTest always fails with its Feedback
type FeedbackTest struct {
	Feedback *Feedback
}

func (t FeedbackTest) Run() (*State, error) { return nil, failure(t.Feedback) }

// MessageTest always fails with msg, without anchoring it to any code
func MessageTest(msg string) FeedbackTest {
	return FeedbackTest{Feedback: NewFeedback(msg, nil)}
}

// Reporter is shared by every check of a chain: combinators hand the same
// instance down to everything they run. It records what was tested.
type Reporter struct {
	ctx      context.Context
	logger   *slog.Logger
	tags     map[string]string
	executed int
	failures int
	last     *Feedback
}

func NewReporter() *Reporter {
	return NewReporterContext(context.Background())
}

// NewReporterContext returns a Reporter whose checks run code under ctx
func NewReporterContext(ctx context.Context) *Reporter {
	return &Reporter{
		ctx:    ctx,
		logger: reporterLogger,
		tags:   make(map[string]string),
	}
}

// DoTest runs t and returns its outcome. Failures are recorded but still returned,
// it is up to the caller whether they propagate.
func (r *Reporter) DoTest(t Test) (*State, error) {
	r.executed++
	state, err := t.Run()
	if fb, ok := AsFailure(err); ok {
		r.failures++
		r.last = fb
		r.logger.Debug("test failed", "msg", fb.Message, "n", r.executed)
	}
	return state, err
}

// SetTag annotates the payload, for example with the name of the check that ran last
func (r *Reporter) SetTag(key, value string) {
	r.tags[key] = value
}

// Context bounds the code checks run on behalf of this Reporter
func (r *Reporter) Context() context.Context { return r.ctx }

// Executed is the number of tests run so far
func (r *Reporter) Executed() int { return r.executed }

// Failures is the number of tests that failed so far, including ones a combinator expected to fail
func (r *Reporter) Failures() int { return r.failures }

// LastFailure returns the feedback of the most recent failed test
func (r *Reporter) LastFailure() *Feedback { return r.last }

// Run runs every chain against root in order and stops at the first failure.
// The returned error is only set for authoring or infrastructure errors,
// a failed submission is reported through the Payload.
func Run(rep *Reporter, root *State, chains ...Check) (Payload, error) {
	for _, chain := range chains {
		if chain == nil {
			continue
		}
		_, err := rep.DoTest(TestFunc(func() (*State, error) {
			return chain(rep, root)
		}))
		if fb, ok := AsFailure(err); ok {
			return payloadFor(rep, fb), nil
		}
		if err != nil {
			return Payload{}, err
		}
	}
	return payloadFor(rep, nil), nil
}
