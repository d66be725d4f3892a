// Package narration carries the human-readable account of a checkout. Lines
// recorded here are an observability side channel and never feed back into
// pricing or authorization decisions.
package narration

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Step identifies the pipeline stage that produced a line.
type Step string

const (
	StepPricing    Step = "pricing"
	StepShipping   Step = "shipping"
	StepPayment    Step = "payment"
	StepSettlement Step = "settlement"
)

// Line is a single narrated event: the operation, the amount it computed and a readable message.
type Line struct {
	Step      Step
	Operation string
	Amount    decimal.Decimal
	Message   string
}

// Sink receives narration lines.
type Sink interface {
	Record(ctx context.Context, line Line)
}

// Discard drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Line) {}

// Recorder keeps lines in memory. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []Line
}

// Record implements Sink.
func (r *Recorder) Record(_ context.Context, line Line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.lines))
	for _, l := range r.lines {
		out = append(out, l.Message)
	}
	return out
}

// Steps returns recorded lines belonging to step.
func (r *Recorder) Steps(step Step) []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Line
	for _, l := range r.lines {
		if l.Step == step {
			out = append(out, l)
		}
	}
	return out
}

// LogSink writes each line as a structured log event.
type LogSink struct {
	Logger zerolog.Logger
}

// Record implements Sink.
func (s LogSink) Record(_ context.Context, line Line) {
	s.Logger.Info().
		Str("step", string(line.Step)).
		Str("operation", line.Operation).
		Str("amount", line.Amount.StringFixed(2)).
		Msg(line.Message)
}

// Multi fans a line out to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return multi(filtered)
}

type multi []Sink

func (m multi) Record(ctx context.Context, line Line) {
	for _, s := range m {
		s.Record(ctx, line)
	}
}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}
