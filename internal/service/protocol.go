package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/pkg/logger"
)

const tracerName = "github.com/d60-Lab/social-graph/internal/service"

// StepStatus tags what happened to one step of a protocol run.
type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult is the per-step record of a run.
type StepResult struct {
	Name   string
	Status StepStatus
	Err    error
}

// Outcome summarises a protocol run.
type Outcome struct {
	Protocol string
	Steps    []StepResult
}

// Committed reports whether every step ran.
func (o *Outcome) Committed() bool {
	for _, s := range o.Steps {
		if s.Status != StepDone {
			return false
		}
	}
	return true
}

// Partial reports whether some steps committed before a later one failed.
// Nothing is rolled back, so the caller should treat state as partially
// applied.
func (o *Outcome) Partial() bool {
	return !o.Committed() && len(o.Done()) > 0
}

// Done lists the names of committed steps in order.
func (o *Outcome) Done() []string {
	var names []string
	for _, s := range o.Steps {
		if s.Status == StepDone {
			names = append(names, s.Name)
		}
	}
	return names
}

// FailedStep returns the name of the failed step, or "".
func (o *Outcome) FailedStep() string {
	for _, s := range o.Steps {
		if s.Status == StepFailed {
			return s.Name
		}
	}
	return ""
}

func (o *Outcome) label() string {
	switch {
	case o.Committed():
		return "committed"
	case o.Partial():
		return "partial"
	default:
		return "aborted"
	}
}

type step struct {
	name string
	fn   func(context.Context) error
}

// Protocol is an ordered sequence of store mutations without compensation.
// A failing step stops the run; later steps are skipped and earlier ones
// stay applied.
type Protocol struct {
	name    string
	steps   []step
	metrics *metrics.Collector
}

func NewProtocol(name string, m *metrics.Collector) *Protocol {
	return &Protocol{name: name, metrics: m}
}

// Then appends a step.
func (p *Protocol) Then(name string, fn func(context.Context) error) *Protocol {
	p.steps = append(p.steps, step{name: name, fn: fn})
	return p
}

// Run executes the steps in order. The returned error is the failing step's
// error, unchanged.
func (p *Protocol) Run(ctx context.Context) (*Outcome, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "protocol "+p.name)
	defer span.End()

	out := &Outcome{Protocol: p.name, Steps: make([]StepResult, len(p.steps))}
	for i, s := range p.steps {
		out.Steps[i] = StepResult{Name: s.name, Status: StepSkipped}
	}

	var runErr error
	for i, s := range p.steps {
		stepCtx, stepSpan := tracer.Start(ctx, s.name)
		err := s.fn(stepCtx)
		if err != nil {
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
		}
		stepSpan.End()

		if err != nil {
			out.Steps[i] = StepResult{Name: s.name, Status: StepFailed, Err: err}
			runErr = err
			p.metrics.StepFailure(p.name, s.name)
			break
		}
		out.Steps[i].Status = StepDone
	}

	outcome := out.label()
	span.SetAttributes(attribute.String("protocol.outcome", outcome))
	p.metrics.ProtocolRun(p.name, outcome)

	switch {
	case out.Partial():
		span.SetStatus(codes.Error, "partially applied")
		logger.Warn("protocol partially applied",
			zap.String("protocol", p.name),
			zap.String("failed_step", out.FailedStep()),
			zap.Strings("committed_steps", out.Done()),
			zap.Error(runErr),
		)
	case runErr != nil:
		span.SetStatus(codes.Error, runErr.Error())
		logger.Debug("protocol aborted",
			zap.String("protocol", p.name),
			zap.String("failed_step", out.FailedStep()),
			zap.Error(runErr),
		)
	}
	return out, runErr
}
