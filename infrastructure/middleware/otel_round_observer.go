package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ptlab/ptstat/internal/application"
	"github.com/ptlab/ptstat/internal/domain"
)

var _ application.RoundObserver = (*OTelRoundObserver)(nil)

// OTelRoundObserver implements observability for round analyses using
// OpenTelemetry tracing. It creates a span per round, annotates it with
// the analyte and participant count, and records typed failure events.
type OTelRoundObserver struct{}

// NewOTelRoundObserver creates a new OpenTelemetry round observer.
func NewOTelRoundObserver() *OTelRoundObserver {
	return &OTelRoundObserver{}
}

// RoundStarted implements the RoundObserver interface. It starts a span
// for the round and returns the span-carrying context.
func (o *OTelRoundObserver) RoundStarted(ctx context.Context, analyte string, participants int) context.Context {
	tracer := otel.Tracer("ptstat-analyzer")
	ctx, _ = tracer.Start(ctx, "Analyzer.Analyze", trace.WithAttributes(
		attribute.String("round.analyte", analyte),
		attribute.Int("round.participants", participants),
	))
	return ctx
}

// RoundCompleted implements the RoundObserver interface. It finalizes the
// span, recording the elapsed time and any failure classification.
func (o *OTelRoundObserver) RoundCompleted(ctx context.Context, analyte string, elapsed time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(attribute.Int64("round.elapsed_ms", elapsed.Milliseconds()))

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	var nonConvErr *domain.NonConvergenceError
	if errors.As(err, &nonConvErr) {
		span.AddEvent("estimator.non_convergence", trace.WithAttributes(
			attribute.Int("max_iterations", nonConvErr.MaxIterations),
		))
	}
	var insufficientErr *domain.InsufficientDataError
	if errors.As(err, &insufficientErr) {
		span.AddEvent("round.insufficient_data", trace.WithAttributes(
			attribute.Int("required", insufficientErr.Required),
			attribute.Int("actual", insufficientErr.Actual),
		))
	}
	span.SetStatus(codes.Error, err.Error())
}
