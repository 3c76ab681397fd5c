package server

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/telemetry"
)

// tracer is the gateway's span source for the upstream call a request makes.
// With no SDK configured by cmd/ai-gateway's default `serve` invocation this
// is a no-op tracer; operators who wire an exporter get a span per
// DoGenerate/DoStream call for free.
var tracer = otel.Tracer("ai-gateway/server")

// doGenerateTraced wraps one non-streaming upstream call in a span carrying
// the provider/model attributes telemetry.GetBaseAttributes defines.
func doGenerateTraced(ctx context.Context, model provider.LanguageModel, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	return telemetry.RecordSpan(ctx, tracer, telemetry.SpanOptions{
		Name:        "ai-gateway.generate",
		Attributes:  telemetry.GetBaseAttributes(model.Provider(), model.ModelID(), nil, nil),
		EndWhenDone: true,
	}, func(ctx context.Context, span trace.Span) (*types.GenerateResult, error) {
		return model.DoGenerate(ctx, opts)
	})
}

// doStreamTraced starts the upstream streaming call under a span and returns
// both the stream and a function the caller must invoke once draining the
// stream is complete to close it out.
func doStreamTraced(ctx context.Context, model provider.LanguageModel, opts *provider.GenerateOptions) (provider.EventStream, func(error), error) {
	ctx, span := tracer.Start(ctx, "ai-gateway.stream", trace.WithAttributes(
		telemetry.GetBaseAttributes(model.Provider(), model.ModelID(), nil, nil)...,
	))
	es, err := model.DoStream(ctx, opts)
	if err != nil {
		telemetry.RecordErrorOnSpan(span, err)
		span.End()
		return nil, nil, err
	}
	return es, func(streamErr error) {
		telemetry.RecordErrorOnSpan(span, streamErr)
		span.End()
	}, nil
}
