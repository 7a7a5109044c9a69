package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/pacquet/internal/core/ports"
)

// Setup installs a global TracerProvider whose spans are forwarded to the
// logger at debug level. No exporter talks to the network. The returned
// function shuts the provider down.
func Setup(log ports.Logger) func(context.Context) error {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&logProcessor{logger: log}),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown
}

// logProcessor reports span completion to the logger. Install phases are
// few and coarse, so a synchronous processor costs nothing measurable.
type logProcessor struct {
	logger ports.Logger
}

func (p *logProcessor) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

func (p *logProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	elapsed := span.EndTime().Sub(span.StartTime()).Round(time.Millisecond)
	p.logger.Debug(fmt.Sprintf("%s took %s", span.Name(), elapsed))
}

func (p *logProcessor) Shutdown(context.Context) error   { return nil }
func (p *logProcessor) ForceFlush(context.Context) error { return nil }
