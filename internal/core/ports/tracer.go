package ports

import "context"

// Tracer creates spans around install phases.
type Tracer interface {
	// Start opens a span; the returned context carries it for nesting.
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span is one traced operation.
type Span interface {
	End()
	RecordError(err error)
	SetAttribute(key string, value any)
}
