package org

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfeidau/orgviz/internal/telemetry"
)

const tracerName = "github.com/wolfeidau/orgviz/internal/org"

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Enricher EnricherOptions
}

// Pipeline runs discovery, enrichment, assembly and aggregation as one unit:
// it either returns a fully described, fully counted graph or an error.
type Pipeline struct {
	builder  *TreeBuilder
	enricher *Enricher
	tracer   trace.Tracer
	metrics  *telemetry.Metrics
}

// NewPipeline creates a Pipeline reading from dir.
func NewPipeline(dir Directory, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		builder:  NewTreeBuilder(dir),
		enricher: NewEnricher(dir, opts.Enricher),
		tracer:   otel.Tracer(tracerName),
		metrics:  telemetry.GetMetrics(),
	}
}

// Run discovers the organization from its root and returns the aggregated
// graph.
func (p *Pipeline) Run(ctx context.Context) (*AggregatedGraph, error) {
	ctx, span := p.tracer.Start(ctx, "org.Pipeline.Run")
	defer span.End()

	logger := zerolog.Ctx(ctx)
	started := time.Now()

	rootID, err := p.builder.ResolveRoot(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("org.root_id", rootID))

	skeletons, err := stage(ctx, p.tracer, "org.Discover", func(ctx context.Context) ([]Skeleton, error) {
		return p.builder.Discover(ctx, rootID)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	nodes, err := stage(ctx, p.tracer, "org.Enrich", func(ctx context.Context) ([]Node, error) {
		return p.enricher.Enrich(ctx, skeletons)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	g, err := stage(ctx, p.tracer, "org.Assemble", func(context.Context) (*Graph, error) {
		return Assemble(nodes)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	aggregated := Annotate(g)

	for _, k := range []Kind{KindRoot, KindOrganizationalUnit, KindAccount} {
		p.metrics.NodesDiscoveredTotal.Add(ctx, int64(aggregated.CountKind(k)),
			metric.WithAttributes(attribute.String("kind", string(k))))
	}

	rootCount, _ := aggregated.DescendantAccounts(rootID)
	span.SetAttributes(attribute.Int("org.nodes", aggregated.Len()), attribute.Int("org.accounts", rootCount))

	logger.Info().
		Str("root_id", rootID).
		Int("nodes", aggregated.Len()).
		Int("units", aggregated.CountKind(KindOrganizationalUnit)).
		Int("accounts", rootCount).
		Dur("duration", time.Since(started)).
		Msg("organization discovered")

	return aggregated, nil
}

func stage[T any](ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, fail(span, err)
	}
	return out, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
