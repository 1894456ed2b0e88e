package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records editor metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeCreated records a node created by a drop.
	RecordNodeCreated(ctx context.Context, nodeType string)

	// RecordEdgeConnected records a new edge, and whether it superseded one.
	RecordEdgeConnected(ctx context.Context, replaced bool)

	// RecordEdgeRemoved records an edge deletion.
	RecordEdgeRemoved(ctx context.Context)

	// RecordSave records a save attempt with the flow size and duration.
	RecordSave(ctx context.Context, success bool, nodeCount int, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodesCreated   metric.Int64Counter
	edgesConnected metric.Int64Counter
	edgesReplaced  metric.Int64Counter
	edgesRemoved   metric.Int64Counter
	saves          metric.Int64Counter
	saveNodes      metric.Int64Histogram
	saveLatency    metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("chatflow")

	nodesCreated, err := meter.Int64Counter("chatflow.nodes.created",
		metric.WithDescription("Number of nodes created from the palette"),
	)
	if err != nil {
		return nil, err
	}

	edgesConnected, err := meter.Int64Counter("chatflow.edges.connected",
		metric.WithDescription("Number of edges connected"),
	)
	if err != nil {
		return nil, err
	}

	edgesReplaced, err := meter.Int64Counter("chatflow.edges.replaced",
		metric.WithDescription("Number of edges superseded by a connection from the same source handle"),
	)
	if err != nil {
		return nil, err
	}

	edgesRemoved, err := meter.Int64Counter("chatflow.edges.removed",
		metric.WithDescription("Number of edges deleted"),
	)
	if err != nil {
		return nil, err
	}

	saves, err := meter.Int64Counter("chatflow.saves",
		metric.WithDescription("Number of save attempts"),
	)
	if err != nil {
		return nil, err
	}

	saveNodes, err := meter.Int64Histogram("chatflow.save.nodes",
		metric.WithDescription("Node count of saved flows"),
	)
	if err != nil {
		return nil, err
	}

	saveLatency, err := meter.Float64Histogram("chatflow.save.latency_ms",
		metric.WithDescription("Save latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodesCreated:   nodesCreated,
		edgesConnected: edgesConnected,
		edgesReplaced:  edgesReplaced,
		edgesRemoved:   edgesRemoved,
		saves:          saves,
		saveNodes:      saveNodes,
		saveLatency:    saveLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider, so configure the
// provider before the first call.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeCreated records a node creation.
func (m *otelMetrics) RecordNodeCreated(ctx context.Context, nodeType string) {
	m.nodesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("node_type", nodeType)))
}

// RecordEdgeConnected records a connection.
func (m *otelMetrics) RecordEdgeConnected(ctx context.Context, replaced bool) {
	m.edgesConnected.Add(ctx, 1)
	if replaced {
		m.edgesReplaced.Add(ctx, 1)
	}
}

// RecordEdgeRemoved records an edge deletion.
func (m *otelMetrics) RecordEdgeRemoved(ctx context.Context) {
	m.edgesRemoved.Add(ctx, 1)
}

// RecordSave records a save attempt.
func (m *otelMetrics) RecordSave(ctx context.Context, success bool, nodeCount int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.saves.Add(ctx, 1, attrs)
	m.saveLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if success {
		m.saveNodes.Record(ctx, int64(nodeCount))
	}
}
