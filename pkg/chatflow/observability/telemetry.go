package observability

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry owns the SDK providers installed by SetupTelemetry.
type Telemetry struct {
	tracers *sdktrace.TracerProvider
	meters  *sdkmetric.MeterProvider
	reader  *sdkmetric.ManualReader
}

// MetricPoint is one data point of a collected metric.
type MetricPoint struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      float64           `json:"value,omitempty"`
	Count      uint64            `json:"count,omitempty"`
	Sum        float64           `json:"sum,omitempty"`
}

// SetupTelemetry installs global tracer and meter providers. Spans go to
// exporter, which may be nil to keep spans in-process only. Metrics are
// held in memory and read back with Collect.
func SetupTelemetry(serviceName string, exporter sdktrace.SpanExporter) *Telemetry {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	topts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		topts = append(topts, sdktrace.WithBatcher(exporter))
	}
	t := &Telemetry{
		tracers: sdktrace.NewTracerProvider(topts...),
		reader:  sdkmetric.NewManualReader(),
	}
	t.meters = sdkmetric.NewMeterProvider(sdkmetric.WithReader(t.reader), sdkmetric.WithResource(res))

	otel.SetTracerProvider(t.tracers)
	otel.SetMeterProvider(t.meters)
	return t
}

// Collect reads the current value of every metric, sorted by name.
func (t *Telemetry) Collect(ctx context.Context) ([]MetricPoint, error) {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	var points []MetricPoint
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			points = append(points, flatten(m)...)
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Name < points[j].Name })
	return points, nil
}

func flatten(m metricdata.Metrics) []MetricPoint {
	var out []MetricPoint
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes), Value: float64(dp.Value)})
		}
	case metricdata.Sum[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes), Value: dp.Value})
		}
	case metricdata.Histogram[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes), Count: dp.Count, Sum: float64(dp.Sum)})
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, MetricPoint{Name: m.Name, Attributes: attrMap(dp.Attributes), Count: dp.Count, Sum: dp.Sum})
		}
	}
	return out
}

func attrMap(set attribute.Set) map[string]string {
	if set.Len() == 0 {
		return nil
	}
	out := make(map[string]string, set.Len())
	for _, kv := range set.ToSlice() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

// Shutdown flushes pending spans and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(t.tracers.Shutdown(ctx), t.meters.Shutdown(ctx))
}
