package chatflow

import (
	"log/slog"

	"github.com/randalmurphal/chatflow/pkg/chatflow/notify"
	"github.com/randalmurphal/chatflow/pkg/chatflow/observability"
	"github.com/randalmurphal/chatflow/pkg/chatflow/palette"
)

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger. Nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Editor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithTracing sets the span manager used around saves.
// Default: observability.NoopSpanManager{}
func WithTracing(sm observability.SpanManager) Option {
	return func(e *Editor) {
		if sm != nil {
			e.spans = sm
		}
	}
}

// WithSaver sets the collaborator that receives validated flows.
// Without one, a successful save is only logged.
func WithSaver(s Saver) Option {
	return func(e *Editor) {
		e.saver = s
	}
}

// WithPalette sets the template catalog used to fill in drop defaults.
// Default: palette.Default()
func WithPalette(c *palette.Catalog) Option {
	return func(e *Editor) {
		if c != nil {
			e.palette = c
		}
	}
}

// WithNotifier sets the notification center, so that several views can
// share one banner.
func WithNotifier(c *notify.Center) Option {
	return func(e *Editor) {
		if c != nil {
			e.notes = c
		}
	}
}

// WithIDFunc sets the generator for node and edge IDs.
// Default: uuid.NewString
func WithIDFunc(fn IDFunc) Option {
	return func(e *Editor) {
		if fn != nil {
			e.graph.newID = fn
		}
	}
}

// WithFlow seeds the editor with a previously saved flow.
func WithFlow(flow Flow) Option {
	return func(e *Editor) {
		e.graph.Replace(flow)
	}
}
