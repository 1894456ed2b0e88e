// Package observability provides logging, metrics and tracing for chatflow
// editors.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds the flow ID to a logger.
func EnrichLogger(logger *slog.Logger, flowID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("flow_id", flowID))
}

// LogNodeCreated logs a node dropped onto the canvas.
func LogNodeCreated(logger *slog.Logger, nodeID, nodeType string, x, y float64) {
	if logger == nil {
		return
	}
	logger.Debug("node created",
		slog.String("node_id", nodeID),
		slog.String("node_type", nodeType),
		slog.Float64("x", x),
		slog.Float64("y", y),
	)
}

// LogDropIgnored logs a drop that did not create a node.
func LogDropIgnored(logger *slog.Logger, reason error) {
	if logger == nil {
		return
	}
	logger.Debug("drop ignored",
		slog.String("reason", reason.Error()),
	)
}

// LogConnect logs a new edge.
func LogConnect(logger *slog.Logger, edgeID, source, sourceHandle, target string) {
	if logger == nil {
		return
	}
	logger.Debug("edge connected",
		slog.String("edge_id", edgeID),
		slog.String("source", source),
		slog.String("source_handle", sourceHandle),
		slog.String("target", target),
	)
}

// LogEdgeReplaced logs an edge superseded by a new connection from the
// same source handle.
func LogEdgeReplaced(logger *slog.Logger, oldEdgeID, newEdgeID string) {
	if logger == nil {
		return
	}
	logger.Info("edge replaced",
		slog.String("old_edge_id", oldEdgeID),
		slog.String("new_edge_id", newEdgeID),
	)
}

// LogEdgeRemoved logs an edge deletion.
func LogEdgeRemoved(logger *slog.Logger, edgeID string) {
	if logger == nil {
		return
	}
	logger.Debug("edge removed",
		slog.String("edge_id", edgeID),
	)
}

// LogSave logs a successful save.
func LogSave(logger *slog.Logger, nodeCount, edgeCount int, elapsed time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("flow saved",
		slog.Int("nodes", nodeCount),
		slog.Int("edges", edgeCount),
		slog.Duration("elapsed", elapsed),
	)
}

// LogSaveRejected logs a save refused by validation.
func LogSaveRejected(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Warn("flow save rejected",
		slog.String("error", err.Error()),
	)
}

// LogSaveError logs a failure of the save collaborator.
func LogSaveError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Error("flow save failed",
		slog.String("error", err.Error()),
	)
}
