package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
	"github.com/harunnryd/koyomi/internal/logger"
)

type Runner struct {
	registry *Registry
}

func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

func (r *Runner) Descriptors() []Descriptor {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.Descriptors()
}

// Execute resolves the tool by name and runs it against the call
// context. Category errors from the tool pass through unchanged so the
// HTTP layer can map them to status codes.
func (r *Runner) Execute(ctx context.Context, call *Call, toolName string, input json.RawMessage) (json.RawMessage, error) {
	t, ok := r.registry.Get(toolName)
	if !ok {
		return nil, koyomiErrors.NotFound("tool not found")
	}

	start := time.Now()
	traceID := logger.GetTraceID(ctx)
	sessionID := logger.GetSessionID(ctx)
	slog.Info("Executing tool", "tool", toolName, "trace_id", traceID, "session_id", sessionID)

	result, err := t.Execute(ctx, call, input)

	duration := time.Since(start)
	if err != nil {
		slog.Error("Tool execution failed", "tool", toolName, "error", err, "duration", duration, "trace_id", traceID, "session_id", sessionID)
		return nil, err
	}

	slog.Info("Tool execution success", "tool", toolName, "duration", duration, "trace_id", traceID, "session_id", sessionID)
	return result, nil
}
