// Package tool exposes the model-facing capabilities: task and event
// operations plus trigger reminders. Every identifier crossing the tool
// boundary is an alias; real Google ids never appear in tool output.
package tool

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/harunnryd/koyomi/internal/alias"
	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/session"
)

// Call carries the per-invocation context a tool executes against.
// Conn is nil when no Google account is connected.
type Call struct {
	SessionID string
	Session   *session.Session
	Conn      *google.Connection
	Owner     string
}

// Aliases returns the alias registry of the calling session.
func (c *Call) Aliases() *alias.Registry {
	return c.Session.Aliases()
}

// Tool represents an executable capability.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, call *Call, input json.RawMessage) (json.RawMessage, error)
}

// Descriptor is the wire-facing tool definition.
type Descriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Registry holds all available tools.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	if t.Name() == "" {
		panic("tool: empty tool name")
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Descriptors() []Descriptor {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		descriptors = append(descriptors, Descriptor{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return descriptors
}
