package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores available tools keyed by case-insensitive id.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry builds a registry from tools. Later tools with the same id win.
func NewRegistry(items ...Tool) (*Registry, error) {
	reg := &Registry{tools: map[string]Tool{}}
	for _, item := range items {
		if err := reg.Register(item); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func key(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Register inserts a tool, replacing any tool with the same id.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidTool)
	}
	id := key(tool.ID())
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTool)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[id] = tool
	return nil
}

// Get returns a tool by id.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[key(id)]
	return tool, ok
}

// All returns a snapshot of the registered tools. Callers must not rely on order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].ID()) < key(out[j].ID()) })
	return out
}

// IDs returns sorted tool ids.
func (r *Registry) IDs() []string {
	tools := r.All()
	ids := make([]string, 0, len(tools))
	for _, tool := range tools {
		ids = append(ids, tool.ID())
	}
	return ids
}
