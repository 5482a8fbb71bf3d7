package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Tool is an executable tool. Eino tools implement ToolInfo + InvokableRun.
type Tool interface {
	Info(ctx context.Context) (*schema.ToolInfo, error)
	InvokableRun(ctx context.Context, args string, opts ...tool.Option) (string, error)
}

// Registry manages tools by name and records which of them are read-only.
// A read-only tool may run without human confirmation; everything else goes
// through the approval boundary.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registration
}

type registration struct {
	tool     Tool
	readOnly bool
}

// NewRegistry creates a new registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registration)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool, readOnly bool) error {
	info, err := tool.Info(context.Background())
	if err != nil {
		return err
	}
	if info == nil || info.Name == "" {
		return fmt.Errorf("tool info missing name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[info.Name]; exists {
		return fmt.Errorf("tool already registered: %s", info.Name)
	}
	r.tools[info.Name] = registration{tool: tool, readOnly: readOnly}
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.tools[name]
	return reg.tool, ok
}

// ReadOnly reports whether a registered tool is read-only. Unknown names
// are not read-only.
func (r *Registry) ReadOnly(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.tools[name]
	return ok && reg.readOnly
}

// Execute runs a tool by name with raw JSON arguments.
func (r *Registry) Execute(ctx context.Context, name, args string) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return t.InvokableRun(ctx, args)
}

// Infos returns tool metadata for binding to a chat model.
func (r *Registry) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, reg := range r.tools {
		info, err := reg.tool.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}
