// ABOUTME: Registry of gateway tools with JSON-schema validation of call arguments
// ABOUTME: The error boundary between external callers and the orchestration core

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrToolNotFound indicates the requested tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// ValidationError reports arguments that failed the tool's input schema.
// No handler runs and no state is touched when validation fails.
type ValidationError struct {
	Tool   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Detail)
}

// Handler executes a tool call with already-validated arguments.
type Handler func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)

// Tool pairs a definition with its handler. InputSchema is a JSON Schema
// document enforcing the required/type/enum checks the operation declares.
type Tool struct {
	Name        string
	Description string
	InputSchema string
	Handler     Handler
}

// Info is the externally visible slice of a tool definition.
type Info struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Registry holds the gateway's tools and dispatches calls to them.
type Registry struct {
	tools   map[string]*Tool
	schemas map[string]*jsonschema.Schema
	order   []string
	logger  *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:   make(map[string]*Tool),
		schemas: make(map[string]*jsonschema.Schema),
		logger:  logger.With("component", "tools"),
	}
}

// Register adds a tool, compiling its input schema. Returns
// ErrToolCollision if the name is taken, or a compile error for a
// malformed schema — both are programming errors caught at boot.
func (r *Registry) Register(t *Tool) error {
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolCollision, t.Name)
	}

	compiler := jsonschema.NewCompiler()
	resource := t.Name + ".schema.json"
	if err := compiler.AddResource(resource, strings.NewReader(t.InputSchema)); err != nil {
		return fmt.Errorf("adding schema for %s: %w", t.Name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("compiling schema for %s: %w", t.Name, err)
	}

	r.tools[t.Name] = t
	r.schemas[t.Name] = schema
	r.order = append(r.order, t.Name)
	return nil
}

// RegisterAll registers every tool, failing fast on the first error.
func (r *Registry) RegisterAll(tools []*Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// List returns tool definitions in registration order.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		infos = append(infos, Info{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: json.RawMessage(t.InputSchema),
		})
	}
	return infos
}

// Call validates args against the tool's schema and invokes its handler.
// Returns ErrToolNotFound for unknown names and *ValidationError for
// schema mismatches; handler panics are caught and surfaced as errors so
// nothing escapes across the boundary.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (result json.RawMessage, err error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	var decoded any
	if jsonErr := json.Unmarshal(args, &decoded); jsonErr != nil {
		return nil, &ValidationError{Tool: name, Detail: "arguments are not valid JSON"}
	}
	if schemaErr := r.schemas[name].Validate(decoded); schemaErr != nil {
		return nil, &ValidationError{Tool: name, Detail: schemaErr.Error()}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", "tool", name, "panic", rec)
			result = nil
			err = fmt.Errorf("internal error in %s", name)
		}
	}()

	return t.Handler(ctx, args)
}
