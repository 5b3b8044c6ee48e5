// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package tools declares the capabilities the model may call and executes
// them on its behalf. Every failure is data: an Execute call never returns
// a Go error, it returns a failed Result that is fed back to the model.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dmolins/convo/pkg/errors"
	"github.com/dmolins/convo/pkg/llm"
)

// Tool is one callable capability: its model-facing schema plus the
// executor that performs the real work.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON-Schema-shaped object: {"type":"object",
	// "properties":{...},"required":[...]}.
	Parameters map[string]any
	Exec       func(ctx context.Context, args map[string]any) (any, error)
}

// Result is the outcome of a capability call.
type Result struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// JSON renders the result for a tool-role message.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"ok":false,"error":"result not serializable"}`
	}
	return string(b)
}

// protocolFailure marks results caused by the model violating the
// function-calling contract: unknown tools, unparseable or mis-typed
// arguments. The MODEL_PROTOCOL tag survives into the tool-role message.
func protocolFailure(format string, args ...any) Result {
	err := errors.New(errors.CodeModelProtocol, fmt.Sprintf(format, args...), nil)
	return Result{OK: false, Error: err.Error()}
}

// Registry holds the fixed, statically-known capability set.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a registry with the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name] = t
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name] = t
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the tool list in the shape the model's
// function-calling protocol requires.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		defs = append(defs, llm.Tool{
			Type: llm.ToolTypeFunction,
			Function: llm.FunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}

// Execute validates the model-supplied arguments against the tool's schema
// and runs the executor. Unknown tools, malformed argument JSON, schema
// mismatches and executor errors all come back as failed Results so the
// conversation can continue gracefully.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) Result {
	t, ok := r.tools[name]
	if !ok {
		return protocolFailure("unknown tool %q", name)
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return protocolFailure("invalid arguments for %s: %v", name, err)
		}
	}

	if err := validateArgs(t.Parameters, args); err != nil {
		return protocolFailure("invalid arguments for %s: %v", name, err)
	}

	data, err := t.Exec(ctx, args)
	if err != nil {
		return Result{OK: false, Error: err.Error()}
	}
	return Result{OK: true, Data: data}
}

// validateArgs checks required presence and primitive types against the
// declared schema. Properties the schema does not declare are rejected.
func validateArgs(schema map[string]any, args map[string]any) error {
	props, _ := schema["properties"].(map[string]any)

	if required, ok := schema["required"].([]string); ok {
		for _, name := range required {
			if _, present := args[name]; !present {
				return fmt.Errorf("missing required argument %q", name)
			}
		}
	}

	for name, value := range args {
		decl, ok := props[name].(map[string]any)
		if !ok {
			return fmt.Errorf("unexpected argument %q", name)
		}
		if err := checkType(name, decl, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name string, decl map[string]any, value any) error {
	declared, _ := decl["type"].(string)
	switch declared {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
	case "integer":
		// JSON numbers decode as float64; accept whole numbers only.
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("argument %q must be an integer", name)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	}
	return nil
}

// String helpers shared by the tool constructors.

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string, fallback int) int {
	f, ok := args[name].(float64)
	if !ok {
		return fallback
	}
	return int(f)
}
