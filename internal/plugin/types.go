// Package plugin discovers OS effector plugins and runs them over a
// JSON-on-stdio protocol: one Request on stdin, one Response on stdout.
package plugin

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Manifest is the content of a plugin's plugin.json.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Request is sent to a plugin's stdin.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// NewRequest builds a request, encoding params as JSON. A nil params is omitted.
func NewRequest(action string, params any) (*Request, error) {
	req := &Request{Action: action}
	if params == nil {
		return req, nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s params: %w", action, err)
	}
	req.Params = raw
	return req, nil
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action.
func (p *Plugin) Supports(action string) bool {
	return slices.Contains(p.Manifest.Actions, action)
}
