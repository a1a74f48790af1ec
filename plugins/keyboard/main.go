// Package main provides the keyboard plugin.
// It presses hotkey combinations via AppleScript on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HotkeyParams lists modifiers first and the key last, e.g. ["ctrl", "+"].
type HotkeyParams struct {
	Keys []string `json:"keys"`
}

// appleModifiers maps modifier names to AppleScript "using" clauses.
var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdotoolKeys maps punctuation to X keysym names.
var xdotoolKeys = map[string]string{
	"+": "plus",
	"-": "minus",
	"=": "equal",
	" ": "space",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "hotkey":
		if err := handleHotkey(req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

func handleHotkey(params json.RawMessage) error {
	var p HotkeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if len(p.Keys) == 0 || p.Keys[len(p.Keys)-1] == "" {
		return errors.New("keys are required")
	}

	switch runtime.GOOS {
	case "darwin":
		return run("osascript", "-e", appleScript(p.Keys))
	case "linux":
		return run("xdotool", "key", "--clearmodifiers", xdotoolChord(p.Keys))
	default:
		return fmt.Errorf("hotkeys are not supported on %s", runtime.GOOS)
	}
}

// appleScript builds a System Events keystroke for keys.
func appleScript(keys []string) string {
	key := keys[len(keys)-1]

	var mods []string
	for _, k := range keys[:len(keys)-1] {
		if m, ok := appleModifiers[strings.ToLower(k)]; ok {
			mods = append(mods, m)
		}
	}

	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(mods, ", "))
}

// xdotoolChord joins keys into an xdotool chord such as "ctrl+plus".
func xdotoolChord(keys []string) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if sym, ok := xdotoolKeys[k]; ok {
			k = sym
		}
		out[i] = k
	}
	return strings.Join(out, "+")
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
