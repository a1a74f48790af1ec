// Package main provides the system control plugin.
// It sets the output volume, reports the volume range and takes screenshots.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
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

// VolumeParams carries an absolute level within the reported range.
type VolumeParams struct {
	Level float64 `json:"level"`
}

// VolumeRange is the range set-volume accepts.
type VolumeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ScreenshotParams names the output file.
type ScreenshotParams struct {
	Path string `json:"path"`
}

// Levels are percentages on every supported platform.
var volumeRange = VolumeRange{Min: 0, Max: 100}

// actionHandler handles one action and may return response data.
type actionHandler func(params json.RawMessage) (any, error)

var actionHandlers = map[string]actionHandler{
	"set-volume":   setVolume,
	"volume-range": getVolumeRange,
	"screenshot":   screenshot,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	data, err := handler(req.Params)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(data)
}

func getVolumeRange(json.RawMessage) (any, error) {
	return volumeRange, nil
}

func setVolume(params json.RawMessage) (any, error) {
	var p VolumeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}

	pct := percent(p.Level)
	switch runtime.GOOS {
	case "darwin":
		return nil, run("osascript", "-e", fmt.Sprintf("set volume output volume %d", pct))
	case "linux":
		return nil, run("pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%d%%", pct))
	default:
		return nil, fmt.Errorf("volume control is not supported on %s", runtime.GOOS)
	}
}

// percent clamps level to the volume range and rounds it to a whole percent.
func percent(level float64) int {
	level = math.Max(volumeRange.Min, math.Min(volumeRange.Max, level))
	return int(math.Round(level))
}

func screenshot(params json.RawMessage) (any, error) {
	var p ScreenshotParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("failed to parse params: %w", err)
		}
	}
	if p.Path == "" {
		return nil, errors.New("path is required")
	}

	switch runtime.GOOS {
	case "darwin":
		return nil, run("screencapture", "-x", p.Path)
	case "linux":
		return nil, run("import", "-window", "root", p.Path)
	default:
		return nil, fmt.Errorf("screenshots are not supported on %s", runtime.GOOS)
	}
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse(data any) {
	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("failed to encode data: %v", err))
			return
		}
		resp.Data = raw
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
