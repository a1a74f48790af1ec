// Package main provides the pointer plugin.
// It moves the pointer, clicks and scrolls via cliclick on macOS and xdotool on
// Linux, and reports the display size.
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"unicode"
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

// MoveParams is an absolute screen position.
type MoveParams struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClickParams names the button, "left" or "right".
type ClickParams struct {
	Button string `json:"button"`
}

// ScrollParams is a wheel delta; positive scrolls up.
type ScrollParams struct {
	Delta int `json:"delta"`
}

// ScreenSize is the display size in pixels.
type ScreenSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// wheelStep is the number of delta units per wheel notch.
const wheelStep = 10

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action == "screen-size" {
		size, err := screenSize(runtime.GOOS)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
		writeDataResponse(size)
		return
	}

	args, err := commandFor(runtime.GOOS, req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if err := run(args[0], args[1:]...); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

// commandFor translates a request into the command line for goos.
func commandFor(goos string, req Request) ([]string, error) {
	switch goos {
	case "darwin", "linux":
	default:
		return nil, fmt.Errorf("pointer control is not supported on %s", goos)
	}

	switch req.Action {
	case "move":
		var p MoveParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, fmt.Errorf("failed to parse params: %w", err)
		}
		x, y := int(math.Round(p.X)), int(math.Round(p.Y))
		if goos == "darwin" {
			return []string{"cliclick", fmt.Sprintf("m:%d,%d", x, y)}, nil
		}
		return []string{"xdotool", "mousemove", "--", strconv.Itoa(x), strconv.Itoa(y)}, nil

	case "click":
		var p ClickParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, fmt.Errorf("failed to parse params: %w", err)
		}
		switch p.Button {
		case "", "left":
			if goos == "darwin" {
				return []string{"cliclick", "c:."}, nil
			}
			return []string{"xdotool", "click", "1"}, nil
		case "right":
			if goos == "darwin" {
				return []string{"cliclick", "rc:."}, nil
			}
			return []string{"xdotool", "click", "3"}, nil
		default:
			return nil, fmt.Errorf("unknown button: %s", p.Button)
		}

	case "scroll":
		var p ScrollParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, fmt.Errorf("failed to parse params: %w", err)
		}
		if goos == "darwin" {
			return nil, fmt.Errorf("scroll is not supported on %s", goos)
		}
		button := "4"
		if p.Delta < 0 {
			button = "5"
		}
		notches := max(1, abs(p.Delta)/wheelStep)
		return []string{"xdotool", "click", "--repeat", strconv.Itoa(notches), button}, nil

	default:
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}
}

// screenSizeCommand returns the command that prints the display geometry.
func screenSizeCommand(goos string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"osascript", "-e", `tell application "Finder" to get bounds of window of desktop`}, nil
	case "linux":
		return []string{"xdotool", "getdisplaygeometry"}, nil
	default:
		return nil, fmt.Errorf("screen size is not supported on %s", goos)
	}
}

// parseScreenSize reads the last two numbers of out as width and height.
// xdotool prints "1920 1080"; Finder prints bounds as "0, 0, 2560, 1440".
func parseScreenSize(out string) (ScreenSize, error) {
	fields := strings.FieldsFunc(out, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) < 2 {
		return ScreenSize{}, fmt.Errorf("unexpected display geometry %q", strings.TrimSpace(out))
	}

	w, errW := strconv.Atoi(fields[len(fields)-2])
	h, errH := strconv.Atoi(fields[len(fields)-1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return ScreenSize{}, fmt.Errorf("unexpected display geometry %q", strings.TrimSpace(out))
	}
	return ScreenSize{Width: w, Height: h}, nil
}

func screenSize(goos string) (ScreenSize, error) {
	args, err := screenSizeCommand(goos)
	if err != nil {
		return ScreenSize{}, err
	}
	out, err := exec.Command(args[0], args[1:]...).Output()
	if err != nil {
		return ScreenSize{}, fmt.Errorf("%s: %w", args[0], err)
	}
	return parseScreenSize(string(out))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func writeDataResponse(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("failed to encode response: %v", err))
		return
	}
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
