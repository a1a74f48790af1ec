package server

import (
	"fmt"
	"net/http"
	"time"
)

const defaultStreamInterval = 66 * time.Millisecond // ~15 FPS

// SnapshotSource supplies the latest JPEG-encoded frame.
type SnapshotSource interface {
	Snapshot() ([]byte, bool)
}

// StreamHandler serves the preview frames as MJPEG.
type StreamHandler struct {
	source   SnapshotSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler. A non-positive interval uses ~15 FPS.
func NewStreamHandler(source SnapshotSource, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &StreamHandler{source: source, interval: interval}
}

// ServeHTTP streams MJPEG frames until the client goes away. It answers 503
// when no preview frame is available.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := h.source.Snapshot(); !ok {
		http.Error(w, "preview unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if jpeg, ok := h.source.Snapshot(); ok {
			if err := writePart(w, jpeg); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
