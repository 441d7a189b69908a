package browser

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FrameWriter stores screencast frames as numbered JPEG files
type FrameWriter struct {
	mu    sync.Mutex
	dir   string
	limit int
	count int
	ready bool
}

// NewFrameWriter writes at most limit frames into dir; limit <= 0 means unlimited
func NewFrameWriter(dir string, limit int) *FrameWriter {
	return &FrameWriter{dir: dir, limit: limit}
}

// Write decodes a base64 frame and stores it. Frames beyond the limit are dropped
// and reported with an empty path.
func (w *FrameWriter) Write(data string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.limit > 0 && w.count >= w.limit {
		return "", nil
	}

	frame, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode screencast frame: %w", err)
	}

	if !w.ready {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create video directory %s: %w", w.dir, err)
		}
		w.ready = true
	}

	w.count++
	path := filepath.Join(w.dir, fmt.Sprintf("frame_%05d.jpg", w.count))
	if err := os.WriteFile(path, frame, 0644); err != nil {
		w.count--
		return "", fmt.Errorf("failed to write screencast frame: %w", err)
	}
	return path, nil
}

// Count returns the number of frames written
func (w *FrameWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Dir returns the directory frames are written to
func (w *FrameWriter) Dir() string {
	return w.dir
}
