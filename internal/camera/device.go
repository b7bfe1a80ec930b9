// Package camera models image acquisition as an explicit media session:
// exclusive stream acquisition, a capture step that rasterizes one frame,
// and guaranteed release on every exit path. The device behind the session
// is an interface so the pipeline stays decoupled from any particular
// capture backend.
package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNoDevice is returned when no capture device is present.
	ErrNoDevice = errors.New("no camera device available")
	// ErrPermissionDenied is returned when the device refuses access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrStreamBusy is returned when another session already holds the
	// stream; acquisition is exclusive.
	ErrStreamBusy = errors.New("camera stream already in use")
)

// Stream is an open video stream. Frame rasterizes the current frame into
// an encoded image (JPEG bytes). Close releases the underlying resource
// and is safe to call more than once.
type Stream interface {
	Frame(ctx context.Context) ([]byte, error)
	Close() error
}

// Device opens streams. Open fails fast on missing hardware or denied
// permission; such failures are fatal for the attempt, not the session.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// FileDevice simulates a camera by serving encoded frames from image files
// in a directory, in lexical order, wrapping around. Useful for the CLI
// capture command and for tests.
type FileDevice struct {
	dir string

	mu   sync.Mutex
	next int
}

// NewFileDevice builds a simulated device over dir.
func NewFileDevice(dir string) *FileDevice {
	return &FileDevice{dir: dir}
}

// Open validates the directory holds at least one frame and returns a
// stream over it.
func (d *FileDevice) Open(_ context.Context) (Stream, error) {
	frames, err := d.frames()
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrNoDevice
	}
	return &fileStream{device: d, frames: frames}, nil
}

func (d *FileDevice) frames() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, ErrPermissionDenied
		}
		return nil, ErrNoDevice
	}
	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			frames = append(frames, filepath.Join(d.dir, e.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

type fileStream struct {
	device *FileDevice
	frames []string

	mu     sync.Mutex
	closed bool
}

func (s *fileStream) Frame(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("stream closed")
	}
	s.mu.Unlock()

	s.device.mu.Lock()
	idx := s.device.next % len(s.frames)
	s.device.next++
	s.device.mu.Unlock()

	data, err := os.ReadFile(s.frames[idx])
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return data, nil
}

func (s *fileStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
