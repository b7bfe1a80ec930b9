package camera

import (
	"context"
	"sync"
)

// State is one stage of the capture flow.
type State string

const (
	StateIdle                 State = "idle"
	StateCameraRequested      State = "camera_requested"
	StateStreamActive         State = "stream_active"
	StateCaptured             State = "captured"
	StateClassifying          State = "classifying"
	StateClassified           State = "classified"
	StateClassificationFailed State = "classification_failed"
)

// Guard enforces the one-active-stream invariant. Acquisition is exclusive;
// a second acquire fails with ErrStreamBusy rather than blocking.
type Guard struct {
	mu     sync.Mutex
	active int
}

// NewGuard builds an independent guard. Production code shares one guard
// per process; tests create their own so they can assert on the counter.
func NewGuard() *Guard {
	return &Guard{}
}

func (g *Guard) acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active > 0 {
		return ErrStreamBusy
	}
	g.active++
	return nil
}

func (g *Guard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active > 0 {
		g.active--
	}
}

// ActiveStreams reports how many streams are currently held.
func (g *Guard) ActiveStreams() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Session is one scoped camera acquisition. The zero value is unusable;
// build one with NewSession. State transitions:
//
//	Idle -> CameraRequested -> StreamActive -> Captured -> Classifying
//	      -> {Classified, ClassificationFailed}
//
// with Idle reachable from any state via Cancel or Close. The stream is
// released on every exit path, capture included.
type Session struct {
	device Device
	guard  *Guard

	mu     sync.Mutex
	state  State
	stream Stream
	closed bool
}

// NewSession prepares an idle session over a device. A nil guard gets a
// private one.
func NewSession(device Device, guard *Guard) *Session {
	if guard == nil {
		guard = NewGuard()
	}
	return &Session{device: device, guard: guard, state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OpenCamera acquires the exclusive stream handle. On failure the session
// returns to Idle and the error goes to the caller; the session remains
// usable for another attempt.
func (s *Session) OpenCamera(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNoDevice
	}
	s.state = StateCameraRequested
	s.mu.Unlock()

	if err := s.guard.acquire(); err != nil {
		s.toIdle()
		return err
	}
	stream, err := s.device.Open(ctx)
	if err != nil {
		s.guard.release()
		s.toIdle()
		return err
	}

	s.mu.Lock()
	if s.closed {
		// The host went away while we were opening; release immediately.
		s.mu.Unlock()
		stream.Close()
		s.guard.release()
		return ErrNoDevice
	}
	s.stream = stream
	s.state = StateStreamActive
	s.mu.Unlock()
	return nil
}

// Capture rasterizes a single frame and releases the live stream right
// away, before any classification happens.
func (s *Session) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if s.state != StateStreamActive || s.stream == nil {
		s.mu.Unlock()
		return nil, ErrNoDevice
	}
	stream := s.stream
	s.mu.Unlock()

	frame, err := stream.Frame(ctx)
	// Release regardless of the frame outcome.
	s.releaseStream()
	if err != nil {
		s.toIdle()
		return nil, err
	}

	s.mu.Lock()
	s.state = StateCaptured
	s.mu.Unlock()
	return frame, nil
}

// Cancel abandons the current attempt and returns to Idle, releasing any
// open stream.
func (s *Session) Cancel() {
	s.releaseStream()
	s.toIdle()
}

// Close tears the session down, as when the host dialog closes. Any open
// stream is released; an in-flight classification result will be ignored.
func (s *Session) Close() {
	s.releaseStream()
	s.mu.Lock()
	s.closed = true
	s.state = StateIdle
	s.mu.Unlock()
}

// Closed reports whether the session was torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) releaseStream() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()
	if stream != nil {
		stream.Close()
		s.guard.release()
	}
}

func (s *Session) toIdle() {
	s.mu.Lock()
	if !s.closed {
		s.state = StateIdle
	}
	s.mu.Unlock()
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if !s.closed {
		s.state = state
	}
	s.mu.Unlock()
}
