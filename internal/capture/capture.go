package capture

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	// ErrPermissionDenied means the user refused camera access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrDeviceUnavailable means the camera exists but cannot be opened,
	// typically because another application holds it.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrNoStream means a recording was requested without an acquired stream.
	ErrNoStream = errors.New("no active camera stream")
	// ErrRecordingFailed wraps failures of an active capture session.
	ErrRecordingFailed = errors.New("recording failed")
)

// Stream is a live camera stream. Chunks delivers encoded media at the
// device's chunk cadence; the channel closes when the stream ends.
type Stream interface {
	Chunks() <-chan []byte
	Close() error
}

// Device is the camera capability. Open either returns a live stream or an
// error classifiable as ErrPermissionDenied / ErrDeviceUnavailable.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Manager owns the camera stream lifecycle. The preview and the recording
// engine both read the current stream; only the manager opens and closes it.
type Manager struct {
	mu      sync.Mutex
	device  Device
	stream  Stream
	preview chan Stream
}

func NewManager(device Device) *Manager {
	return &Manager{
		device:  device,
		preview: make(chan Stream, 1),
	}
}

// Probe verifies camera permission by opening the device and immediately
// releasing it, so the camera is not held before recording actually starts.
func (m *Manager) Probe(ctx context.Context) error {
	stream, err := m.device.Open(ctx)
	if err != nil {
		return err
	}
	if err := stream.Close(); err != nil {
		log.Printf("Warning: failed to release probe stream: %v", err)
	}
	return nil
}

// Acquire opens the camera and makes the stream current, releasing any
// previous stream first. The new reference is pushed to the preview binding.
func (m *Manager) Acquire(ctx context.Context) (Stream, error) {
	stream, err := m.device.Open(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	old := m.stream
	m.stream = stream
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	m.notifyPreview(stream)
	return stream, nil
}

// Stream returns the current stream, or nil if none is acquired.
func (m *Manager) Stream() Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

// Release stops the current stream. Safe to call repeatedly; always called
// on teardown so the device is not held unnecessarily.
func (m *Manager) Release() {
	m.mu.Lock()
	stream := m.stream
	m.stream = nil
	m.mu.Unlock()

	if stream != nil {
		stream.Close()
		m.notifyPreview(nil)
	}
}

// Preview exposes the active stream reference. A new value is delivered
// whenever the reference changes, including nil on release.
func (m *Manager) Preview() <-chan Stream {
	return m.preview
}

// notifyPreview keeps only the latest reference in the preview channel.
func (m *Manager) notifyPreview(stream Stream) {
	select {
	case <-m.preview:
	default:
	}
	m.preview <- stream
}
