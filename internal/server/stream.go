package server

import (
	"context"
	"sync"

	"github.com/Bhardwaj-Devesh/recorder/internal/capture"
	"github.com/Bhardwaj-Devesh/recorder/internal/interview"
)

// helloFrame is the first frame a client must send after connecting.
type helloFrame struct {
	Type      string `json:"type"`
	LaunchURL string `json:"launch_url"`
}

// commandFrame drives the recording engine: initiate, stop, rerecord,
// next, submit.
type commandFrame struct {
	Type string `json:"type"`
}

// serverFrame is everything the server sends: the initial session snapshot,
// engine events, or a fatal error.
type serverFrame struct {
	Type    string              `json:"type"`
	Session *interview.Snapshot `json:"session,omitempty"`
	Event   *interview.Event    `json:"event,omitempty"`
	Message string              `json:"message,omitempty"`
}

// connDevice adapts a WebSocket connection into a capture.Device: binary
// frames fed by the read loop fan out to every open stream.
type connDevice struct {
	mu      sync.Mutex
	streams map[*connStream]struct{}
}

func newConnDevice() *connDevice {
	return &connDevice{streams: make(map[*connStream]struct{})}
}

func (d *connDevice) Open(_ context.Context) (capture.Stream, error) {
	st := &connStream{
		ch:  make(chan []byte, 32),
		dev: d,
	}
	d.mu.Lock()
	d.streams[st] = struct{}{}
	d.mu.Unlock()
	return st, nil
}

// feed copies the chunk and delivers it to every open stream. Slow
// consumers drop chunks rather than stall the connection read loop.
func (d *connDevice) feed(p []byte) {
	buf := make([]byte, len(p))
	copy(buf, p)

	d.mu.Lock()
	defer d.mu.Unlock()
	for st := range d.streams {
		select {
		case st.ch <- buf:
		default:
		}
	}
}

func (d *connDevice) remove(st *connStream) {
	d.mu.Lock()
	delete(d.streams, st)
	d.mu.Unlock()
}

type connStream struct {
	ch   chan []byte
	dev  *connDevice
	once sync.Once
}

func (s *connStream) Chunks() <-chan []byte { return s.ch }

func (s *connStream) Close() error {
	s.once.Do(func() {
		// Unregister first so feed can never hit a closed channel.
		s.dev.remove(s)
		close(s.ch)
	})
	return nil
}
