package capture

import (
	"sync"
)

// Options describe how a capture session encodes its buffer. The values are
// recorded alongside the buffered data; encoding itself happens upstream at
// the device.
type Options struct {
	MimeType           string
	VideoBitsPerSecond int
}

// Recorder buffers a stream's chunks in memory for the current question.
// An optional sink receives every chunk as it arrives, which is how live
// transcription taps the media without a second stream.
type Recorder struct {
	mu        sync.Mutex
	stream    Stream
	opts      Options
	sink      func([]byte)
	chunks    [][]byte
	recording bool
	done      chan struct{}
}

func NewRecorder(stream Stream, opts Options, sink func([]byte)) *Recorder {
	return &Recorder{
		stream: stream,
		opts:   opts,
		sink:   sink,
		done:   make(chan struct{}),
	}
}

// Start begins draining the stream into the in-memory buffer.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return ErrNoStream
	}
	if r.recording {
		return nil
	}
	r.recording = true
	r.chunks = r.chunks[:0]

	go r.drain()
	return nil
}

func (r *Recorder) drain() {
	for {
		select {
		case chunk, ok := <-r.stream.Chunks():
			if !ok {
				return
			}
			if len(chunk) == 0 {
				continue
			}
			r.mu.Lock()
			if r.recording {
				r.chunks = append(r.chunks, chunk)
			}
			sink := r.sink
			r.mu.Unlock()
			if sink != nil {
				sink(chunk)
			}
		case <-r.done:
			return
		}
	}
}

// Stop ends buffering. It is a no-op when not recording.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}
	r.recording = false
	close(r.done)
}

// Discard drops all buffered data for a re-record.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = nil
}

// Bytes joins the buffered chunks into the recorded payload.
func (r *Recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var size int
	for _, c := range r.chunks {
		size += len(c)
	}
	out := make([]byte, 0, size)
	for _, c := range r.chunks {
		out = append(out, c...)
	}
	return out
}

// Options returns the encoding parameters this session was opened with.
func (r *Recorder) Options() Options {
	return r.opts
}

// Recording reports whether the capture session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
