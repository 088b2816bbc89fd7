package recognition

import (
	"context"
	"fmt"
	"sync"
)

// UnsupportedTranscript is the sentinel shown when no speech recognition
// capability is available. Questions answered under it can never advance.
const UnsupportedTranscript = "Speech recognition not supported."

// Result is a single recognition event. Interim results replace the previous
// interim segment; final results are appended to the accumulated transcript.
type Result struct {
	Text  string
	Final bool
}

// Recognizer is the speech recognition capability for one recording. It is
// single-use: Start once, Stop once; Results closes after Stop once the
// provider has flushed any trailing segments.
type Recognizer interface {
	Start(ctx context.Context) error
	ProcessAudio(audioData []byte) error
	Results() <-chan Result
	Stop() error
}

// Factory produces a fresh recognizer per recording session.
type Factory func() (Recognizer, error)

// NewFactory selects the recognizer implementation by provider name.
func NewFactory(provider, serverURL string, sampleRate int) (Factory, error) {
	switch provider {
	case "stream":
		return func() (Recognizer, error) {
			return NewStreamRecognizer(serverURL, sampleRate), nil
		}, nil
	case "unsupported":
		return func() (Recognizer, error) {
			return NewUnsupported(), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown recognition provider: %s", provider)
	}
}

// Unsupported stands in when the platform offers no speech recognition.
// It emits the sentinel transcript once and nothing else.
type Unsupported struct {
	results  chan Result
	stopOnce sync.Once
}

func NewUnsupported() *Unsupported {
	return &Unsupported{results: make(chan Result, 1)}
}

func (u *Unsupported) Start(_ context.Context) error {
	u.results <- Result{Text: UnsupportedTranscript, Final: true}
	return nil
}

func (u *Unsupported) ProcessAudio(_ []byte) error { return nil }

func (u *Unsupported) Results() <-chan Result { return u.results }

func (u *Unsupported) Stop() error {
	u.stopOnce.Do(func() { close(u.results) })
	return nil
}
