package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// StreamRecognizer speaks the WebSocket protocol of a streaming
// speech-to-text server: binary frames of audio in, JSON results out with a
// "partial" field for interim segments and a "text" field for final ones.
type StreamRecognizer struct {
	serverURL  string
	sampleRate int

	mu      sync.Mutex
	conn    *websocket.Conn
	results chan Result
	stopped bool
}

type streamResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

func NewStreamRecognizer(serverURL string, sampleRate int) *StreamRecognizer {
	return &StreamRecognizer{
		serverURL:  serverURL,
		sampleRate: sampleRate,
		results:    make(chan Result, 100),
	}
}

// Start connects to the recognition server and begins the reader loop.
func (sr *StreamRecognizer) Start(ctx context.Context) error {
	url := fmt.Sprintf("%s/ws?sample_rate=%d", sr.serverURL, sr.sampleRate)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to recognition server: %w", err)
	}

	sr.mu.Lock()
	sr.conn = conn
	sr.mu.Unlock()

	go sr.handleResults(conn)
	return nil
}

// ProcessAudio forwards a media chunk to the recognition server.
func (sr *StreamRecognizer) ProcessAudio(audioData []byte) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.conn == nil || sr.stopped {
		return fmt.Errorf("recognizer not started")
	}
	if err := sr.conn.WriteMessage(websocket.BinaryMessage, audioData); err != nil {
		return fmt.Errorf("failed to send audio to recognition server: %w", err)
	}
	return nil
}

func (sr *StreamRecognizer) handleResults(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("Recognition WebSocket error: %v", err)
			}
			close(sr.results)
			return
		}

		var result streamResult
		if err := json.Unmarshal(message, &result); err != nil {
			log.Printf("Failed to parse recognition result: %v", err)
			continue
		}

		if result.Partial != "" {
			sr.results <- Result{Text: result.Partial, Final: false}
		}
		if result.Text != "" {
			sr.results <- Result{Text: result.Text, Final: true}
		}
	}
}

func (sr *StreamRecognizer) Results() <-chan Result {
	return sr.results
}

// Stop signals end of audio and closes the connection. Any result already
// in flight is delivered by the reader loop before Results closes.
func (sr *StreamRecognizer) Stop() error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.stopped {
		return nil
	}
	sr.stopped = true

	if sr.conn == nil {
		close(sr.results)
		return nil
	}
	if err := sr.conn.WriteMessage(websocket.TextMessage, []byte(`{"eof": 1}`)); err != nil {
		log.Printf("Failed to send EOF to recognition server: %v", err)
	}
	return sr.conn.Close()
}
