package metrics

import (
	"fmt"
	"sync"
	"time"
)

// SessionMetrics collects per-interview counters: buffered media volume,
// recognition activity and answer totals.
type SessionMetrics struct {
	SessionID        string
	StartTime        time.Time
	EndTime          time.Time
	VideoBytes       int
	TranscriptLength int
	PartialCount     int
	FinalCount       int
	AnswerCount      int
	FirstResultTime  *time.Time
	mu               sync.Mutex
}

func NewSessionMetrics(sessionID string) *SessionMetrics {
	return &SessionMetrics{
		SessionID: sessionID,
		StartTime: time.Now(),
	}
}

func (m *SessionMetrics) AddChunkBytes(bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VideoBytes += bytes
}

func (m *SessionMetrics) AddRecognition(text string, isFinal bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FirstResultTime == nil {
		now := time.Now()
		m.FirstResultTime = &now
	}

	if isFinal {
		m.TranscriptLength += len(text)
		m.FinalCount++
	} else {
		m.PartialCount++
	}
}

func (m *SessionMetrics) AddAnswer(videoBytes, transcriptLen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnswerCount++
}

func (m *SessionMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

func (m *SessionMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.EndTime.Sub(m.StartTime)
	var latency time.Duration
	if m.FirstResultTime != nil {
		latency = m.FirstResultTime.Sub(m.StartTime)
	}

	return fmt.Sprintf(
		"Session: %s\n"+
			"Duration: %v\n"+
			"Answers: %d\n"+
			"Video Bytes: %d\n"+
			"Transcript Length: %d chars\n"+
			"First Result Latency: %v\n"+
			"Partial Results: %d\n"+
			"Final Results: %d\n",
		m.SessionID,
		duration,
		m.AnswerCount,
		m.VideoBytes,
		m.TranscriptLength,
		latency,
		m.PartialCount,
		m.FinalCount,
	)
}
