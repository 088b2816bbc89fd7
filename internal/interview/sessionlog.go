package interview

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SessionLogger writes structured JSONL session events to a file.
type SessionLogger struct {
	mu   sync.Mutex
	file *os.File
}

type logRecord struct {
	Timestamp string            `json:"ts"`
	Event     string            `json:"event"`
	SessionID string            `json:"session_id"`
	Question  int               `json:"question,omitempty"`
	Phase     string            `json:"phase,omitempty"`
	Text      string            `json:"text,omitempty"`
	Message   string            `json:"message,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewSessionLogger creates a logger under outputDir. Filename is timestamp
// plus a short session id.
func NewSessionLogger(outputDir, sessionID string, started time.Time) (*SessionLogger, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	shortID := sessionID
	if len(sessionID) > 8 {
		shortID = sessionID[:8]
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_interview_%s.jsonl", started.Format("20060102_150405"), shortID))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &SessionLogger{file: f}, nil
}

func (sl *SessionLogger) Close() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file != nil {
		err := sl.file.Close()
		sl.file = nil
		return err
	}
	return nil
}

func (sl *SessionLogger) write(rec logRecord) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file == nil {
		return
	}
	rec.Text = strings.TrimSpace(rec.Text)
	enc := json.NewEncoder(sl.file)
	_ = enc.Encode(rec)
}

func (sl *SessionLogger) LogSessionStart(sessionID string, questionCount int) {
	sl.write(logRecord{Timestamp: now(), Event: "session_start", SessionID: sessionID,
		Details: map[string]string{"questions": fmt.Sprintf("%d", questionCount)}})
}

func (sl *SessionLogger) LogPhase(sessionID string, question int, phase string) {
	sl.write(logRecord{Timestamp: now(), Event: "phase", SessionID: sessionID, Question: question, Phase: phase})
}

func (sl *SessionLogger) LogTranscript(sessionID string, question int, text string) {
	sl.write(logRecord{Timestamp: now(), Event: "transcript", SessionID: sessionID, Question: question, Text: text})
}

func (sl *SessionLogger) LogReRecord(sessionID string, question int) {
	sl.write(logRecord{Timestamp: now(), Event: "rerecord", SessionID: sessionID, Question: question})
}

func (sl *SessionLogger) LogAnswer(sessionID string, question int, transcript string) {
	sl.write(logRecord{Timestamp: now(), Event: "answer", SessionID: sessionID, Question: question, Text: transcript})
}

func (sl *SessionLogger) LogSubmitAttempt(sessionID string, answerCount int) {
	sl.write(logRecord{Timestamp: now(), Event: "submit_attempt", SessionID: sessionID,
		Details: map[string]string{"answers": fmt.Sprintf("%d", answerCount)}})
}

func (sl *SessionLogger) LogSubmitted(sessionID string) {
	sl.write(logRecord{Timestamp: now(), Event: "submitted", SessionID: sessionID})
}

func (sl *SessionLogger) LogError(sessionID, message string) {
	sl.write(logRecord{Timestamp: now(), Event: "error", SessionID: sessionID, Message: message})
}

func now() string {
	return time.Now().Format(time.RFC3339Nano)
}
