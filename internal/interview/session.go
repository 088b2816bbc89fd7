package interview

import (
	"github.com/google/uuid"
)

// Phase is the single active state of an interview session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseRecording
	PhaseTimerComplete
	PhaseConfirmSubmit
	PhaseSubmitting
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseRecording:
		return "recording"
	case PhaseTimerComplete:
		return "timer_complete"
	case PhaseConfirmSubmit:
		return "confirm_submit"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Answer holds one question's recorded video and transcript. Appended in
// question order and immutable once appended.
type Answer struct {
	Video      []byte
	Transcript string
}

// Session is the per-interview state, owned exclusively by the engine and
// mutated only through its defined transitions.
type Session struct {
	ID        uuid.UUID
	Questions []string
	Current   int
	Answers   []Answer
	Phase     Phase
}

func NewSession(questions []string) *Session {
	return &Session{
		ID:        uuid.New(),
		Questions: questions,
		Phase:     PhaseIdle,
	}
}

// Snapshot is the engine state as presented to a UI client.
type Snapshot struct {
	SessionID  string   `json:"session_id"`
	Phase      string   `json:"phase"`
	Questions  []string `json:"questions"`
	Question   int      `json:"question"`
	Answered   int      `json:"answered"`
	Transcript string   `json:"transcript"`
}
