package interview

// EventType tags engine events pushed to the presentation layer.
type EventType string

const (
	// EventPhase reports a phase transition.
	EventPhase EventType = "phase"
	// EventCountdown carries the remaining pre-recording countdown seconds.
	EventCountdown EventType = "countdown"
	// EventTick carries the remaining recording seconds.
	EventTick EventType = "tick"
	// EventTranscript carries the live transcript after a recognition event.
	EventTranscript EventType = "transcript"
	// EventNotice is a transient, dismissible user-visible notification.
	EventNotice EventType = "notice"
	// EventSubmitted marks the terminal successful submission.
	EventSubmitted EventType = "submitted"
)

// Event is one engine-to-presentation update.
type Event struct {
	Type       EventType `json:"type"`
	Phase      string    `json:"phase,omitempty"`
	Question   int       `json:"question"`
	Answered   int       `json:"answered"`
	Countdown  int       `json:"countdown,omitempty"`
	TimeLeft   int       `json:"time_left,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Message    string    `json:"message,omitempty"`
}
