package interview

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Bhardwaj-Devesh/recorder/internal/capture"
	"github.com/Bhardwaj-Devesh/recorder/internal/metrics"
	"github.com/Bhardwaj-Devesh/recorder/internal/recognition"
)

// Submitter posts the completed transcript set to the remote service.
type Submitter interface {
	SubmitRoundAnswers(ctx context.Context, questions, answers []string, round string) error
}

// Options configure one engine instance.
type Options struct {
	CountdownSeconds int
	AnswerSeconds    int
	Round            string
	// TickInterval is one second in production; tests shorten it.
	TickInterval time.Duration
	Capture      capture.Options
}

// Engine drives one interview session through its recording phases. All
// mutable state lives on the engine and its session, never in globals, so
// concurrent sessions cannot interfere.
type Engine struct {
	mu        sync.Mutex
	session   *Session
	capture   *capture.Manager
	recognize recognition.Factory
	submitter Submitter
	opts      Options

	countdown *PhaseTimer
	timer     *PhaseTimer

	recorder   *capture.Recorder
	recognizer recognition.Recognizer
	finalText  string
	interim    string
	transcript string

	cancel chan struct{}
	events chan Event
	logger *SessionLogger
	stats  *metrics.SessionMetrics
	closed bool
}

// NewEngine builds an engine for an already-loaded question list. No
// questions means no recording flow; the caller must not construct an
// engine in that case.
func NewEngine(questions []string, mgr *capture.Manager, factory recognition.Factory, submitter Submitter, opts Options, logger *SessionLogger) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.CountdownSeconds <= 0 {
		opts.CountdownSeconds = 3
	}
	if opts.AnswerSeconds <= 0 {
		opts.AnswerSeconds = 5
	}

	session := NewSession(questions)
	e := &Engine{
		session:   session,
		capture:   mgr,
		recognize: factory,
		submitter: submitter,
		opts:      opts,
		cancel:    make(chan struct{}),
		events:    make(chan Event, 128),
		logger:    logger,
		stats:     metrics.NewSessionMetrics(session.ID.String()),
	}
	if logger != nil {
		logger.LogSessionStart(session.ID.String(), len(questions))
	}
	return e
}

// Events delivers engine updates for the presentation layer. The channel
// closes on Close.
func (e *Engine) Events() <-chan Event { return e.events }

// Session returns the session; tests and the gateway read it, only the
// engine writes it.
func (e *Engine) Session() *Session { return e.session }

// Snapshot captures the current presentable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		SessionID:  e.session.ID.String(),
		Phase:      e.session.Phase.String(),
		Questions:  e.session.Questions,
		Question:   e.session.Current,
		Answered:   len(e.session.Answers),
		Transcript: e.transcript,
	}
}

// InitiateRecording verifies camera permission with a probe, then enters
// Countdown. On permission failure the phase stays Idle and the error is
// surfaced as a notice.
func (e *Engine) InitiateRecording(ctx context.Context) {
	e.mu.Lock()
	if e.session.Phase != PhaseIdle {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if err := e.capture.Probe(ctx); err != nil {
		switch {
		case errors.Is(err, capture.ErrPermissionDenied):
			e.notify(MsgCameraPermission)
		case errors.Is(err, capture.ErrDeviceUnavailable):
			e.notify(MsgCameraInUse)
		default:
			e.notify(MsgUnknownError)
		}
		log.Printf("Session %s: camera probe failed: %v", e.session.ID, err)
		return
	}

	e.mu.Lock()
	if e.session.Phase != PhaseIdle {
		e.mu.Unlock()
		return
	}
	e.session.Phase = PhaseCountdown
	e.countdown = NewPhaseTimer(e.opts.TickInterval)
	countdown := e.countdown
	cancel := e.cancel
	e.mu.Unlock()

	e.logPhase()
	e.emit(Event{Type: EventPhase, Phase: PhaseCountdown.String(), Countdown: e.opts.CountdownSeconds})
	countdown.Start(e.opts.CountdownSeconds)
	go e.runCountdown(countdown, cancel)
}

// runCountdown relays countdown ticks and auto-starts recording when the
// countdown has fully elapsed. Recording is never user-triggered directly,
// so the user is always warned before capture begins.
func (e *Engine) runCountdown(t *PhaseTimer, cancel chan struct{}) {
	for {
		select {
		case n := <-t.Ticks():
			e.emit(Event{Type: EventCountdown, Countdown: n})
		case <-t.Done():
			e.startRecording()
			return
		case <-cancel:
			return
		}
	}
}

// startRecording opens the capture session and the recognition session in
// lockstep and enters Recording.
func (e *Engine) startRecording() {
	e.mu.Lock()
	if e.session.Phase != PhaseCountdown {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	stream := e.capture.Stream()
	if stream == nil {
		e.failRecording(MsgRecordingFailed, errors.New("no active camera stream"))
		return
	}

	recognizer, err := e.recognize()
	if err != nil {
		log.Printf("Session %s: recognition unavailable: %v", e.session.ID, err)
		recognizer = recognition.NewUnsupported()
	}

	recorder := capture.NewRecorder(stream, e.opts.Capture, func(chunk []byte) {
		e.stats.AddChunkBytes(len(chunk))
		if err := recognizer.ProcessAudio(chunk); err != nil {
			log.Printf("Session %s: failed to feed recognizer: %v", e.session.ID, err)
		}
	})
	if err := recorder.Start(); err != nil {
		e.failRecording(MsgRecordingFailed, err)
		return
	}
	if err := recognizer.Start(context.Background()); err != nil {
		log.Printf("Session %s: failed to start recognition: %v", e.session.ID, err)
	}

	e.mu.Lock()
	if e.session.Phase != PhaseCountdown {
		// A re-record landed while the capture session was being set up.
		e.mu.Unlock()
		recorder.Stop()
		recognizer.Stop()
		return
	}
	e.recorder = recorder
	e.recognizer = recognizer
	e.finalText = ""
	e.interim = ""
	e.transcript = ""
	e.session.Phase = PhaseRecording
	e.timer = NewPhaseTimer(e.opts.TickInterval)
	timer := e.timer
	cancel := e.cancel
	e.mu.Unlock()

	e.logPhase()
	e.emit(Event{Type: EventPhase, Phase: PhaseRecording.String(), TimeLeft: e.opts.AnswerSeconds})
	timer.Start(e.opts.AnswerSeconds)
	go e.runRecording(timer, recognizer, cancel)
}

func (e *Engine) failRecording(message string, err error) {
	log.Printf("Session %s: recording failed: %v", e.session.ID, err)
	e.mu.Lock()
	e.session.Phase = PhaseIdle
	e.mu.Unlock()
	e.notify(message)
	e.emit(Event{Type: EventPhase, Phase: PhaseIdle.String()})
}

// runRecording relays recording ticks and live recognition results until
// the timer expires. Capture stops exactly when the timer reaches zero.
func (e *Engine) runRecording(t *PhaseTimer, recognizer recognition.Recognizer, cancel chan struct{}) {
	results := recognizer.Results()
	for {
		select {
		case n := <-t.Ticks():
			e.emit(Event{Type: EventTick, TimeLeft: n})
		case <-t.Done():
			e.finishRecording(recognizer)
			return
		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			e.applyRecognition(recognizer, res)
		case <-cancel:
			return
		}
	}
}

// finishRecording stops capture first, then tears down recognition, and
// keeps draining trailing final segments that may lag the recording stop.
func (e *Engine) finishRecording(recognizer recognition.Recognizer) {
	e.mu.Lock()
	if e.recognizer != recognizer || e.session.Phase != PhaseRecording {
		// The session was re-recorded, closed, or already stopped
		// manually while the timer expired.
		e.mu.Unlock()
		return
	}
	recorder := e.recorder
	e.session.Phase = PhaseTimerComplete
	e.mu.Unlock()

	if recorder != nil {
		recorder.Stop()
	}
	if err := recognizer.Stop(); err != nil {
		log.Printf("Session %s: failed to stop recognition: %v", e.session.ID, err)
	}

	e.logPhase()
	e.emit(Event{Type: EventPhase, Phase: PhaseTimerComplete.String()})

	go func() {
		for res := range recognizer.Results() {
			e.applyRecognition(recognizer, res)
		}
	}()
}

// applyRecognition folds one recognition event into the live transcript:
// all finalized segments plus the current interim segment. Results from a
// recognizer that is no longer current (after a re-record) are dropped.
func (e *Engine) applyRecognition(recognizer recognition.Recognizer, res recognition.Result) {
	e.mu.Lock()
	if e.recognizer != recognizer {
		e.mu.Unlock()
		return
	}
	if res.Final {
		if e.finalText != "" {
			e.finalText += " "
		}
		e.finalText += res.Text
		e.interim = ""
	} else {
		e.interim = res.Text
	}
	e.transcript = e.finalText
	if e.interim != "" {
		if e.transcript != "" {
			e.transcript += " "
		}
		e.transcript += e.interim
	}
	transcript := e.transcript
	current := e.session.Current
	e.mu.Unlock()

	e.stats.AddRecognition(res.Text, res.Final)
	if e.logger != nil && res.Final {
		e.logger.LogTranscript(e.session.ID.String(), current, res.Text)
	}
	e.emit(Event{Type: EventTranscript, Transcript: transcript})
}

// StopRecording ends the capture session before the answer timer expires.
// The same teardown as timer expiry runs: the timer is cancelled, capture
// stops, then recognition, and the phase moves to TimerComplete. No-op when
// not recording.
func (e *Engine) StopRecording() {
	e.mu.Lock()
	if e.session.Phase != PhaseRecording {
		e.mu.Unlock()
		return
	}
	close(e.cancel)
	e.cancel = make(chan struct{})
	timer := e.timer
	recognizer := e.recognizer
	e.mu.Unlock()

	timer.Stop()
	e.finishRecording(recognizer)
}

// ReRecord discards the current question's buffered video and transcript
// and returns to Idle. Already-appended answers are untouched. Calling it
// again from Idle has no additional effect.
func (e *Engine) ReRecord() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	switch e.session.Phase {
	case PhaseSubmitting, PhaseSubmitted:
		e.mu.Unlock()
		return
	case PhaseIdle:
		if e.recorder == nil && e.recognizer == nil {
			e.mu.Unlock()
			return
		}
	}

	close(e.cancel)
	e.cancel = make(chan struct{})
	if e.countdown != nil {
		e.countdown.Stop()
		e.countdown = nil
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	recorder := e.recorder
	recognizer := e.recognizer
	e.recorder = nil
	e.recognizer = nil
	e.finalText = ""
	e.interim = ""
	e.transcript = ""
	e.session.Phase = PhaseIdle
	current := e.session.Current
	e.mu.Unlock()

	if recorder != nil {
		recorder.Stop()
		recorder.Discard()
	}
	if recognizer != nil {
		recognizer.Stop()
	}

	if e.logger != nil {
		e.logger.LogReRecord(e.session.ID.String(), current)
	}
	e.emit(Event{Type: EventPhase, Phase: PhaseIdle.String()})
}

// Next packages the current recording into an answer and advances to the
// next question, or to submit confirmation after the last one.
func (e *Engine) Next() {
	e.mu.Lock()
	if e.session.Phase != PhaseTimerComplete {
		e.mu.Unlock()
		return
	}
	if !e.advanceableLocked() {
		e.mu.Unlock()
		e.notify(MsgTranscriptRequired)
		return
	}

	e.appendAnswerLocked()
	if e.session.Current < len(e.session.Questions)-1 {
		e.session.Current++
		e.session.Phase = PhaseIdle
	} else {
		e.session.Phase = PhaseConfirmSubmit
	}
	phase := e.session.Phase
	e.mu.Unlock()

	e.logPhase()
	e.emit(Event{Type: EventPhase, Phase: phase.String()})
}

// advanceableLocked reports whether the current transcript allows Next or
// Submit. The unsupported-recognition sentinel never does.
func (e *Engine) advanceableLocked() bool {
	return e.transcript != "" && e.transcript != recognition.UnsupportedTranscript
}

// appendAnswerLocked moves the current buffers into the answer list and
// resets per-question state. Caller holds e.mu.
func (e *Engine) appendAnswerLocked() {
	var video []byte
	if e.recorder != nil {
		video = e.recorder.Bytes()
	}
	e.session.Answers = append(e.session.Answers, Answer{Video: video, Transcript: e.transcript})
	e.stats.AddAnswer(len(video), len(e.transcript))
	if e.logger != nil {
		e.logger.LogAnswer(e.session.ID.String(), e.session.Current, e.transcript)
	}

	e.recorder = nil
	e.recognizer = nil
	e.finalText = ""
	e.interim = ""
	e.transcript = ""
	e.countdown = nil
	e.timer = nil
}

// FinalSubmit submits the full ordered transcript list. If the last
// question's answer is still buffered it is appended first. On failure the
// phase returns to TimerComplete with the answers intact so the user can
// retry; a submit already in flight rejects duplicates.
func (e *Engine) FinalSubmit(ctx context.Context) {
	e.mu.Lock()
	switch e.session.Phase {
	case PhaseConfirmSubmit:
	case PhaseTimerComplete:
		// Submit is only offered on the last question, or as a retry
		// after a failed submit when every answer is already packaged.
		// Packaging an earlier question's answer here would leave it
		// out of order with an unadvanced question index.
		onLast := e.session.Current == len(e.session.Questions)-1 && len(e.session.Answers) == e.session.Current
		retry := len(e.session.Answers) == len(e.session.Questions)
		if !onLast && !retry {
			e.mu.Unlock()
			e.notify(MsgSubmitNotReady)
			return
		}
	default:
		e.mu.Unlock()
		return
	}

	if len(e.session.Answers) < len(e.session.Questions) {
		if !e.advanceableLocked() {
			e.mu.Unlock()
			e.notify(MsgTranscriptRequired)
			return
		}
		e.appendAnswerLocked()
	}
	if len(e.session.Answers) != len(e.session.Questions) {
		e.mu.Unlock()
		e.notify(MsgTranscriptRequired)
		return
	}

	e.session.Phase = PhaseSubmitting
	questions := e.session.Questions
	transcripts := make([]string, len(e.session.Answers))
	for i, a := range e.session.Answers {
		transcripts[i] = a.Transcript
	}
	e.mu.Unlock()

	e.logPhase()
	if e.logger != nil {
		e.logger.LogSubmitAttempt(e.session.ID.String(), len(transcripts))
	}
	e.emit(Event{Type: EventPhase, Phase: PhaseSubmitting.String()})

	go e.submit(ctx, questions, transcripts)
}

func (e *Engine) submit(ctx context.Context, questions, transcripts []string) {
	err := e.submitter.SubmitRoundAnswers(ctx, questions, transcripts, e.opts.Round)
	if err != nil {
		log.Printf("Session %s: submission failed: %v", e.session.ID, err)
		e.mu.Lock()
		e.session.Phase = PhaseTimerComplete
		e.mu.Unlock()
		if e.logger != nil {
			e.logger.LogError(e.session.ID.String(), MsgSubmissionFailed)
		}
		e.notify(MsgSubmissionFailed)
		e.emit(Event{Type: EventPhase, Phase: PhaseTimerComplete.String()})
		return
	}

	e.mu.Lock()
	e.session.Phase = PhaseSubmitted
	e.mu.Unlock()

	e.stats.Finalize()
	log.Printf("Session %s submitted:\n%s", e.session.ID, e.stats.Summary())
	if e.logger != nil {
		e.logger.LogSubmitted(e.session.ID.String())
	}
	e.emit(Event{Type: EventPhase, Phase: PhaseSubmitted.String()})
	e.emit(Event{Type: EventSubmitted})
}

// Close cancels timers and in-flight capture/recognition and closes the
// event stream. An in-flight final submission is not cancelled.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.cancel)
	if e.countdown != nil {
		e.countdown.Stop()
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	recorder := e.recorder
	recognizer := e.recognizer
	e.recorder = nil
	e.recognizer = nil
	e.mu.Unlock()

	if recorder != nil {
		recorder.Stop()
	}
	if recognizer != nil {
		recognizer.Stop()
	}
	if e.logger != nil {
		e.logger.Close()
	}

	e.mu.Lock()
	close(e.events)
	e.mu.Unlock()
}

// notify surfaces a user-visible message on the transient notification
// surface.
func (e *Engine) notify(message string) {
	log.Printf("Session %s: %s", e.session.ID, message)
	if e.logger != nil {
		e.logger.LogError(e.session.ID.String(), message)
	}
	e.emit(Event{Type: EventNotice, Message: message})
}

// emit delivers an event without ever blocking the engine; a slow consumer
// loses intermediate updates, not state.
func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	ev.Question = e.session.Current
	ev.Answered = len(e.session.Answers)
	select {
	case e.events <- ev:
	default:
		log.Printf("Session %s: dropped %s event", e.session.ID, ev.Type)
	}
}

func (e *Engine) logPhase() {
	if e.logger == nil {
		return
	}
	e.mu.Lock()
	phase := e.session.Phase
	question := e.session.Current
	e.mu.Unlock()
	e.logger.LogPhase(e.session.ID.String(), question, phase.String())
}
