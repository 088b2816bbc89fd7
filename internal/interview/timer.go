package interview

import (
	"sync"
	"time"
)

// PhaseTimer is a single-shot per-phase countdown ticking once per interval
// (one second in production). Each phase entry creates a fresh timer; the
// countdown and recording timers are therefore never active together.
type PhaseTimer struct {
	interval time.Duration
	ticks    chan int
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	active bool
}

func NewPhaseTimer(interval time.Duration) *PhaseTimer {
	if interval <= 0 {
		interval = time.Second
	}
	return &PhaseTimer{
		interval: interval,
		ticks:    make(chan int, 64),
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Start begins ticking down from seconds. Every tick delivers the remaining
// count; reaching zero closes Done.
func (t *PhaseTimer) Start(seconds int) {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		return
	}
	t.active = true
	t.mu.Unlock()

	go t.run(seconds)
}

func (t *PhaseTimer) run(seconds int) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-ticker.C:
			remaining--
			select {
			case t.ticks <- remaining:
			default:
			}
			if remaining <= 0 {
				t.setActive(false)
				close(t.done)
				return
			}
		case <-t.stop:
			return
		}
	}
}

// Stop cancels the timer. Every exit path from the owning phase calls this;
// it is safe to call more than once.
func (t *PhaseTimer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	t.setActive(false)
}

func (t *PhaseTimer) Ticks() <-chan int { return t.ticks }

// Done closes exactly when the countdown reaches zero, never on Stop.
func (t *PhaseTimer) Done() <-chan struct{} { return t.done }

func (t *PhaseTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *PhaseTimer) setActive(v bool) {
	t.mu.Lock()
	t.active = v
	t.mu.Unlock()
}
