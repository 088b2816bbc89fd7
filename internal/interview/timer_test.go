package interview

import (
	"testing"
	"time"
)

func TestPhaseTimerCountsDownToZero(t *testing.T) {
	timer := NewPhaseTimer(2 * time.Millisecond)
	timer.Start(3)

	var ticks []int
	timeout := time.After(time.Second)
	for {
		select {
		case n := <-timer.Ticks():
			ticks = append(ticks, n)
		case <-timer.Done():
			// Drain any tick buffered before done fired.
			select {
			case n := <-timer.Ticks():
				ticks = append(ticks, n)
			default:
			}
			if len(ticks) == 0 || ticks[len(ticks)-1] != 0 {
				t.Fatalf("expected final tick 0, got %v", ticks)
			}
			for i := 1; i < len(ticks); i++ {
				if ticks[i] != ticks[i-1]-1 {
					t.Fatalf("ticks not monotonic: %v", ticks)
				}
			}
			if timer.Active() {
				t.Error("timer still active after completion")
			}
			return
		case <-timeout:
			t.Fatalf("timer never completed, ticks: %v", ticks)
		}
	}
}

func TestPhaseTimerStopPreventsCompletion(t *testing.T) {
	timer := NewPhaseTimer(2 * time.Millisecond)
	timer.Start(100)
	timer.Stop()

	select {
	case <-timer.Done():
		t.Error("stopped timer must never complete")
	case <-time.After(30 * time.Millisecond):
	}
	if timer.Active() {
		t.Error("timer active after stop")
	}
}

func TestPhaseTimerStopIsIdempotent(t *testing.T) {
	timer := NewPhaseTimer(time.Millisecond)
	timer.Start(5)
	timer.Stop()
	timer.Stop() // must not panic
}

func TestPhaseTimerStartTwiceIsNoOp(t *testing.T) {
	timer := NewPhaseTimer(2 * time.Millisecond)
	timer.Start(2)
	timer.Start(50) // ignored while active

	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("timer never completed")
	}
}
