package scheduler

import (
	"testing"
	"time"
)

func TestTimers_FireDeliversInstant(t *testing.T) {
	timers := NewTimers()
	defer timers.Stop()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fired := make(chan time.Time, 1)

	// A past instant fires immediately.
	timers.Arm("k", at, func(key string, firedFor time.Time) {
		fired <- firedFor
	})

	select {
	case got := <-fired:
		if !got.Equal(at) {
			t.Errorf("firedFor = %v, want %v", got, at)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	if timers.Len() != 0 {
		t.Errorf("Len() = %d after fire, want 0", timers.Len())
	}
}

func TestTimers_ArmReplaces(t *testing.T) {
	timers := NewTimers()
	defer timers.Stop()

	fired := make(chan string, 2)

	timers.Arm("k", time.Now().Add(time.Hour), func(key string, firedFor time.Time) {
		fired <- "first"
	})
	timers.Arm("k", time.Now().Add(-time.Second), func(key string, firedFor time.Time) {
		fired <- "second"
	})

	select {
	case got := <-fired:
		if got != "second" {
			t.Errorf("fired %q, want second", got)
		}
	case <-time.After(time.Second):
		t.Fatal("replacement timer never fired")
	}

	select {
	case got := <-fired:
		t.Errorf("replaced timer fired: %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimers_Disarm(t *testing.T) {
	timers := NewTimers()
	defer timers.Stop()

	fired := make(chan struct{}, 1)
	timers.Arm("k", time.Now().Add(30*time.Millisecond), func(key string, firedFor time.Time) {
		fired <- struct{}{}
	})
	timers.Disarm("k")

	if timers.Len() != 0 {
		t.Errorf("Len() = %d after disarm, want 0", timers.Len())
	}

	select {
	case <-fired:
		t.Error("disarmed timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimers_Rearm(t *testing.T) {
	timers := NewTimers()
	defer timers.Stop()

	original := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fired := make(chan time.Time, 1)

	timers.Rearm("k", 10*time.Millisecond, original, func(key string, firedFor time.Time) {
		fired <- firedFor
	})

	select {
	case got := <-fired:
		if !got.Equal(original) {
			t.Errorf("redelivered firedFor = %v, want original %v", got, original)
		}
	case <-time.After(time.Second):
		t.Fatal("redelivery never fired")
	}
}

func TestTimers_StopRejectsArming(t *testing.T) {
	timers := NewTimers()

	timers.Arm("a", time.Now().Add(time.Hour), func(string, time.Time) {})
	timers.Arm("b", time.Now().Add(time.Hour), func(string, time.Time) {})
	if timers.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", timers.Len())
	}

	timers.Stop()
	if timers.Len() != 0 {
		t.Errorf("Len() = %d after Stop, want 0", timers.Len())
	}

	timers.Arm("c", time.Now(), func(string, time.Time) {
		t.Error("timer armed after Stop fired")
	})
	if timers.Len() != 0 {
		t.Errorf("Len() = %d, arming after Stop should be rejected", timers.Len())
	}

	time.Sleep(50 * time.Millisecond)
}
