package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNewCronRunner_InvalidExpression(t *testing.T) {
	s, _ := testScheduler(t, nil)

	if _, err := NewCronRunner(s, "not a cron line", 60); err == nil {
		t.Error("NewCronRunner() with invalid expression should fail")
	}
}

func TestCronRunner_TickQueuesExecution(t *testing.T) {
	s, now := testScheduler(t, nil)

	runner, err := NewCronRunner(s, "0 3 * * *", 45)
	if err != nil {
		t.Fatalf("NewCronRunner() error = %v", err)
	}

	runner.tick()

	rec, err := s.Status(context.Background(), DefaultKey)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if rec.ScheduledFor == nil {
		t.Fatal("tick should queue an execution")
	}
	want := now.Add(45 * time.Second)
	if !rec.ScheduledFor.Equal(want) {
		t.Errorf("ScheduledFor = %v, want %v", rec.ScheduledFor, want)
	}
}

func TestCronRunner_ClampsDelay(t *testing.T) {
	s, _ := testScheduler(t, nil)

	runner, err := NewCronRunner(s, "@daily", 0)
	if err != nil {
		t.Fatalf("NewCronRunner() error = %v", err)
	}
	if runner.delaySeconds != 1 {
		t.Errorf("delaySeconds = %d, want clamped to 1", runner.delaySeconds)
	}
}
