package batch

import (
	"testing"
	"time"

	"github.com/hochfrequenz/claude-sample-harness/internal/config"
)

func TestParseCron(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 22 * * *", false},   // 10 PM daily
		{"0 12 * * 1-5", false}, // noon weekdays
		{"*/5 * * * *", false},  // every 5 minutes
		{"invalid", true},
	}

	for _, tt := range tests {
		_, err := ParseCron(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCron(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestNewScheduler_RejectsBadConfig(t *testing.T) {
	_, err := NewScheduler([]config.BatchConfig{
		{Name: "nightly", Cron: "not a cron", SDK: "java"},
	})
	if err == nil {
		t.Error("invalid cron expression should error")
	}

	_, err = NewScheduler([]config.BatchConfig{
		{Name: "nightly", Cron: "0 22 * * *"},
	})
	if err == nil {
		t.Error("missing sdk should error")
	}
}

func TestScheduler_NextRun(t *testing.T) {
	cfg := config.BatchConfig{
		Name: "nightly-java",
		Cron: "0 22 * * *", // 10 PM daily
		SDK:  "java",
	}

	sched, err := NewScheduler([]config.BatchConfig{cfg})
	if err != nil {
		t.Fatal(err)
	}

	next := sched.NextRun("nightly-java")
	if next.IsZero() {
		t.Error("NextRun should return a time")
	}
	if !next.After(time.Now()) {
		t.Error("NextRun should be in the future")
	}
}

func TestScheduler_ShouldRun(t *testing.T) {
	cfg := config.BatchConfig{
		Name: "smoke",
		Cron: "* * * * *", // every minute
		SDK:  "go",
	}

	sched, err := NewScheduler([]config.BatchConfig{cfg})
	if err != nil {
		t.Fatal(err)
	}

	sched.lastRun["smoke"] = time.Now().Add(-2 * time.Minute)

	if !sched.ShouldRun("smoke") {
		t.Error("should run after cron interval passed")
	}

	sched.MarkRunning("smoke")
	if sched.ShouldRun("smoke") {
		t.Error("should not run while already running")
	}

	sched.MarkComplete("smoke")
	if sched.ShouldRun("smoke") {
		t.Error("should not run again immediately after completion")
	}
}
