package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestScheduler(tr *fakeTransport, gen *fakeGenerator) *DigestScheduler {
	return NewDigestScheduler(SchedulerConfig{
		Transport:  tr,
		Generator:  gen,
		Logger:     testLogger(),
		ChatID:     testChat,
		FireHour:   9,
		FireMinute: 0,
	})
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
}

func TestSchedulerDoesNotFireBeforeTime(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestScheduler(tr, &fakeGenerator{digest: "today's digest"})

	if s.Evaluate(context.Background(), at(1, 8, 59)) {
		t.Error("fired before the configured time")
	}
	if calls := tr.trace(); len(calls) != 0 {
		t.Errorf("unexpected side effects: %v", calls)
	}
	if s.LastFired() != "" {
		t.Errorf("LastFired = %q, want empty", s.LastFired())
	}
}

func TestSchedulerFiresOncePerDate(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestScheduler(tr, &fakeGenerator{digest: "today's digest"})
	ctx := context.Background()

	if !s.Evaluate(ctx, at(1, 9, 0)) {
		t.Fatal("did not fire at the configured time")
	}
	if s.LastFired() != "2026-03-01" {
		t.Errorf("LastFired = %q, want 2026-03-01", s.LastFired())
	}

	// Later evaluations on the same date stay quiet, however late.
	for _, now := range []time.Time{at(1, 9, 0), at(1, 12, 30), at(1, 23, 59)} {
		if s.Evaluate(ctx, now) {
			t.Errorf("fired twice on the same date at %v", now)
		}
	}

	if calls := tr.trace(); len(calls) != 1 {
		t.Fatalf("calls = %v, want exactly one digest message", calls)
	}
}

func TestSchedulerRollsOverAtMidnight(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestScheduler(tr, &fakeGenerator{digest: "today's digest"})
	ctx := context.Background()

	if !s.Evaluate(ctx, at(1, 9, 5)) {
		t.Fatal("day one did not fire")
	}
	// The new date re-enables firing without any reset call.
	if !s.Evaluate(ctx, at(2, 9, 0)) {
		t.Fatal("day two did not fire")
	}
	if s.LastFired() != "2026-03-02" {
		t.Errorf("LastFired = %q, want 2026-03-02", s.LastFired())
	}
	if calls := tr.trace(); len(calls) != 2 {
		t.Errorf("calls = %v, want two digests", calls)
	}
}

// A late start still fires: the threshold rule only asks whether now is at or
// after the fire time.
func TestSchedulerFiresLate(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestScheduler(tr, &fakeGenerator{digest: "today's digest"})

	if !s.Evaluate(context.Background(), at(1, 22, 47)) {
		t.Error("late evaluation did not fire")
	}
}

// Generation failure leaves the date unfired so the next evaluation retries.
func TestSchedulerRetriesAfterGenerationFailure(t *testing.T) {
	tr := &fakeTransport{}
	gen := &fakeGenerator{err: errors.New("model offline")}
	s := newTestScheduler(tr, gen)
	ctx := context.Background()

	if s.Evaluate(ctx, at(1, 9, 0)) {
		t.Fatal("fired despite generation failure")
	}
	if s.LastFired() != "" {
		t.Errorf("LastFired = %q, want empty after failure", s.LastFired())
	}
	if calls := tr.trace(); len(calls) != 0 {
		t.Errorf("nothing should be sent on generation failure, got %v", calls)
	}

	// Generator recovers; the same date fires on the next evaluation.
	gen.err = nil
	gen.digest = "recovered digest"
	if !s.Evaluate(ctx, at(1, 9, 1)) {
		t.Fatal("did not fire after generator recovered")
	}
	if s.LastFired() != "2026-03-01" {
		t.Errorf("LastFired = %q, want 2026-03-01", s.LastFired())
	}
}

func TestSchedulerTreatsEmptyDigestAsFailure(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestScheduler(tr, &fakeGenerator{digest: "  \n"})

	if s.Evaluate(context.Background(), at(1, 9, 0)) {
		t.Error("fired with a blank digest")
	}
	if calls := tr.trace(); len(calls) != 0 {
		t.Errorf("blank digest must not be sent, got %v", calls)
	}
}

// Delivery failure still marks the date fired; a flaky send must not produce
// a second digest the same day.
func TestSchedulerMarksFiredOnDeliveryFailure(t *testing.T) {
	tr := &fakeTransport{sendErr: errors.New("telegram down")}
	s := newTestScheduler(tr, &fakeGenerator{digest: "today's digest"})
	ctx := context.Background()

	if !s.Evaluate(ctx, at(1, 9, 0)) {
		t.Fatal("delivery failure should still count as fired")
	}
	tr.sendErr = nil
	if s.Evaluate(ctx, at(1, 9, 1)) {
		t.Error("second digest fired on the same date after a flaky send")
	}
}

func TestSchedulerConcurrentEvaluations(t *testing.T) {
	tr := &fakeTransport{}
	s := newTestScheduler(tr, &fakeGenerator{digest: "today's digest"})
	ctx := context.Background()
	now := at(1, 9, 30)

	done := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- s.Evaluate(ctx, now) }()
	}

	fired := 0
	for i := 0; i < 8; i++ {
		if <-done {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("fired %d times under concurrency, want 1", fired)
	}
	calls := tr.trace()
	sent := 0
	for _, c := range calls {
		if strings.HasPrefix(c, "message:") {
			sent++
		}
	}
	if sent != 1 {
		t.Errorf("sent %d digests, want 1: %v", sent, calls)
	}
}
