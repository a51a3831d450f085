package bus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"gatewarden/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(4, testLogger())
	defer b.Close()

	want := domain.InboundMessage{MessageID: 7, ChatID: -42, Text: "hello"}
	b.Publish(want)

	select {
	case got := <-b.Subscribe():
		if got.MessageID != want.MessageID || got.Text != want.Text {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("message never arrived")
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	for i := int64(1); i <= 5; i++ {
		b.Publish(domain.InboundMessage{MessageID: i, ChatID: -42})
	}

	sub := b.Subscribe()
	for i := int64(1); i <= 5; i++ {
		select {
		case got := <-sub:
			if got.MessageID != i {
				t.Fatalf("message %d arrived out of order (got %d)", i, got.MessageID)
			}
		case <-time.After(time.Second):
			t.Fatal("queue drained early")
		}
	}
}

func TestPublishToClosedBusDoesNotPanic(t *testing.T) {
	b := New(1, testLogger())
	b.Close()
	b.Publish(domain.InboundMessage{MessageID: 1})
	// Double close is also a no-op.
	b.Close()
}

func TestCloseEndsSubscription(t *testing.T) {
	b := New(1, testLogger())
	sub := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-sub:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription did not end")
	}
}
