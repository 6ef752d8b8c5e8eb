package relay

import (
	"testing"

	"github.com/tracksync/tracksync/internal/bus"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Topic: "t"}); err == nil {
		t.Error("missing brokers should fail")
	}
	if _, err := New(Config{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Error("missing topic should fail")
	}
	if _, err := New(DefaultConfig()); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestAttachAndCloseManageSubscription(t *testing.T) {
	r, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b := bus.New()
	r.Attach(b)
	if b.ConsumerCount() != 1 {
		t.Errorf("ConsumerCount = %d, want 1 after attach", b.ConsumerCount())
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.ConsumerCount() != 0 {
		t.Errorf("ConsumerCount = %d, want 0 after close", b.ConsumerCount())
	}
}
