package events

import (
	"testing"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

func TestPublishRotation(t *testing.T) {
	bus := NewBus()

	var got []models.SignerRotated
	bus.Subscribe(func(e models.SignerRotated) {
		got = append(got, e)
	})

	newSigner := models.Address("0xeeee000000000000000000000000000000000001")
	caller := models.Address("0xeeee000000000000000000000000000000000002")

	event := bus.PublishRotation(newSigner, caller)
	if event.ID == "" {
		t.Error("Expected event ID to be stamped")
	}
	if event.At.IsZero() {
		t.Error("Expected event timestamp to be stamped")
	}

	if len(got) != 1 {
		t.Fatalf("Expected 1 delivery, got %d", len(got))
	}
	if got[0].ID != event.ID || got[0].NewSigner != newSigner || got[0].Caller != caller {
		t.Errorf("Delivered event mismatch: %+v", got[0])
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	event := bus.PublishRotation(
		"0xeeee000000000000000000000000000000000001",
		"0xeeee000000000000000000000000000000000002")
	if event.ID == "" {
		t.Error("Expected event ID even with no subscribers")
	}
}
