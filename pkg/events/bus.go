package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// Handler receives signer rotation notifications. Handlers run
// synchronously on the publisher's goroutine.
type Handler func(models.SignerRotated)

// Bus fans rotation events out to subscribers. Delivery happens after the
// rotation has landed; subscribers cannot veto or roll it back.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every future rotation event.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// PublishRotation stamps and delivers a SignerRotated event, returning the
// stamped copy.
func (b *Bus) PublishRotation(newSigner, caller models.Address) models.SignerRotated {
	event := models.SignerRotated{
		ID:        uuid.New().String(),
		NewSigner: newSigner,
		Caller:    caller,
		At:        time.Now().UTC(),
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return event
}
