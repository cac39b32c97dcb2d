// Package notify fans out snapshot change events to subscribers.
package notify

import (
	"sync"

	"go.uber.org/zap"

	"forktree/logger"
	"forktree/models"
)

// Broker delivers every published event to all current subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the
// event, which is harmless because events only say "refetch".
type Broker struct {
	mu     sync.Mutex
	subs   map[uint64]chan models.ChangeEvent
	nextID uint64
	buffer int
}

// NewBroker creates a broker whose subscriber channels hold buffer events.
func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{subs: make(map[uint64]chan models.ChangeEvent), buffer: buffer}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan models.ChangeEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.ChangeEvent, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish sends ev to every subscriber and returns how many received it.
func (b *Broker) Publish(ev models.ChangeEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for id, ch := range b.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			logger.Logger.Debug("Dropping change event for slow subscriber",
				zap.Uint64("subscriber", id), zap.Uint32("network_id", ev.NetworkID))
		}
	}
	return delivered
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
