package web

import (
	"sync"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/metrics"
)

// subscriberBuffer is how many notifications a slow subscriber may lag
// before new ones are dropped for it.
const subscriberBuffer = 16

// Broadcaster fans import notifications out to every open event stream.
// Its Notify method is passed to core.NewImporter.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan core.Notification]struct{}
	closed bool
}

// NewBroadcaster creates a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan core.Notification]struct{})}
}

// Notify delivers n to every subscriber without blocking.
func (b *Broadcaster) Notify(n core.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned channel is closed by
// the cancel func or by Close, whichever comes first.
func (b *Broadcaster) Subscribe() (<-chan core.Notification, func()) {
	ch := make(chan core.Notification, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	metrics.EventSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(ch) })
	}
}

// Subscribers returns the number of open subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later subscribers get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
		metrics.EventSubscribers.Dec()
	}
}

func (b *Broadcaster) remove(ch chan core.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
	metrics.EventSubscribers.Dec()
}
