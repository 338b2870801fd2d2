package progress

import "sync"

const subscriberBuffer = 16

// Broker fans progress events out to WebSocket subscribers, keyed by class.
// Subscribers that cannot keep up have events dropped rather than buffered
// unboundedly; the persisted store remains the source of truth.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{} // classID -> subscribers
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel receiving events for the given class.
// The caller must Unsubscribe when done.
func (b *Broker) Subscribe(classID string) chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[classID] == nil {
		b.subs[classID] = make(map[chan Event]struct{})
	}
	b.subs[classID][ch] = struct{}{}
	return ch
}

func (b *Broker) Unsubscribe(classID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[classID]; ok {
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(b.subs, classID)
		}
	}
}

func (b *Broker) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[evt.ClassID] {
		select {
		case ch <- evt:
		default: // slow subscriber; drop
		}
	}
}
