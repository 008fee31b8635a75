package notifier

import (
	"sync"

	"go.uber.org/fx"
)

// Event is a (key, payload) pair fanned out to every observer. There is no
// queueing and no delivery guarantee; observers run synchronously on the
// publishing goroutine.
type Event struct {
	Key     string
	Payload map[string]any
}

type Observer func(Event)

// Notifier is the in-process publish/subscribe hub the pipeline uses to tell
// optional collaborators (check-in server, sync loops) that something changed.
type Notifier struct {
	mu        sync.RWMutex
	observers []Observer
}

func New() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Subscribe(fn Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

func (n *Notifier) Publish(key string, payload map[string]any) {
	n.mu.RLock()
	observers := make([]Observer, len(n.observers))
	copy(observers, n.observers)
	n.mu.RUnlock()

	event := Event{Key: key, Payload: payload}
	for _, fn := range observers {
		fn(event)
	}
}

// Module wires the shared notifier.
var Module = fx.Module("notifier",
	fx.Provide(New),
)
