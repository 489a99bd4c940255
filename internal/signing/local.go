package signing

import (
	"sync"
)

// Local is an in-process Channel. Handlers run synchronously on the emitting
// goroutine, outside the channel's lock, so a handler may itself emit.
type Local struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]Handler
}

// NewLocal creates an empty in-process channel.
func NewLocal() *Local {
	return &Local{listeners: make(map[string]map[uint64]Handler)}
}

// Emit delivers payload to every handler registered for event.
func (l *Local) Emit(event string, payload any) error {
	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.listeners[event]))
	for _, h := range l.listeners[event] {
		handlers = append(handlers, h)
	}
	l.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

// On registers h for event.
func (l *Local) On(event string, h Handler) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	if l.listeners[event] == nil {
		l.listeners[event] = make(map[uint64]Handler)
	}
	l.listeners[event][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.listeners[event], id)
			if len(l.listeners[event]) == 0 {
				delete(l.listeners, event)
			}
		})
	}
}

// ListenerCount returns the number of handlers registered for event.
func (l *Local) ListenerCount(event string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.listeners[event])
}
