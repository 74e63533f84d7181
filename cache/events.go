package cache

import "sync"

// eventBus fans invalidation events out to registered listeners. A
// listener panic is contained so one bad subscriber cannot break the
// emitter or its peers.
type eventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func()
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[string]map[int]func())}
}

func (b *eventBus) subscribe(event string, fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[event] == nil {
		b.subs[event] = make(map[int]func())
	}
	b.subs[event][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if listeners, ok := b.subs[event]; ok {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(b.subs, event)
			}
		}
	}
}

func (b *eventBus) emit(event string) {
	b.mu.RLock()
	listeners := make([]func(), 0, len(b.subs[event]))
	for _, fn := range b.subs[event] {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		invokeQuietly(fn)
	}
}

func (b *eventBus) clear() {
	b.mu.Lock()
	b.subs = make(map[string]map[int]func())
	b.mu.Unlock()
}

// invokeQuietly calls fn and swallows any panic.
func invokeQuietly(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
