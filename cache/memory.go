package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// EvictionPolicy selects how the memory tier evicts when full.
type EvictionPolicy string

const (
	// EvictLRU evicts the least recently read entry; reads re-order.
	EvictLRU EvictionPolicy = "lru"
	// EvictFIFO evicts the least recently inserted entry.
	EvictFIFO EvictionPolicy = "fifo"
)

// memoryTier is the bounded in-memory tier. Entries live at the front
// of the list; eviction always takes the back.
type memoryTier struct {
	mu       sync.Mutex
	maxSize  int
	policy   EvictionPolicy
	ll       *list.List
	elements map[string]*list.Element
}

func newMemoryTier(maxSize int, policy EvictionPolicy) *memoryTier {
	return &memoryTier{
		maxSize:  maxSize,
		policy:   policy,
		ll:       list.New(),
		elements: make(map[string]*list.Element),
	}
}

// get returns the entry regardless of expiry; the manager decides what
// staleness means. Under LRU the read refreshes the entry's position.
func (t *memoryTier) get(key string) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.elements[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*Entry)
	if t.policy == EvictLRU {
		t.ll.MoveToFront(el)
		entry.touch(time.Now())
	}
	return entry, true
}

func (t *memoryTier) set(entry *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.elements[entry.Key]; ok {
		el.Value = entry
		t.ll.MoveToFront(el)
		return
	}

	t.elements[entry.Key] = t.ll.PushFront(entry)

	for t.maxSize > 0 && t.ll.Len() > t.maxSize {
		oldest := t.ll.Back()
		if oldest == nil {
			break
		}
		t.ll.Remove(oldest)
		delete(t.elements, oldest.Value.(*Entry).Key)
	}
}

func (t *memoryTier) delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.elements[key]; ok {
		t.ll.Remove(el)
		delete(t.elements, key)
	}
}

func (t *memoryTier) deleteByPrefix(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, el := range t.elements {
		if strings.HasPrefix(key, prefix) {
			t.ll.Remove(el)
			delete(t.elements, key)
		}
	}
}

func (t *memoryTier) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ll.Init()
	t.elements = make(map[string]*list.Element)
}

func (t *memoryTier) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ll.Len()
}
