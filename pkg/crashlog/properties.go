// properties.go holds application-wide key/value properties attached to every message.

package crashlog

import "sync"

// Properties is an ordered, concurrency-safe key/value bag.
// Setting an existing key replaces its value in place.
type Properties struct {
	mu    sync.RWMutex
	items []Item
}

// Set stores value under key.
func (p *Properties) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].Key == key {
			p.items[i].Value = value
			return
		}
	}
	p.items = append(p.items, Item{Key: key, Value: value})
}

// Delete removes key.
func (p *Properties) Delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].Key == key {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return
		}
	}
}

// Items returns a copy of the stored pairs in insertion order.
func (p *Properties) Items() []Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}
