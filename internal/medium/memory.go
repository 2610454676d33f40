package medium

import "sync"

// Hub is an in-process shared store. Each handle returned by Open behaves
// like a separate process attached to the same store.
type Hub struct {
	mu      sync.Mutex
	values  map[string]string
	handles map[*Memory]struct{}
}

// NewHub creates an empty store.
func NewHub() *Hub {
	return &Hub{
		values:  make(map[string]string),
		handles: make(map[*Memory]struct{}),
	}
}

// Open attaches a new handle to the hub.
func (h *Hub) Open() *Memory {
	m := &Memory{hub: h}
	h.mu.Lock()
	h.handles[m] = struct{}{}
	h.mu.Unlock()
	return m
}

// Clear drops every key. No notifications are delivered, matching a
// storage reset rather than a write.
func (h *Hub) Clear() error {
	h.mu.Lock()
	h.values = make(map[string]string)
	h.mu.Unlock()
	return nil
}

// Memory is one handle on a Hub.
type Memory struct {
	hub *Hub

	mu   sync.Mutex
	subs subscriptions
}

var (
	_ Medium  = (*Memory)(nil)
	_ Clearer = (*Memory)(nil)
)

// Read returns the current value of key.
func (m *Memory) Read(key string) (string, bool, error) {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	v, ok := m.hub.values[key]
	return v, ok, nil
}

// Write stores value and synchronously notifies every other handle.
func (m *Memory) Write(key, value string) error {
	m.hub.mu.Lock()
	m.hub.values[key] = value
	others := make([]*Memory, 0, len(m.hub.handles))
	for other := range m.hub.handles {
		if other != m {
			others = append(others, other)
		}
	}
	m.hub.mu.Unlock()

	for _, other := range others {
		other.deliver(key, value)
	}
	return nil
}

// Subscribe registers h for writes to key made through other handles.
func (m *Memory) Subscribe(key string, h Handler) func() {
	m.mu.Lock()
	id := m.subs.add(key, h)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.subs.remove(key, id)
		m.mu.Unlock()
	}
}

// Clear drops every key on the underlying hub.
func (m *Memory) Clear() error {
	return m.hub.Clear()
}

// Close detaches the handle; it no longer receives notifications.
func (m *Memory) Close() error {
	m.hub.mu.Lock()
	delete(m.hub.handles, m)
	m.hub.mu.Unlock()
	return nil
}

func (m *Memory) deliver(key, value string) {
	m.mu.Lock()
	handlers := m.subs.forKey(key)
	m.mu.Unlock()

	for _, h := range handlers {
		h(value)
	}
}
