// Package medium provides the shared key-value store that window
// processes coordinate through.
//
// A write by one handle is delivered as a notification to the handlers of
// every other handle on the same store, never to the writer itself.
// Writes are unconditional overwrites; there is no compare-and-swap.
package medium

// Handler receives the new value of a key written by another process.
type Handler func(value string)

// Medium is a key-value store shared between processes of one origin.
type Medium interface {
	// Read returns the current value of key. ok is false if the key is absent.
	Read(key string) (value string, ok bool, err error)
	// Write overwrites key with value.
	Write(key, value string) error
	// Subscribe registers h for writes to key made by other processes.
	// The returned func removes the subscription.
	Subscribe(key string, h Handler) (cancel func())
}

// Clearer is implemented by media that can drop every stored key.
type Clearer interface {
	Clear() error
}

// subscriptions is the per-handle handler table shared by Memory and File.
type subscriptions struct {
	next     int
	handlers map[string]map[int]Handler
}

func (s *subscriptions) add(key string, h Handler) int {
	if s.handlers == nil {
		s.handlers = make(map[string]map[int]Handler)
	}
	if s.handlers[key] == nil {
		s.handlers[key] = make(map[int]Handler)
	}
	s.next++
	s.handlers[key][s.next] = h
	return s.next
}

func (s *subscriptions) remove(key string, id int) {
	delete(s.handlers[key], id)
	if len(s.handlers[key]) == 0 {
		delete(s.handlers, key)
	}
}

// forKey returns a snapshot so handlers can run without holding a lock.
func (s *subscriptions) forKey(key string) []Handler {
	hs := s.handlers[key]
	out := make([]Handler, 0, len(hs))
	for _, h := range hs {
		out = append(out, h)
	}
	return out
}
