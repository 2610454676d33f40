// Package winreg keeps a roster of window processes in a shared medium.
//
// Each process registers itself once, republishes its own geometry when it
// changes, and removes itself at teardown. Other processes learn about
// those writes through the medium's change notification. There is no
// locking across processes: every write replaces the whole roster and the
// last writer wins.
package winreg

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/1broseidon/multiwin/internal/medium"
)

// Registry is one process's view of the shared window roster.
type Registry struct {
	medium   medium.Medium
	geometry GeometrySource
	logger   *slog.Logger

	mu           sync.Mutex
	windows      []Record
	self         Record
	selfID       int
	registered   bool
	onShape      func()
	onMembership func()

	unsubscribe func()
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for recoverable conditions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an unregistered registry and subscribes it to roster writes
// made by other processes.
func New(m medium.Medium, geometry GeometrySource, opts ...Option) *Registry {
	r := &Registry{
		medium:   m,
		geometry: geometry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.unsubscribe = m.Subscribe(WindowsKey, r.handleWindowsWrite)
	return r
}

// Register adds this process to the roster and returns its id.
// It must be called at most once per Registry.
func (r *Registry) Register(metadata json.RawMessage) int {
	windows := r.readWindows()
	id := r.readCount() + 1
	r.write(CountKey, EncodeCount(id))

	shape, err := r.geometry.Geometry()
	if err != nil {
		r.logger.Warn("failed to query window geometry", "error", err)
		shape = Shape{}
	}

	if len(metadata) > 0 && !json.Valid(metadata) {
		r.logger.Warn("dropping metadata that is not valid JSON", "window_id", id)
		metadata = nil
	}

	self := Record{ID: id, Shape: shape, Metadata: cloneRaw(metadata)}
	windows = append(windows, self)

	r.mu.Lock()
	r.windows = windows
	r.self = self
	r.selfID = id
	r.registered = true
	payload := cloneRecords(r.windows)
	r.mu.Unlock()

	r.writeWindows(payload)
	r.logger.Info("window registered", "window_id", id, "count", len(payload))
	return id
}

// Poll republishes this window's geometry if it changed since the last
// call. Unchanged geometry costs one geometry query and nothing else.
func (r *Registry) Poll() {
	r.mu.Lock()
	registered := r.registered
	current := r.self.Shape
	r.mu.Unlock()
	if !registered {
		return
	}

	shape, err := r.geometry.Geometry()
	if err != nil {
		r.logger.Debug("failed to query window geometry", "error", err)
		return
	}
	if shape == current {
		return
	}

	r.mu.Lock()
	if !r.registered {
		r.mu.Unlock()
		return
	}
	r.self.Shape = shape
	i := indexOf(r.windows, r.selfID)
	if i == -1 {
		// Our entry was dropped by a racing writer; nothing to update.
		r.mu.Unlock()
		return
	}
	r.windows[i].Shape = shape
	payload := cloneRecords(r.windows)
	callback := r.onShape
	r.mu.Unlock()

	r.writeWindows(payload)
	r.logger.Debug("window shape changed", "window_id", r.SelfID(),
		"x", shape.X, "y", shape.Y, "w", shape.W, "h", shape.H)
	if callback != nil {
		callback()
	}
}

// Deregister removes this process's record from the roster.
func (r *Registry) Deregister() {
	r.mu.Lock()
	if !r.registered {
		r.mu.Unlock()
		return
	}
	r.registered = false
	id := r.selfID
	i := indexOf(r.windows, id)
	if i == -1 {
		r.mu.Unlock()
		return
	}
	r.windows = append(r.windows[:i:i], r.windows[i+1:]...)
	payload := cloneRecords(r.windows)
	r.mu.Unlock()

	r.writeWindows(payload)
	r.logger.Info("window deregistered", "window_id", id, "count", len(payload))
}

// Close cancels the medium subscription.
func (r *Registry) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// Windows returns a copy of the roster as this process last saw it.
func (r *Registry) Windows() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneRecords(r.windows)
}

// Self returns this process's own record.
func (r *Registry) Self() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	self := r.self
	self.Metadata = cloneRaw(self.Metadata)
	return self
}

// SelfID returns this process's id, or 0 before Register.
func (r *Registry) SelfID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selfID
}

// Registered reports whether Register ran and Deregister has not.
func (r *Registry) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered
}

// OnShapeChanged sets the callback fired after Poll publishes new geometry.
// It replaces any previous callback; nil clears it.
func (r *Registry) OnShapeChanged(fn func()) {
	r.mu.Lock()
	r.onShape = fn
	r.mu.Unlock()
}

// OnMembershipChanged sets the callback fired when another process's write
// changes the roster's membership. It replaces any previous callback.
func (r *Registry) OnMembershipChanged(fn func()) {
	r.mu.Lock()
	r.onMembership = fn
	r.mu.Unlock()
}

func (r *Registry) handleWindowsWrite(value string) {
	next, err := DecodeRoster(value)
	if err != nil {
		r.logger.Warn("ignoring malformed roster update", "error", err)
		return
	}

	r.mu.Lock()
	if !r.registered {
		r.mu.Unlock()
		return
	}
	changed := WindowsChanged(r.windows, next)
	r.windows = next
	callback := r.onMembership
	r.mu.Unlock()

	if !changed {
		return
	}
	r.logger.Info("window membership changed", "count", len(next))
	if callback != nil {
		callback()
	}
}

func (r *Registry) readWindows() []Record {
	value, ok, err := r.medium.Read(WindowsKey)
	if err != nil {
		r.logger.Warn("failed to read roster, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	windows, err := DecodeRoster(value)
	if err != nil {
		r.logger.Warn("malformed roster, starting empty", "error", err)
		return nil
	}
	return windows
}

func (r *Registry) readCount() int {
	value, ok, err := r.medium.Read(CountKey)
	if err != nil {
		r.logger.Warn("failed to read window count, starting at zero", "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	n, err := DecodeCount(value)
	if err != nil {
		r.logger.Warn("malformed window count, starting at zero", "error", err)
		return 0
	}
	return n
}

func (r *Registry) writeWindows(windows []Record) {
	payload, err := EncodeRoster(windows)
	if err != nil {
		r.logger.Error("failed to encode roster", "error", err)
		return
	}
	r.write(WindowsKey, payload)
}

func (r *Registry) write(key, value string) {
	if err := r.medium.Write(key, value); err != nil {
		r.logger.Error("failed to write shared medium", "key", key, "error", err)
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
