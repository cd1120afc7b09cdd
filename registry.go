package maelstrom

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// HandlerFunc is the function signature for a message handler. It returns the
// response to send, or the zero Message for no response. A non-nil error is
// sent back to the caller as an "error" reply.
type HandlerFunc func(msg Message) (Message, error)

// Registry maps message types to their handlers. Entries can be added but
// never replaced or removed.
type Registry struct {
	mu       sync.RWMutex
	handlers map[MessageType]HandlerFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[MessageType]HandlerFunc)}
}

// Register stores fn as the handler for typ. Returns ErrDuplicateHandler if
// typ already has a handler; the existing handler is kept.
func (r *Registry) Register(typ MessageType, fn HandlerFunc) error {
	invariant(fn != nil, "nil handler for %q", typ)
	if !typ.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMessageType, int(typ))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[typ]; ok {
		return fmt.Errorf("%w for %q message type", ErrDuplicateHandler, typ)
	}
	r.handlers[typ] = fn
	return nil
}

// Lookup returns the handler registered for typ.
func (r *Registry) Lookup(typ MessageType) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[typ]
	return fn, ok
}

// Types returns the registered types in ascending order.
func (r *Registry) Types() []MessageType {
	r.mu.RLock()
	types := lo.Keys(r.handlers)
	r.mu.RUnlock()

	slices.Sort(types)
	return types
}
