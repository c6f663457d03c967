package errcode

import (
	"fmt"
	"sync"
)

// Registry guards against two modules claiming the same code
type Registry struct {
	mu    sync.RWMutex
	codes map[int]string // code -> module:msgKey
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register adds err to the global registry and returns it, so it can be
// used in var blocks. It panics on a conflicting code.
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register records err. Registering the same code and key twice is a no-op.
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s:%s", err.Module(), err.MsgKey())
	if existing, ok := r.codes[err.Code()]; ok {
		if existing != key {
			panic(fmt.Sprintf("error code conflict: code %d is already registered as %s, cannot register as %s",
				err.Code(), existing, key))
		}
		return err
	}
	r.codes[err.Code()] = key
	return err
}

// GetAll returns a snapshot of registered codes
func (r *Registry) GetAll() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]string, len(r.codes))
	for k, v := range r.codes {
		out[k] = v
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// GetAllRegisteredCodes returns the global registry snapshot
func GetAllRegisteredCodes() map[int]string {
	return globalRegistry.GetAll()
}
