package secrets

import (
	"context"
	"errors"
	"sync"
)

// ErrAccessorUnavailable is returned by a TokenSlot once its accessor has been
// handed to a Provider.
var ErrAccessorUnavailable = errors.New("this function is no longer available")

// TokenFunc returns the current API token.
type TokenFunc func(ctx context.Context) (string, error)

// TokenSlot is the process-wide place where the host puts its token accessor
// before any Provider exists. The first Provider takes the accessor out and
// leaves a function behind that always fails.
type TokenSlot struct {
	mu sync.Mutex
	fn TokenFunc
}

// NewTokenSlot creates a slot holding fn.
func NewTokenSlot(fn TokenFunc) *TokenSlot {
	return &TokenSlot{fn: fn}
}

// GetAuthToken calls the accessor currently in the slot.
func (s *TokenSlot) GetAuthToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()

	if fn == nil {
		return "", errNoAccessor
	}
	return fn(ctx)
}

// take returns the accessor and disables the slot. It is a one-way step.
func (s *TokenSlot) take() TokenFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn := s.fn
	s.fn = func(context.Context) (string, error) {
		return "", ErrAccessorUnavailable
	}
	return fn
}

var errNoAccessor = errors.New("no token accessor installed")
