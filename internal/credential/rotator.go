// Package credential manages the ordered pool of API keys a batch draws on.
//
// Rotation is monotonic and never wraps: once the last key is exhausted the
// pool stays on it. A Rotator is owned by a single orchestrator and is not
// safe for concurrent use.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/gemini"
)

// ErrNoCredentials is returned by New when the pool is empty.
var ErrNoCredentials = errors.New("credential: no API keys configured")

// Dialer creates a generation client bound to one key.
type Dialer func(ctx context.Context, key string) (gemini.Generator, error)

// Rotator hands out the active key's client and advances on demand.
type Rotator struct {
	keys    []string
	dial    Dialer
	clients map[int]gemini.Generator

	index int
	usage int
	used  map[int]bool
}

// New creates a Rotator over keys, in order. Clients are dialled lazily.
func New(keys []string, dial Dialer) (*Rotator, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	if dial == nil {
		return nil, errors.New("credential: dialer is required")
	}
	return &Rotator{
		keys:    append([]string(nil), keys...),
		dial:    dial,
		clients: make(map[int]gemini.Generator),
		used:    make(map[int]bool),
	}, nil
}

// Current returns the client for the active key, dialling it on first use.
func (r *Rotator) Current(ctx context.Context) (gemini.Generator, error) {
	if c, ok := r.clients[r.index]; ok {
		return c, nil
	}
	c, err := r.dial(ctx, r.keys[r.index])
	if err != nil {
		return nil, fmt.Errorf("credential: dial key %d: %w", r.index+1, err)
	}
	r.clients[r.index] = c
	return c, nil
}

// Rotate advances to the next key. It returns false, leaving the state
// unchanged, when the active key is already the last one.
func (r *Rotator) Rotate() bool {
	if !r.CanRotate() {
		return false
	}
	r.index++
	return true
}

// RecordUsage adds n to the cumulative usage and marks the active key used.
func (r *Rotator) RecordUsage(n int) {
	r.usage += n
	r.used[r.index] = true
}

// Index is the 0-based position of the active key.
func (r *Rotator) Index() int { return r.index }

// Size is the number of keys in the pool.
func (r *Rotator) Size() int { return len(r.keys) }

// CanRotate reports whether a later key remains.
func (r *Rotator) CanRotate() bool { return r.index < len(r.keys)-1 }

// TotalUsage is the cumulative usage recorded so far.
func (r *Rotator) TotalUsage() int { return r.usage }

// Used returns the 0-based indices of keys that recorded usage, ascending.
func (r *Rotator) Used() []int {
	out := make([]int, 0, len(r.used))
	for i := range r.used {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
