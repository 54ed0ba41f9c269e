// Package surface defines the rendering-surface collaborator contract the
// history engine depends on, plus an in-memory raster implementation used by
// the demo and tests.
package surface

import "context"

// Surface exposes the state primitives the engine and its commands use.
// Implementations must tolerate calls in any order; no implicit locking is
// assumed beyond each call being internally consistent.
type Surface interface {
	// State returns a copy of the surface's structured state blob.
	State() ([]byte, error)

	// SetState replaces the surface's state from a structured blob.
	SetState(data []byte) error

	// EncodeState returns an encoded-string representation of the current
	// state. It is the fallback capture path when State fails.
	EncodeState() (string, error)

	// ApplyEncoded decodes an encoded-string representation and applies it.
	// Decoding may block; ctx bounds the work.
	ApplyEncoded(ctx context.Context, encoded string) error

	// Valid reports whether the surface is still usable. It is false after
	// teardown, at which point commands backed by the surface go stale.
	Valid() bool
}
