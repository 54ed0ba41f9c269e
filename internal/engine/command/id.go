package command

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// Generator produces unique command IDs from a monotonic counter plus a
// random suffix. Each factory that constructs commands owns its own
// Generator; there is no shared package-level counter.
type Generator struct {
	counter atomic.Uint64
}

// NewGenerator creates a new ID generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns a new unique ID with the given prefix.
func (g *Generator) Next(prefix string) string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s-%d-%s", prefix, n, randomSuffix())
}

// randomSuffix returns 4 random bytes hex-encoded.
func randomSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a timestamp-based suffix if crypto/rand fails.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// Base carries the identity fields shared by all commands. Embed it and
// supply the behavior methods.
type Base struct {
	id        string
	name      string
	timestamp time.Time
}

// NewBase creates a Base with an ID from gen and the current time.
func NewBase(gen *Generator, name string) Base {
	return Base{
		id:        gen.Next("cmd"),
		name:      name,
		timestamp: time.Now(),
	}
}

// ID returns the command's unique identifier.
func (b Base) ID() string { return b.id }

// Name returns the command's human-readable label.
func (b Base) Name() string { return b.name }

// Timestamp returns the command's creation time.
func (b Base) Timestamp() time.Time { return b.timestamp }
