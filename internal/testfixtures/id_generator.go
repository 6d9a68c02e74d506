package testfixtures

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

var fixtureNamespace = uuid.MustParse("6f1c2d0e-5b7a-4c39-9e21-3a8d5f4b7c10")

// IDGenerator yields deterministic UUID-shaped user identifiers. The same
// seed and counter always produce the same ID, so assertions can name IDs
// before they are issued.
type IDGenerator struct {
	mu      sync.Mutex
	seed    string
	counter uint64
}

// NewIDGenerator constructs a generator for seed. An empty seed uses "user".
func NewIDGenerator(seed string) *IDGenerator {
	if seed == "" {
		seed = "user"
	}
	return &IDGenerator{seed: seed}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return idFor(g.seed, g.counter)
}

// Peek returns the identifier that the nth call to Next yields, counting
// from one, without advancing the generator.
func (g *IDGenerator) Peek(n uint64) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return idFor(g.seed, n)
}

// NextFunc exposes Next for injection into services.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return uuid.NewString
	}
	return g.Next
}

// Reset rewinds the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}

func idFor(seed string, n uint64) string {
	return uuid.NewSHA1(fixtureNamespace, []byte(seed+"/"+strconv.FormatUint(n, 10))).String()
}
