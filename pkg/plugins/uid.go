package plugins

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// UIDLength is the number of characters in a plugin UID
	UIDLength = 64

	uidCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// UIDGenerator produces plugin UIDs. UIDs are unique only with high probability.
// The generator is seeded on first use.
type UIDGenerator struct {
	once sync.Once
	mu   sync.Mutex
	seed func() uint64
	rng  *rand.Rand
}

// NewUIDGenerator returns a generator seeded from the current time at first use
func NewUIDGenerator() *UIDGenerator {
	return &UIDGenerator{
		seed: func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

// NewSeededUIDGenerator returns a generator with a fixed seed, for reproducible UIDs
func NewSeededUIDGenerator(seed uint64) *UIDGenerator {
	return &UIDGenerator{
		seed: func() uint64 { return seed },
	}
}

// Generate returns a new UIDLength character UID drawn from [0-9A-Za-z]
func (g *UIDGenerator) Generate() string {
	g.once.Do(func() {
		s := g.seed()
		g.rng = rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
	})

	g.mu.Lock()
	defer g.mu.Unlock()

	uid := make([]byte, UIDLength)
	for i := range uid {
		uid[i] = uidCharset[g.rng.IntN(len(uidCharset))]
	}
	return string(uid)
}

// ValidUID reports whether s has the shape of a generated UID
func ValidUID(s string) bool {
	if len(s) != UIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z') {
			return false
		}
	}
	return true
}
