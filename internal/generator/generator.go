// Package generator picks reference text for typing tests.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/typespeed/internal/corpus"
)

// Generator selects sentences at random.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed for reproducible runs.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick selects one sentence uniformly from c.
func (g *Generator) Pick(c *corpus.Corpus) string {
	return c.At(g.rnd.Intn(c.Len()))
}
