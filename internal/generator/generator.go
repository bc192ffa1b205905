// Package generator builds the word stream for a practice round.
package generator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/typedrill/internal/model"
)

// Generator produces word streams from document words.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Build returns exactly count words drawn from words according to mode.
// It returns nil when words is empty or count is not positive.
func (g *Generator) Build(words []string, count int, mode model.Mode) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	if mode == model.ModeSequential {
		return Sequential(words, count)
	}
	return g.Random(words, count)
}

// Sequential repeats words in order, wrapping around until count entries exist.
func Sequential(words []string, count int) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	result := make([]string, 0, count)
	for len(result) < count {
		remain := count - len(result)
		if remain > len(words) {
			remain = len(words)
		}
		result = append(result, words[:remain]...)
	}
	return result
}

// Random draws count words uniformly with replacement.
func (g *Generator) Random(words []string, count int) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, words[g.rnd.Intn(len(words))])
	}
	return result
}
