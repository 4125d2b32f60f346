// Package words builds difficulty-scaled word sequences for races.
package words

import (
	"math/rand"
	"time"

	"github.com/typedash/typedash/internal/model"
)

// Generator produces randomized race prompts. For bot races each side
// draws from its own Generator; for duels the host generates one
// Sequence and shares it verbatim, so the guest never re-invokes the
// generator.
type Generator struct {
	rnd  *rand.Rand
	prev int
	// vocab overrides the built-in tier vocabulary when non-nil.
	vocab map[model.Difficulty][]string
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed, for reproducible
// sequences in tests.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), prev: -1}
}

// SetVocabulary replaces the built-in word list for a tier, typically
// from a user-provided word list file.
func (g *Generator) SetVocabulary(d model.Difficulty, list []string) {
	if len(list) == 0 {
		return
	}
	if g.vocab == nil {
		g.vocab = map[model.Difficulty][]string{}
	}
	g.vocab[d] = list
	g.prev = -1
}

// Next draws one word from the tier vocabulary, never repeating the
// immediately preceding draw.
func (g *Generator) Next(d model.Difficulty) string {
	list := g.list(d)
	if len(list) == 1 {
		return list[0]
	}
	i := g.rnd.Intn(len(list))
	for i == g.prev {
		i = g.rnd.Intn(len(list))
	}
	g.prev = i
	return list[i]
}

// Sequence draws count words for a race. The returned slice is the
// source of truth for a duel: both peers race the same array.
func (g *Generator) Sequence(d model.Difficulty, count int) []string {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.Next(d))
	}
	return out
}

func (g *Generator) list(d model.Difficulty) []string {
	if g.vocab != nil {
		if list, ok := g.vocab[d]; ok {
			return list
		}
	}
	return Vocabulary(d)
}

// Vocabulary returns the built-in word list for a tier. Word length
// and complexity scale with difficulty.
func Vocabulary(d model.Difficulty) []string {
	switch d {
	case model.DifficultyEasy:
		return easyWords
	case model.DifficultyHard:
		return hardWords
	case model.DifficultyInsane:
		return insaneWords
	default:
		return mediumWords
	}
}
