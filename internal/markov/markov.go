// Package markov implements the word-transition fingerprint model used for
// content-similarity comparison. A chain records how often each word follows
// another in a text; two texts that share passages share transitions, so the
// size of the chains' intersection measures their overlap.
package markov

import (
	"strings"
	"unicode"

	"github.com/theassyrian/earwigbot/internal/copyvios"
)

// Sentinel tokens bounding every text, so single-word texts still produce
// transitions and passage boundaries count.
const (
	startToken = "\x02"
	endToken   = "\x03"
)

type gram struct {
	from, to string
}

// Chain is a statistical fingerprint of a text: the multiset of its
// word-to-word transitions.
type Chain struct {
	grams map[gram]int
	size  int
}

// New builds a Chain from text. The empty string yields a chain of size 0.
func New(text string) *Chain {
	words := tokenize(text)
	c := &Chain{grams: make(map[gram]int, len(words))}
	if len(words) == 0 {
		return c
	}
	tokens := make([]string, 0, len(words)+2)
	tokens = append(tokens, startToken)
	tokens = append(tokens, words...)
	tokens = append(tokens, endToken)
	for i := 0; i < len(tokens)-1; i++ {
		c.grams[gram{from: tokens[i], to: tokens[i+1]}]++
		c.size++
	}
	return c
}

// Size returns the total transition count.
func (c *Chain) Size() int {
	return c.size
}

// Intersection returns the fingerprint shared by a and b: every common
// transition, counted the smaller of the two times it occurs.
func Intersection(a, b *Chain) *Chain {
	small, large := a, b
	if len(large.grams) < len(small.grams) {
		small, large = large, small
	}
	out := &Chain{grams: make(map[gram]int)}
	for g, n := range small.grams {
		m, ok := large.grams[g]
		if !ok {
			continue
		}
		if m < n {
			n = m
		}
		out.grams[g] = n
		out.size += n
	}
	return out
}

// tokenize lowercases text, strips punctuation except hyphens, and splits on
// whitespace.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return unicode.ToLower(r)
		case r == '-' || r == '_':
			return r
		default:
			return -1
		}
	}, text)
	return strings.Fields(cleaned)
}

// Model adapts the chain functions to the engine's FingerprintModel
// interface.
type Model struct{}

// Build implements copyvios.FingerprintModel.
func (Model) Build(text string) copyvios.Fingerprint {
	return New(text)
}

// Intersect implements copyvios.FingerprintModel. Fingerprints built by a
// different model intersect to an empty chain.
func (Model) Intersect(a, b copyvios.Fingerprint) copyvios.Fingerprint {
	ca, okA := a.(*Chain)
	cb, okB := b.(*Chain)
	if !okA || !okB {
		return &Chain{grams: make(map[gram]int)}
	}
	return Intersection(ca, cb)
}
