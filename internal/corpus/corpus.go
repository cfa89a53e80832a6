// Package corpus holds the reference sentences a typing test draws from.
package corpus

import (
	"errors"
	"strings"
)

// ErrEmpty is returned when a corpus would contain no sentences.
var ErrEmpty = errors.New("corpus is empty")

var defaultSentences = []string{
	"The quick brown fox jumps over the lazy dog. This sentence contains every letter of the alphabet.",
	"Python is a versatile programming language that is widely used in web development, data science, and automation.",
	"Practice makes perfect. The more you type, the faster and more accurate you will become over time.",
	"Typing speed is measured in words per minute. Professional typists can achieve speeds of over 80 WPM.",
	"Regular practice and proper finger placement on the keyboard are essential for improving typing skills.",
}

// Corpus is an immutable, non-empty ordered list of sentences.
type Corpus struct {
	sentences []string
}

// New builds a corpus from sentences. Entries are trimmed and blank entries
// dropped; ErrEmpty is returned if nothing remains.
func New(sentences []string) (*Corpus, error) {
	kept := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil, ErrEmpty
	}
	return &Corpus{sentences: kept}, nil
}

// Default returns the built-in corpus.
func Default() *Corpus {
	c, err := New(defaultSentences)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of sentences.
func (c *Corpus) Len() int {
	return len(c.sentences)
}

// At returns the sentence at index i.
func (c *Corpus) At(i int) string {
	return c.sentences[i]
}

// Sentences returns a copy of all sentences in order.
func (c *Corpus) Sentences() []string {
	out := make([]string, len(c.sentences))
	copy(out, c.sentences)
	return out
}

// Contains reports whether s is one of the corpus sentences.
func (c *Corpus) Contains(s string) bool {
	for _, sentence := range c.sentences {
		if sentence == s {
			return true
		}
	}
	return false
}
