// Package text turns free text into deterministic numeric feature vectors.
package text

import (
	"strings"
	"unicode"

	porterstemmer "github.com/kiteco/go-porterstemmer"
)

// Tokens represents a slice of strings.
type Tokens []string

// TokenFunc defines a type of function that takes in an array of tokens and
// returns an array of tokens.
type TokenFunc func(Tokens) Tokens

// Processor consists of a list of text processing rules.
type Processor struct {
	filters []TokenFunc
}

// DefaultProcessor lower-cases and stems tokens.
var DefaultProcessor = NewProcessor(Lower, Stem)

// NewProcessor takes a list of TokenFuncs to instantiate a Processor.
func NewProcessor(funcs ...TokenFunc) *Processor {
	return &Processor{filters: append([]TokenFunc(nil), funcs...)}
}

// Apply applies a list of TokenFunc to transform the input tokens.
func (p *Processor) Apply(ts Tokens) Tokens {
	for _, fn := range p.filters {
		ts = fn(ts)
	}
	return ts
}

// Tokenize splits s into runs of letters and digits. Everything else,
// punctuation included, separates tokens.
// Examples:
// "SignalR's WebSockets, v2" -> {"SignalR", "s", "WebSockets", "v2"}
func Tokenize(s string) Tokens {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Lower converts all tokens to lower case.
func Lower(ts Tokens) Tokens {
	for i, t := range ts {
		ts[i] = strings.ToLower(t)
	}
	return ts
}

// Stem extracts and returns the stems of each token in the input token
// stream. Tokens of two runes or fewer are left alone.
func Stem(ts Tokens) Tokens {
	for i, t := range ts {
		if len([]rune(t)) <= 2 {
			continue
		}
		ts[i] = porterstemmer.StemString(t)
	}
	return ts
}
