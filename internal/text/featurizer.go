package text

import (
	"math"
	"sort"
	"strings"
	"unicode"

	spooky "github.com/dgryski/go-spooky"

	"github.com/Veraticus/textclass/internal/data"
)

// DefaultBits is the default number of hash bits per n-gram family.
const DefaultBits = 16

const (
	wordFamily byte = 'w'
	charFamily byte = 'c'

	textStart = '\x02'
	textEnd   = '\x03'
)

// Featurizer maps text to a fixed-length, L2-normalized vector of hashed
// n-gram counts. Word n-grams use the first 2^Bits slots, character n-grams
// the next 2^Bits. Collisions are accepted.
type Featurizer struct {
	Processor  *Processor
	Bits       int
	WordNgrams int
	CharNgrams int
}

// NewFeaturizer returns a featurizer emitting word unigrams and bigrams and
// character trigrams. bits <= 0 selects DefaultBits.
func NewFeaturizer(bits int) *Featurizer {
	if bits <= 0 {
		bits = DefaultBits
	}
	return &Featurizer{
		Processor:  DefaultProcessor,
		Bits:       bits,
		WordNgrams: 2,
		CharNgrams: 3,
	}
}

// Length returns the length of every vector produced by Featurize.
func (f *Featurizer) Length() int {
	return 2 * f.slots()
}

func (f *Featurizer) slots() int {
	return 1 << uint(f.Bits)
}

// Featurize returns the feature vector of s.
func (f *Featurizer) Featurize(s string) data.Vector {
	counts := make(map[int]float64)
	var buf []byte

	tokens := f.Processor.Apply(Tokenize(s))
	for n := 1; n <= f.WordNgrams; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			buf = append(buf[:0], wordFamily, byte(n))
			buf = append(buf, strings.Join(tokens[i:i+n], " ")...)
			counts[f.slot(buf, 0)]++
		}
	}

	if f.CharNgrams > 0 {
		runes := charStream(s)
		for i := 0; i+f.CharNgrams <= len(runes); i++ {
			buf = append(buf[:0], charFamily)
			buf = append(buf, string(runes[i:i+f.CharNgrams])...)
			counts[f.slot(buf, f.slots())]++
		}
	}

	return normalize(counts, f.Length())
}

func (f *Featurizer) slot(key []byte, offset int) int {
	return offset + int(spooky.Hash64(key)%uint64(f.slots()))
}

// charStream lower-cases s, collapses whitespace runs into one space and
// wraps the result in start and end markers.
func charStream(s string) []rune {
	out := []rune{textStart}
	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !space {
				out = append(out, ' ')
			}
			space = true
			continue
		}
		space = false
		out = append(out, unicode.ToLower(r))
	}
	return append(out, textEnd)
}

func normalize(counts map[int]float64, length int) data.Vector {
	v := data.Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
		Length:  length,
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)

	var norm float64
	for _, idx := range v.Indices {
		norm += counts[idx] * counts[idx]
	}
	norm = math.Sqrt(norm)
	for _, idx := range v.Indices {
		v.Values = append(v.Values, counts[idx]/norm)
	}
	return v
}
