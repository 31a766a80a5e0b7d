// Package mock provides a deterministic offline embedder.
//
// Text is split into terms (single Han characters, lower-cased words for
// other scripts) and each term is hashed into a bucket. Texts that share
// terms get a higher cosine similarity, which is enough for retrieval tests
// and offline examples.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimensions is used when New is given a non-positive size.
const DefaultDimensions = 256

// Embedder is a hashed bag-of-terms embedder.
type Embedder struct {
	dimensions int
}

// New creates an Embedder producing vectors of the given size.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed returns a unit vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, e.dimensions)
	terms := Terms(text)
	if len(terms) == 0 {
		vec[0] = 1
		return vec, nil
	}
	for _, term := range terms {
		h := fnv.New32a()
		_, _ = h.Write([]byte(term))
		vec[int(h.Sum32()%uint32(e.dimensions))]++
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

// Terms splits text into the terms the embedder hashes.
func Terms(text string) []string {
	var terms []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			terms = append(terms, word.String())
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			terms = append(terms, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()
	return terms
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
