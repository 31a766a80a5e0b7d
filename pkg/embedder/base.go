// Package embedder defines the text embedding collaborator.
//
// The memory store embeds every record on insertion and the retriever embeds
// each query. Backends live in sub-packages; embedder/mock is a deterministic
// offline implementation.
package embedder

import "context"

// Provider turns text into dense vectors.
type Provider interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions is the length of every vector this provider returns.
	Dimensions() int

	// Close releases provider resources.
	Close() error
}

// ToFloat64 widens a float32 vector.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// ToFloat32 narrows a float64 vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
