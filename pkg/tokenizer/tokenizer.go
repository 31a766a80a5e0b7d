// Package tokenizer counts tokens for the memory token budget.
package tokenizer

import (
	"fmt"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter returns the number of model tokens in text.
type Counter interface {
	CountTokens(text string) int
}

// DefaultEncoding is used when a model has no registered encoding.
const DefaultEncoding = "cl100k_base"

// Tiktoken counts tokens with a BPE encoding from tiktoken-go. Encoding
// tables are fetched on first use unless TIKTOKEN_CACHE_DIR holds them.
type Tiktoken struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktoken returns a counter for model. An unknown model falls back to
// DefaultEncoding.
func NewTiktoken(model string) (*Tiktoken, error) {
	var (
		enc *tiktoken.Tiktoken
		err error
	)
	if model != "" {
		enc, err = tiktoken.EncodingForModel(model)
	}
	if enc == nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
	}
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load encoding: %w", err)
	}
	return &Tiktoken{enc: enc}, nil
}

// CountTokens implements Counter.
func (t *Tiktoken) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// Estimate approximates token counts without an encoding table: one token per
// Han, Hiragana, Katakana or Hangul character and one per four other
// characters, rounded up.
type Estimate struct{}

// CountTokens implements Counter.
func (Estimate) CountTokens(text string) int {
	var cjk, other int
	for _, r := range text {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			cjk++
		} else {
			other++
		}
	}
	return cjk + (other+3)/4
}

// New returns a Tiktoken counter for model, or Estimate when the encoding
// cannot be loaded (for example without network access).
func New(model string) (Counter, error) {
	t, err := NewTiktoken(model)
	if err != nil {
		return Estimate{}, err
	}
	return t, nil
}

// Runes counts one token per rune. Useful in tests where exact budgets
// matter.
type Runes struct{}

// CountTokens implements Counter.
func (Runes) CountTokens(text string) int {
	return utf8.RuneCountInString(text)
}
