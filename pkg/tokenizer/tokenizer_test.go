package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/agentmem-go/pkg/tokenizer"
)

func TestEstimate(t *testing.T) {
	var c tokenizer.Counter = tokenizer.Estimate{}
	assert.Equal(t, 0, c.CountTokens(""))
	assert.Equal(t, 1, c.CountTokens("abc"))
	assert.Equal(t, 2, c.CountTokens("abcde"))
	assert.Equal(t, 5, c.CountTokens("小李喜欢茶"))
	assert.Equal(t, 3, c.CountTokens("小李 a"))
}

func TestRunes(t *testing.T) {
	var c tokenizer.Counter = tokenizer.Runes{}
	assert.Equal(t, 5, c.CountTokens("hello"))
	assert.Equal(t, 2, c.CountTokens("小李"))
}
