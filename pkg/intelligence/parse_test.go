package intelligence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/agentmem-go/pkg/intelligence"
)

func TestParseRating(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		want     float64
		wantOK   bool
	}{
		{"json", `{"rating": 7}`, 7, true},
		{"json string value", `{"rating": "8"}`, 8, true},
		{"fenced json", "```json\n{\"rating\": 3}\n```", 3, true},
		{"repairable json", `{rating: 6,}`, 6, true},
		{"out of range stays parsed", `{"rating": 11}`, 11, true},
		{"prose", "Rating: 9 because it matters", 9, true},
		{"bare integer", "4", 4, true},
		{"no digits", "I cannot rate this", 0, false},
		{"empty", "", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := intelligence.ParseRating(tc.response)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRatings(t *testing.T) {
	values, ok := intelligence.ParseRatings(`{"ratings": [1, 5, 10]}`)
	assert.Equal(t, []float64{1, 5, 10}, values)
	assert.Equal(t, []bool{true, true, true}, ok)

	values, ok = intelligence.ParseRatings(`[2, "x", 4]`)
	assert.Equal(t, []float64{2, 0, 4}, values)
	assert.Equal(t, []bool{true, false, true}, ok)

	values, ok = intelligence.ParseRatings("3; 6;9")
	assert.Equal(t, []float64{3, 6, 9}, values)
	assert.Equal(t, []bool{true, true, true}, ok)

	values, ok = intelligence.ParseRatings("1\n2\nn/a")
	assert.Equal(t, []float64{1, 2, 0}, values)
	assert.Equal(t, []bool{true, true, false}, ok)

	values, ok = intelligence.ParseRatings("1. 8\n2. 9\n3) 10")
	assert.Equal(t, []float64{8, 9, 10}, values)
	assert.Equal(t, []bool{true, true, true}, ok)

	// an ordinal with nothing after it is still read as the rating
	values, _ = intelligence.ParseRatings("7.\n2. x")
	assert.Equal(t, []float64{7, 2}, values)

	values, _ = intelligence.ParseRatings("")
	assert.Empty(t, values)
}

func TestParseList(t *testing.T) {
	assert.Equal(t,
		[]string{"What does Tommie care about?", "Who is Tommie's friend?"},
		intelligence.ParseList("1. What does Tommie care about?\n\n  2.  Who is Tommie's friend?\n"))

	assert.Equal(t,
		[]string{"a", "b"},
		intelligence.ParseList(`["1. a", "b"]`))

	assert.Equal(t,
		[]string{"x"},
		intelligence.ParseList(`{"topics": ["x"]}`))

	assert.Empty(t, intelligence.ParseList("   \n"))
}

func TestParseFirstInteger(t *testing.T) {
	v, ok := intelligence.ParseFirstInteger("  score=42/100")
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	_, ok = intelligence.ParseFirstInteger("none")
	assert.False(t, ok)
}
