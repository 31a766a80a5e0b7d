package intelligence_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/agentmem-go/pkg/intelligence"
)

func TestExponentialDecay(t *testing.T) {
	decay := intelligence.ExponentialDecay(0.01)

	assert.Equal(t, 1.0, decay(0))
	assert.Equal(t, 1.0, decay(-5*time.Hour))
	assert.InDelta(t, 0.99, decay(time.Hour), 1e-12)
	assert.InDelta(t, math.Pow(0.99, 100), decay(100*time.Hour), 1e-12)
}

func TestDecayMonotonic(t *testing.T) {
	for _, decay := range []intelligence.DecayFunc{
		intelligence.ExponentialDecay(0.01),
		intelligence.ExponentialDecay(0.5),
		intelligence.EbbinghausDecay(0.1),
	} {
		prev := decay(0)
		for h := 1; h <= 500; h += 7 {
			cur := decay(time.Duration(h) * time.Hour)
			assert.LessOrEqual(t, cur, prev)
			assert.Greater(t, cur, 0.0)
			prev = cur
		}
	}
}

func TestEbbinghausDecay(t *testing.T) {
	decay := intelligence.EbbinghausDecay(0.1)
	assert.Equal(t, 1.0, decay(0))
	assert.InDelta(t, math.Exp(-0.1), decay(24*time.Hour), 1e-12)
	assert.Equal(t, 1.0, decay(-time.Hour))
}

func TestNewDecayFunc(t *testing.T) {
	assert.InDelta(t, 0.9, intelligence.NewDecayFunc("exponential", 0.1)(time.Hour), 1e-12)
	assert.InDelta(t, 0.9, intelligence.NewDecayFunc("", 0.1)(time.Hour), 1e-12)
	assert.InDelta(t, math.Exp(-0.1/24), intelligence.NewDecayFunc("ebbinghaus", 0.1)(time.Hour), 1e-12)
}
