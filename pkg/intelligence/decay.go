package intelligence

import (
	"math"
	"time"
)

// DefaultDecayRate forgets about 1% per hour.
const DefaultDecayRate = 0.01

// DecayFunc maps the time since a memory was last accessed to a recency score
// in (0, 1]. Implementations must be non-increasing in elapsed and must treat
// negative elapsed as zero.
type DecayFunc func(elapsed time.Duration) float64

// ExponentialDecay returns (1-rate)^hours.
//
// rate must be in (0, 1); smaller rates forget more slowly.
func ExponentialDecay(rate float64) DecayFunc {
	base := 1 - rate
	return func(elapsed time.Duration) float64 {
		return math.Pow(base, hoursOf(elapsed))
	}
}

// EbbinghausDecay returns e^(-rate*hours/24), the forgetting curve used for
// retention strength. It decays more slowly than ExponentialDecay for the
// same rate.
func EbbinghausDecay(rate float64) DecayFunc {
	return func(elapsed time.Duration) float64 {
		retention := math.Exp(-rate * hoursOf(elapsed) / 24.0)
		if retention > 1.0 {
			return 1.0
		}
		return retention
	}
}

// NewDecayFunc selects a decay model by name ("exponential" or
// "ebbinghaus"). Unknown names use the exponential model.
func NewDecayFunc(model string, rate float64) DecayFunc {
	if model == DecayModelEbbinghaus {
		return EbbinghausDecay(rate)
	}
	return ExponentialDecay(rate)
}

// Decay model names.
const (
	DecayModelExponential = "exponential"
	DecayModelEbbinghaus  = "ebbinghaus"
)

func hoursOf(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Hours()
}
