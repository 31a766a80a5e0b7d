package intelligence

// ReflectionState is the phase of a Manager's reflection cycle.
type ReflectionState int

const (
	// ReflectionIdle accepts a new reflection once the threshold is crossed.
	ReflectionIdle ReflectionState = iota

	// ReflectionReflecting means a pass is running. Memories added by the
	// pass accumulate importance but cannot start another pass.
	ReflectionReflecting

	// ReflectionCooldown follows a completed pass until the configured
	// cooldown lapses.
	ReflectionCooldown
)

// String returns the state name.
func (s ReflectionState) String() string {
	switch s {
	case ReflectionIdle:
		return "idle"
	case ReflectionReflecting:
		return "reflecting"
	case ReflectionCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}
