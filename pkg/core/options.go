package core

import "time"

// Option is a function type for configuring a single Manager call.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type Option func(*CallOptions)

// CallOptions contains per-call settings.
type CallOptions struct {
	// Now overrides the Manager's clock for this call.
	Now *time.Time

	// Metadata is attached to memories added by this call.
	Metadata map[string]interface{}

	// K overrides the number of memories FetchMemories returns.
	K int
}

// WithNow evaluates the call at t instead of the Manager's clock.
//
// Example:
//
//	_, _ = manager.AddMemory(ctx, "Took the train to Hangzhou",
//	    core.WithNow(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
//	)
func WithNow(t time.Time) Option {
	return func(opts *CallOptions) {
		opts.Now = &t
	}
}

// WithMetadata attaches metadata to the added memories.
//
// Example:
//
//	_, _ = manager.AddMemory(ctx, "content",
//	    core.WithMetadata(map[string]interface{}{
//	        "source": "conversation",
//	    }),
//	)
func WithMetadata(metadata map[string]interface{}) Option {
	return func(opts *CallOptions) {
		opts.Metadata = metadata
	}
}

// WithK sets how many memories FetchMemories returns.
//
// Example:
//
//	memories, _ := manager.FetchMemories(ctx, "What does Xiao Li like?", core.WithK(2))
func WithK(k int) Option {
	return func(opts *CallOptions) {
		opts.K = k
	}
}

func applyOptions(opts []Option) *CallOptions {
	options := &CallOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
