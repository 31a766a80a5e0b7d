package core

import (
	"context"
	"sync"
)

// AsyncManager runs Manager operations on goroutines.
//
// Every async method returns a channel that receives exactly one result and
// is then closed. Operations still serialize on the wrapped Manager, so
// results arrive in the order the Manager ran them, not necessarily the
// order they were submitted. Wait blocks until every submitted operation has
// finished.
//
// Example:
//
//	asyncManager := core.NewAsyncManager(manager)
//	defer asyncManager.Close()
//
//	result := <-asyncManager.AddMemoryAsync(ctx, "Xiao Li moved to Hangzhou")
//	if result.Error != nil {
//	    log.Fatal(result.Error)
//	}
type AsyncManager struct {
	*Manager
	wg sync.WaitGroup
}

// NewAsyncManager wraps manager.
func NewAsyncManager(manager *Manager) *AsyncManager {
	return &AsyncManager{Manager: manager}
}

// NewAsyncManagerFromConfig builds a Manager from cfg and wraps it.
//
// Parameters:
//   - ctx: Context for loading the agent's stored memories
//   - cfg: Manager configuration
//
// Returns:
//   - *AsyncManager: The asynchronous manager instance
//   - error: Error if configuration is invalid or initialization fails
func NewAsyncManagerFromConfig(ctx context.Context, cfg *Config) (*AsyncManager, error) {
	manager, err := NewManagerFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewAsyncManager(manager), nil
}

// AddMemoryAsync adds a memory asynchronously.
//
// The operation executes in a separate goroutine and returns results via a channel.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - content: Observation to remember
//   - opts: Optional call options (WithNow, WithMetadata)
//
// Returns:
//   - <-chan *IDResult: Channel that receives the new memory ID and error
func (am *AsyncManager) AddMemoryAsync(ctx context.Context, content string, opts ...Option) <-chan *IDResult {
	resultChan := make(chan *IDResult, 1)
	am.wg.Add(1)

	go func() {
		defer am.wg.Done()
		id, err := am.AddMemory(ctx, content, opts...)
		resultChan <- &IDResult{ID: id, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// AddMemoriesAsync adds a delimited batch of memories asynchronously.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - batch: Observations joined by the configured batch delimiter
//   - opts: Optional call options (WithNow, WithMetadata)
//
// Returns:
//   - <-chan *IDsResult: Channel that receives the new memory IDs and error
func (am *AsyncManager) AddMemoriesAsync(ctx context.Context, batch string, opts ...Option) <-chan *IDsResult {
	resultChan := make(chan *IDsResult, 1)
	am.wg.Add(1)

	go func() {
		defer am.wg.Done()
		ids, err := am.AddMemories(ctx, batch, opts...)
		resultChan <- &IDsResult{IDs: ids, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// FetchMemoriesAsync retrieves memories asynchronously.
//
// The operation executes in a separate goroutine and returns results via a channel.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - observation: Query text
//   - opts: Optional call options (WithNow, WithK)
//
// Returns:
//   - <-chan *MemoriesResult: Channel that receives the ranked memories and error
func (am *AsyncManager) FetchMemoriesAsync(ctx context.Context, observation string, opts ...Option) <-chan *MemoriesResult {
	resultChan := make(chan *MemoriesResult, 1)
	am.wg.Add(1)

	go func() {
		defer am.wg.Done()
		memories, err := am.FetchMemories(ctx, observation, opts...)
		resultChan <- &MemoriesResult{Memories: memories, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// PauseToReflectAsync runs a reflection pass asynchronously.
//
// Returns:
//   - <-chan *InsightsResult: Channel that receives the stored insights and error
func (am *AsyncManager) PauseToReflectAsync(ctx context.Context, opts ...Option) <-chan *InsightsResult {
	resultChan := make(chan *InsightsResult, 1)
	am.wg.Add(1)

	go func() {
		defer am.wg.Done()
		insights, err := am.PauseToReflect(ctx, opts...)
		resultChan <- &InsightsResult{Insights: insights, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// Wait blocks until all submitted operations have finished.
func (am *AsyncManager) Wait() {
	am.wg.Wait()
}

// Close waits for pending operations and closes the Manager.
func (am *AsyncManager) Close() error {
	am.wg.Wait()
	return am.Manager.Close()
}
