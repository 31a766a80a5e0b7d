package core

import "context"

// DefaultStreamBatchSize is used when StreamMemories is given a
// non-positive batch size.
const DefaultStreamBatchSize = 100

// StreamBatch is one batch of memories from StreamMemories.
type StreamBatch struct {
	// Memories is a batch of memories, in insertion order.
	Memories []*Memory

	// BatchIndex is the index of this batch (0-based).
	BatchIndex int

	// IsLastBatch indicates whether this is the last batch.
	IsLastBatch bool

	// Error contains any error that occurred during streaming (if any).
	Error error
}

// StreamMemories pages through the memory stream in insertion order, for
// exporting or replaying it. The stream is snapshotted when the call is
// made; memories added afterwards are not sent.
//
// The channel is closed after the last batch, or after a batch carrying
// ctx.Err() when ctx is cancelled. An empty stream sends one empty last
// batch.
//
// Example:
//
//	for batch := range manager.StreamMemories(ctx, 50) {
//	    if batch.Error != nil {
//	        log.Fatal(batch.Error)
//	    }
//	    for _, mem := range batch.Memories {
//	        export(mem)
//	    }
//	}
func (m *Manager) StreamMemories(ctx context.Context, batchSize int) <-chan *StreamBatch {
	if batchSize <= 0 {
		batchSize = DefaultStreamBatchSize
	}
	snapshot := m.store.Stream()
	resultChan := make(chan *StreamBatch, 1)

	go func() {
		defer close(resultChan)

		if len(snapshot) == 0 {
			send(ctx, resultChan, &StreamBatch{Memories: []*Memory{}, IsLastBatch: true})
			return
		}

		batchIndex := 0
		for i := 0; i < len(snapshot); i += batchSize {
			if err := ctx.Err(); err != nil {
				select {
				case resultChan <- &StreamBatch{BatchIndex: batchIndex, Error: NewMemoryError("StreamMemories", err)}:
				default:
				}
				return
			}

			end := i + batchSize
			if end > len(snapshot) {
				end = len(snapshot)
			}
			batch := &StreamBatch{
				Memories:    snapshot[i:end],
				BatchIndex:  batchIndex,
				IsLastBatch: end == len(snapshot),
			}
			if !send(ctx, resultChan, batch) {
				return
			}
			batchIndex++
		}
	}()

	return resultChan
}

// send delivers batch unless ctx is cancelled first.
func send(ctx context.Context, ch chan<- *StreamBatch, batch *StreamBatch) bool {
	select {
	case ch <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}
