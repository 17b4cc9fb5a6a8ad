package workflow

import "slices"

// DefaultBatchSize is the number of buildings sent in one model request.
const DefaultBatchSize = 85

// Partition splits items into consecutive batches of at most size elements,
// preserving order. The final batch may be smaller. A size below one falls
// back to DefaultBatchSize.
func Partition[T any](items []T, size int) [][]T {
	if size < 1 {
		size = DefaultBatchSize
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for chunk := range slices.Chunk(items, size) {
		batches = append(batches, chunk)
	}
	return batches
}
