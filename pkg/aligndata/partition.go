package aligndata

// Partition splits items into n contiguous slices. Slice i is
// items[i*len/n : (i+1)*len/n], so sizes differ by at most one and sum to
// len(items). n < 1 is treated as 1. The slices share items' backing array.
func Partition[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	total := len(items)
	parts := make([][]T, n)
	for i := range n {
		parts[i] = items[i*total/n : (i+1)*total/n]
	}
	return parts
}
