package aligndata

import (
	"slices"
	"testing"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		items, n  int
		wantSizes []int
	}{
		{10, 4, []int{2, 3, 2, 3}},
		{8, 4, []int{2, 2, 2, 2}},
		{3, 4, []int{0, 1, 1, 1}},
		{0, 2, []int{0, 0}},
		{5, 0, []int{5}},
		{7, 1, []int{7}},
	}
	for _, tt := range tests {
		items := make([]int, tt.items)
		for i := range items {
			items[i] = i
		}
		parts := Partition(items, tt.n)
		var sizes []int
		var joined []int
		for _, p := range parts {
			sizes = append(sizes, len(p))
			joined = append(joined, p...)
		}
		if !slices.Equal(sizes, tt.wantSizes) {
			t.Errorf("Partition(%d, %d) sizes = %v, want %v", tt.items, tt.n, sizes, tt.wantSizes)
		}
		if !slices.Equal(joined, items) {
			t.Errorf("Partition(%d, %d) does not cover items in order: %v", tt.items, tt.n, joined)
		}
	}
}
