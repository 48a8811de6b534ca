package util

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{name: "empty", items: nil, size: 3, want: nil},
		{name: "exact", items: []int{1, 2, 3, 4}, size: 2, want: [][]int{{1, 2}, {3, 4}}},
		{name: "remainder", items: []int{1, 2, 3, 4, 5}, size: 2, want: [][]int{{1, 2}, {3, 4}, {5}}},
		{name: "smaller than size", items: []int{1, 2}, size: 500, want: [][]int{{1, 2}}},
		{name: "non-positive size", items: []int{1, 2, 3}, size: 0, want: [][]int{{1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Chunk(tt.items, tt.size)); diff != "" {
				t.Errorf("Chunk() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChunkDoesNotLeakCapacity(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	chunks := Chunk(items, 2)

	chunks[0] = append(chunks[0], 99)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}

func TestJoinIDs(t *testing.T) {
	assert.Equal(t, "", JoinIDs(nil))
	assert.Equal(t, "7", JoinIDs([]int64{7}))
	assert.Equal(t, "1,22,333", JoinIDs([]int64{1, 22, 333}))
}

func TestPointers(t *testing.T) {
	assert.False(t, BoolValue(nil))
	assert.True(t, BoolValue(Ptr(true)))
	assert.Equal(t, "x", *Ptr("x"))
}
