package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/heaplab/internal/ir"
)

func heapifyState(array []int) ir.HeapifyState {
	return ir.HeapifyState{Array: array, HeapData: []int{}}
}

func TestIndexLaw(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Equal(t, i, Parent(Left(i)))
		assert.Equal(t, i, Parent(Right(i)))
	}
	assert.Equal(t, 0, Parent(0), "root parent truncates to 0; callers guard node >= 1")
}

func TestIncrementIndex(t *testing.T) {
	s := heapifyState([]int{4, 1, 7})
	s.Node = ir.NoNode

	next, err := IncrementIndex(s)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Index)
	assert.False(t, next.Node.IsSet())

	next, err = IncrementIndex(next)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Index)

	_, err = IncrementIndex(next)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindIndexAtBound, kind)
}

func TestIncrementIndex_ClearsSelection(t *testing.T) {
	s := ir.HeapifyState{Array: []int{4, 1}, HeapData: []int{4}, Node: ir.Node(0)}

	next, err := IncrementIndex(s)
	require.NoError(t, err)
	assert.Equal(t, ir.NoNode, next.Node)
	assert.Equal(t, ir.Node(0), s.Node, "input is not mutated")
}

func TestAddNode(t *testing.T) {
	s := heapifyState([]int{4, 1, 7})
	s.Index = 1

	next, err := AddNode(s)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, next.HeapData)
	assert.Equal(t, ir.Node(0), next.Node)
	assert.Empty(t, s.HeapData, "input is not mutated")

	next, err = AddNode(next)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, next.HeapData)
	assert.Equal(t, ir.Node(1), next.Node)
}

func TestAddNode_RejectsFullHeap(t *testing.T) {
	s := ir.HeapifyState{Array: []int{4, 1}, Index: 1, HeapData: []int{4, 1}, Node: ir.Node(1)}

	got, err := AddNode(s)
	kind, _ := KindOf(err)
	assert.Equal(t, KindIndexAtBound, kind)
	assert.True(t, s.Equal(got))
}

func TestAddNode_RejectsEmptyArray(t *testing.T) {
	_, err := AddNode(heapifyState(nil))
	kind, _ := KindOf(err)
	assert.Equal(t, KindIndexAtBound, kind)
}

func TestSwapWithParent(t *testing.T) {
	s := ir.HeapifyState{Array: []int{5, 3, 1}, Index: 2, HeapData: []int{5, 3, 1}, Node: ir.Node(2)}

	next, err := SwapWithParent(s)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, next.HeapData)
	assert.Equal(t, ir.Node(0), next.Node)
	assert.Equal(t, []int{5, 3, 1}, s.HeapData, "input is not mutated")
}

func TestSwapWithParent_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		state ir.HeapifyState
	}{
		{"no selection", ir.HeapifyState{Array: []int{1, 2}, HeapData: []int{1, 2}, Node: ir.NoNode}},
		{"root selected", ir.HeapifyState{Array: []int{1, 2}, HeapData: []int{1, 2}, Node: ir.Node(0)}},
		{"empty heap", heapifyState([]int{1, 2})},
		{"stale selection", ir.HeapifyState{Array: []int{1, 2}, HeapData: []int{1}, Node: ir.Node(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SwapWithParent(tt.state)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, KindNoValidParent, kind)
			assert.True(t, tt.state.Equal(got))
		})
	}
}

func TestSwapWithParent_ReachesRootWithinLogBound(t *testing.T) {
	for n := 1; n <= 32; n++ {
		array := make([]int, n)
		for i := range array {
			array[i] = n - i
		}
		s := heapifyState(array)
		var err error
		for i := 0; i < n; i++ {
			s.Index = i
			s, err = AddNode(s)
			require.NoError(t, err)
		}
		s.Node = ir.Node(n - 1)

		bound := int(math.Ceil(math.Log2(float64(n + 1))))
		steps := 0
		for {
			next, err := SwapWithParent(s)
			if err != nil {
				break
			}
			s = next
			steps++
			require.LessOrEqual(t, steps, bound, "n=%d", n)
		}
		assert.Equal(t, ir.Node(0), s.Node, "n=%d", n)
		assert.LessOrEqual(t, steps, bound, "n=%d", n)
	}
}

func TestConfirmContinue(t *testing.T) {
	s := ir.HeapifyState{Array: []int{5, 3}, Index: 1, HeapData: []int{3, 5}, Node: ir.Node(1)}
	next, err := ConfirmContinue(s)
	require.NoError(t, err)
	assert.Equal(t, ir.Node(0), next.Node)

	empty, err := ConfirmContinue(heapifyState([]int{5, 3}))
	require.NoError(t, err)
	assert.False(t, empty.Node.IsSet())
}
