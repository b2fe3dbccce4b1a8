package engine

import "github.com/roach88/heaplab/internal/ir"

// Index law for array-backed binary trees.

// Left returns the left child index of i.
func Left(i int) int { return 2*i + 1 }

// Right returns the right child index of i.
func Right(i int) int { return 2*i + 2 }

// Parent returns the parent index of i. The root has no parent; callers
// must check i >= 1 since Go's integer division truncates (-1)/2 to 0.
func Parent(i int) int { return (i - 1) / 2 }

// IncrementIndex moves the cursor to the next array element and clears the
// selection. Fails with IndexAtBound on the last element.
func IncrementIndex(s ir.HeapifyState) (ir.HeapifyState, error) {
	if s.Index >= len(s.Array)-1 {
		return s, violation(KindIndexAtBound)
	}
	next := s.Clone()
	next.Index++
	next.Node = ir.NoNode
	return next, nil
}

// AddNode appends Array[Index] to the heap and selects the new leaf.
// Fails with IndexAtBound when the index is outside the array or the heap
// already holds every element.
func AddNode(s ir.HeapifyState) (ir.HeapifyState, error) {
	if s.Index < 0 || s.Index >= len(s.Array) || len(s.HeapData) >= len(s.Array) {
		return s, violation(KindIndexAtBound)
	}
	next := s.Clone()
	next.HeapData = append(next.HeapData, s.Array[s.Index])
	next.Node = ir.Node(len(next.HeapData) - 1)
	return next, nil
}

// SwapWithParent exchanges the selected node with its parent and moves the
// selection up. Fails with NoValidParent when nothing is selected or the
// root is selected.
func SwapWithParent(s ir.HeapifyState) (ir.HeapifyState, error) {
	node, ok := s.Node.Get()
	if !ok || node < 1 || node >= len(s.HeapData) {
		return s, violation(KindNoValidParent)
	}
	parent := Parent(node)
	next := s.Clone()
	next.HeapData[node], next.HeapData[parent] = next.HeapData[parent], next.HeapData[node]
	next.Node = ir.Node(parent)
	return next, nil
}

// ConfirmContinue freezes the selection on the root before the heap is
// handed to the sort stage. An empty heap keeps no selection.
func ConfirmContinue(s ir.HeapifyState) (ir.HeapifyState, error) {
	next := s.Clone()
	next.Node = rootOrNone(len(next.HeapData))
	return next, nil
}

// unchangedHeapify commits a snapshot without changing the state
// (Continue, CancelContinue).
func unchangedHeapify(s ir.HeapifyState) (ir.HeapifyState, error) {
	return s.Clone(), nil
}

func rootOrNone(heapLen int) ir.NodeRef {
	if heapLen == 0 {
		return ir.NoNode
	}
	return ir.Node(0)
}
