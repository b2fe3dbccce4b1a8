package engine

import "github.com/roach88/heaplab/internal/ir"

// SwapRootAndEnd exchanges the root with the last heap element and selects
// the last position. Fails with EmptyHeap.
func SwapRootAndEnd(s ir.SortState) (ir.SortState, error) {
	if len(s.HeapData) == 0 {
		return s, violation(KindEmptyHeap)
	}
	last := len(s.HeapData) - 1
	next := s.Clone()
	next.HeapData[0], next.HeapData[last] = next.HeapData[last], next.HeapData[0]
	next.Node = ir.Node(last)
	return next, nil
}

// PushEndAndDelete moves the last heap element onto the end of FinalArray.
// The selection returns to the root, or is cleared once the heap is empty.
// Fails with EmptyHeap.
func PushEndAndDelete(s ir.SortState) (ir.SortState, error) {
	if len(s.HeapData) == 0 {
		return s, violation(KindEmptyHeap)
	}
	last := len(s.HeapData) - 1
	next := s.Clone()
	next.FinalArray = append(next.FinalArray, next.HeapData[last])
	next.HeapData = next.HeapData[:last]
	next.Node = rootOrNone(len(next.HeapData))
	return next, nil
}

// Heapify runs SiftDown from the root and selects the root.
// Fails with EmptyHeap.
func Heapify(s ir.SortState) (ir.SortState, error) {
	if len(s.HeapData) == 0 {
		return s, violation(KindEmptyHeap)
	}
	next := s.Clone()
	SiftDown(next.HeapData)
	next.Node = ir.Node(0)
	return next, nil
}

// SiftDown pushes h[0] toward the leaves in place, one swap per level:
//
//	left branch:  h[i] > h[left] && (L == 2 || h[left] < h[right])
//	right branch: h[i] > h[right]
//
// The right branch does not compare the two children. When the right child
// is missing and L != 2 the left branch is not taken either, so a lone left
// child below the top level is never swapped. This is the graded rule and
// must not be turned into a textbook sift-down.
func SiftDown(h []int) {
	n := len(h)
	i := 0
	for {
		left, right := Left(i), Right(i)
		switch {
		case left < n && h[i] > h[left] && (n == 2 || (right < n && h[left] < h[right])):
			h[i], h[left] = h[left], h[i]
			i = left
		case right < n && h[i] > h[right]:
			h[i], h[right] = h[right], h[i]
			i = right
		default:
			return
		}
	}
}

// unchangedSort commits a snapshot without changing the state
// (Submit, CancelSubmit, ConfirmSubmit).
func unchangedSort(s ir.SortState) (ir.SortState, error) {
	return s.Clone(), nil
}
