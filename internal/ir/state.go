package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// NodeRef is an optional index into a heap. The zero value is unset.
type NodeRef struct {
	index int
	set   bool
}

// NoNode is the unset NodeRef.
var NoNode = NodeRef{}

// Node returns a NodeRef selecting i.
func Node(i int) NodeRef {
	return NodeRef{index: i, set: true}
}

// Get returns the index and whether one is set.
func (n NodeRef) Get() (int, bool) {
	return n.index, n.set
}

// IsSet reports whether a node is selected.
func (n NodeRef) IsSet() bool { return n.set }

func (n NodeRef) String() string {
	if !n.set {
		return "none"
	}
	return strconv.Itoa(n.index)
}

// MarshalJSON encodes an unset ref as null.
func (n NodeRef) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.index)
}

// UnmarshalJSON accepts null or an integer.
func (n *NodeRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NoNode
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	*n = Node(i)
	return nil
}

// inRange reports whether n is unset exactly when the heap is empty and
// otherwise points inside it.
func (n NodeRef) inRange(heapLen int) bool {
	if !n.set {
		return heapLen == 0
	}
	return n.index >= 0 && n.index < heapLen
}

func nodeFromIR(obj Object) (NodeRef, error) {
	i, ok, err := obj.Int("node")
	if err != nil {
		return NoNode, err
	}
	if !ok {
		return NoNode, nil
	}
	return Node(i), nil
}

func (n NodeRef) putIR(obj Object) {
	if n.set {
		obj["node"] = Int(n.index)
	}
}

// HeapifyState is the state of the heap-construction stage.
type HeapifyState struct {
	Array    []int   `json:"array"`
	Index    int     `json:"index"`
	HeapData []int   `json:"heapData"`
	Node     NodeRef `json:"node"`
}

// Clone returns a deep copy; slices are never shared.
func (s HeapifyState) Clone() HeapifyState {
	return HeapifyState{
		Array:    cloneInts(s.Array),
		Index:    s.Index,
		HeapData: cloneInts(s.HeapData),
		Node:     s.Node,
	}
}

// Equal compares element-wise. nil and empty slices are equal.
func (s HeapifyState) Equal(o HeapifyState) bool {
	return slices.Equal(s.Array, o.Array) &&
		s.Index == o.Index &&
		slices.Equal(s.HeapData, o.HeapData) &&
		s.Node == o.Node
}

// Check reports the first broken state invariant, or nil.
func (s HeapifyState) Check() error {
	if len(s.HeapData) > len(s.Array) {
		return fmt.Errorf("heap holds %d elements, array only %d", len(s.HeapData), len(s.Array))
	}
	if len(s.Array) > 0 && (s.Index < 0 || s.Index >= len(s.Array)) {
		return fmt.Errorf("index %d outside [0,%d)", s.Index, len(s.Array))
	}
	if !s.Node.inRange(len(s.HeapData)) {
		return fmt.Errorf("node %s invalid for heap of %d", s.Node, len(s.HeapData))
	}
	return nil
}

// ToIR converts the state to a canonical object. An unset node is omitted.
func (s HeapifyState) ToIR() Object {
	obj := Object{
		"array":    Ints(s.Array),
		"index":    Int(s.Index),
		"heapData": Ints(s.HeapData),
	}
	s.Node.putIR(obj)
	return obj
}

// HeapifyStateFromIR is the inverse of ToIR.
func HeapifyStateFromIR(obj Object) (HeapifyState, error) {
	var s HeapifyState
	var err error
	if s.Array, err = obj.IntSlice("array"); err != nil {
		return s, err
	}
	if s.HeapData, err = obj.IntSlice("heapData"); err != nil {
		return s, err
	}
	idx, ok, err := obj.Int("index")
	if err != nil {
		return s, err
	}
	if !ok {
		return s, fmt.Errorf("missing field %q", "index")
	}
	s.Index = idx
	if s.Node, err = nodeFromIR(obj); err != nil {
		return s, err
	}
	return s, nil
}

// SortState is the state of the extraction stage.
type SortState struct {
	FinalArray []int   `json:"finalArray"`
	HeapData   []int   `json:"heapData"`
	Node       NodeRef `json:"node"`
}

// Clone returns a deep copy; slices are never shared.
func (s SortState) Clone() SortState {
	return SortState{
		FinalArray: cloneInts(s.FinalArray),
		HeapData:   cloneInts(s.HeapData),
		Node:       s.Node,
	}
}

// Equal compares element-wise. nil and empty slices are equal.
func (s SortState) Equal(o SortState) bool {
	return slices.Equal(s.FinalArray, o.FinalArray) &&
		slices.Equal(s.HeapData, o.HeapData) &&
		s.Node == o.Node
}

// Check reports the first broken state invariant, or nil.
func (s SortState) Check() error {
	if !s.Node.inRange(len(s.HeapData)) {
		return fmt.Errorf("node %s invalid for heap of %d", s.Node, len(s.HeapData))
	}
	return nil
}

// Size is len(FinalArray)+len(HeapData), constant within the stage.
func (s SortState) Size() int {
	return len(s.FinalArray) + len(s.HeapData)
}

// ToIR converts the state to a canonical object. An unset node is omitted.
func (s SortState) ToIR() Object {
	obj := Object{
		"finalArray": Ints(s.FinalArray),
		"heapData":   Ints(s.HeapData),
	}
	s.Node.putIR(obj)
	return obj
}

// SortStateFromIR is the inverse of ToIR.
func SortStateFromIR(obj Object) (SortState, error) {
	var s SortState
	var err error
	if s.FinalArray, err = obj.IntSlice("finalArray"); err != nil {
		return s, err
	}
	if s.HeapData, err = obj.IntSlice("heapData"); err != nil {
		return s, err
	}
	if s.Node, err = nodeFromIR(obj); err != nil {
		return s, err
	}
	return s, nil
}

// cloneInts copies xs, returning an empty non-nil slice for nil input.
func cloneInts(xs []int) []int {
	out := make([]int, len(xs))
	copy(out, xs)
	return out
}
