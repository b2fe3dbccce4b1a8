package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/heaplab/internal/engine"
	"github.com/roach88/heaplab/internal/ir"
)

// renderExperiment draws the active stage as plain text: the source array
// or sorted output, the heap one level per line with the selected node in
// brackets, then the prompt and the accepted actions.
func renderExperiment(w io.Writer, exp *engine.Experiment) {
	undo, redo := exp.HistoryDepth()
	fmt.Fprintf(w, "\n== %s (undo %d, redo %d) ==\n", exp.ActiveStage(), undo, redo)

	if s, ok := exp.SortState(); ok && exp.ActiveStage() == ir.StageSort {
		fmt.Fprintf(w, "sorted: %s\n", formatInts(s.FinalArray))
		renderHeap(w, s.HeapData, s.Node)
	} else {
		h := exp.HeapifyState()
		fmt.Fprintf(w, "array:  %s\n", formatArray(h.Array, h.Index))
		renderHeap(w, h.HeapData, h.Node)
	}

	if p := exp.Prompt(); p != "" {
		fmt.Fprintf(w, "> %s\n", p)
	}
	names := make([]string, 0, len(exp.Actions()))
	for _, a := range exp.Actions() {
		names = append(names, string(a))
	}
	fmt.Fprintf(w, "actions: %s\n", strings.Join(names, ", "))
}

// renderHeap prints level k on its own line: indices 2^k-1 .. 2^(k+1)-2.
func renderHeap(w io.Writer, heap []int, node ir.NodeRef) {
	if len(heap) == 0 {
		fmt.Fprintln(w, "heap:   (empty)")
		return
	}
	selected, hasSelected := node.Get()
	for start, width, level := 0, 1, 0; start < len(heap); start, width, level = start+width, width*2, level+1 {
		end := min(start+width, len(heap))
		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cell := strconv.Itoa(heap[i])
			if hasSelected && i == selected {
				cell = "[" + cell + "]"
			}
			cells = append(cells, cell)
		}
		label := "       "
		if level == 0 {
			label = "heap:  "
		}
		fmt.Fprintf(w, "%s%s\n", label, strings.Join(cells, " "))
	}
}

// formatArray marks the element at index with a caret.
func formatArray(array []int, index int) string {
	cells := make([]string, len(array))
	for i, v := range array {
		cells[i] = strconv.Itoa(v)
		if i == index {
			cells[i] = "^" + cells[i]
		}
	}
	return "[" + strings.Join(cells, " ") + "]"
}

func formatInts(xs []int) string {
	cells := make([]string, len(xs))
	for i, v := range xs {
		cells[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(cells, " ") + "]"
}
