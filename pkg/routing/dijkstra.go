package routing

import (
	"context"
	"math"

	"river_tracer/pkg/graph"
)

const noEdge = ^uint32(0) // sentinel for "no predecessor edge"

// MinHeap is a concrete-typed min-heap for the Dijkstra priority queue.
// Avoids interface boxing overhead of container/heap. Equal distances pop
// in ascending node order.
type MinHeap struct {
	items []PQItem
}

// PQItem is a priority queue entry.
type PQItem struct {
	Node uint32
	Dist float64
}

func (a PQItem) less(b PQItem) bool {
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	return a.Node < b.Node
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, PQItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.items[i].less(h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].less(h.items[smallest]) {
			smallest = left
		}
		if right < n && h.items[right].less(h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// QueryState holds per-query Dijkstra state. Pred stores the edge index used
// to reach each node, so a real and a jump edge between the same pair stay
// distinguishable.
type QueryState struct {
	Dist    []float64
	Pred    []uint32 // index into Graph.Edges, noEdge for none
	Touched []uint32 // nodes touched during this query (for fast reset)
	PQ      MinHeap
}

// NewQueryState creates a new QueryState for a graph with n nodes.
func NewQueryState(n uint32) *QueryState {
	dist := make([]float64, n)
	pred := make([]uint32, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = noEdge
	}
	return &QueryState{
		Dist:    dist,
		Pred:    pred,
		Touched: make([]uint32, 0, 256),
		PQ:      MinHeap{items: make([]PQItem, 0, 64)},
	}
}

// Reset clears only the touched entries for fast reuse.
func (qs *QueryState) Reset() {
	for _, node := range qs.Touched {
		qs.Dist[node] = math.Inf(1)
		qs.Pred[node] = noEdge
	}
	qs.Touched = qs.Touched[:0]
	qs.PQ.Reset()
}

func (qs *QueryState) touch(node uint32, dist float64, pred uint32) {
	if math.IsInf(qs.Dist[node], 1) {
		qs.Touched = append(qs.Touched, node)
	}
	qs.Dist[node] = dist
	qs.Pred[node] = pred
}

// Dijkstra runs a one-to-one search from source to target over g and
// returns the cost and the edge indices of the path in travel order. An
// unreachable target yields +Inf and no edges.
func Dijkstra(ctx context.Context, g *graph.Graph, qs *QueryState, source, target uint32) (float64, []uint32, error) {
	qs.touch(source, 0, noEdge)
	qs.PQ.Push(source, 0)

	iterations := 0
	for qs.PQ.Len() > 0 {
		// Check context cancellation periodically.
		iterations++
		if iterations%100 == 0 {
			if err := ctx.Err(); err != nil {
				return math.Inf(1), nil, err
			}
		}

		cur := qs.PQ.Pop()
		if cur.Dist > qs.Dist[cur.Node] {
			continue
		}
		if cur.Node == target {
			break
		}

		start, end := g.EdgesFrom(cur.Node)
		for s := start; s < end; s++ {
			v := g.AdjHead[s]
			ei := g.AdjEdge[s]
			newDist := cur.Dist + g.Edges[ei].Weight
			if newDist < qs.Dist[v] {
				qs.touch(v, newDist, ei)
				qs.PQ.Push(v, newDist)
			}
		}
	}

	cost := qs.Dist[target]
	if math.IsInf(cost, 1) {
		return cost, nil, nil
	}

	var edges []uint32
	for node := target; node != source; {
		ei := qs.Pred[node]
		edges = append(edges, ei)
		node = g.Edges[ei].Other(node)
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return cost, edges, nil
}
