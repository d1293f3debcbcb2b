package osm

import (
	"slices"

	"github.com/paulmach/osm"
)

// ChainWays joins ways that share an end node into continuous node
// sequences, reversing ways as needed, and returns the longest one. Ties go
// to the chain seeded from the earlier way.
func ChainWays(ways []Waterway) []osm.NodeID {
	used := make([]bool, len(ways))
	var best []osm.NodeID
	for seed := range ways {
		if used[seed] {
			continue
		}
		used[seed] = true
		chain := slices.Clone(ways[seed].NodeIDs)

		for extended := true; extended; {
			extended = false
			for i, w := range ways {
				if used[i] {
					continue
				}
				if next, ok := join(chain, w.NodeIDs); ok {
					chain = next
					used[i] = true
					extended = true
				}
			}
		}
		if len(chain) > len(best) {
			best = chain
		}
	}
	return best
}

// join attaches way to either end of chain if they share an end node.
func join(chain, way []osm.NodeID) ([]osm.NodeID, bool) {
	head, tail := chain[0], chain[len(chain)-1]
	first, last := way[0], way[len(way)-1]
	switch {
	case tail == first:
		return append(chain, way[1:]...), true
	case tail == last:
		r := slices.Clone(way)
		slices.Reverse(r)
		return append(chain, r[1:]...), true
	case head == last:
		return append(slices.Clone(way[:len(way)-1]), chain...), true
	case head == first:
		r := slices.Clone(way)
		slices.Reverse(r)
		return append(r[:len(r)-1], chain...), true
	}
	return nil, false
}
