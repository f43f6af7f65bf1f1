// Package pathfinder computes least-cost routes over the road network.
package pathfinder

import (
	"container/heap"
	"fmt"

	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/ports"
)

// Dijkstra is a single-source shortest-path solver with lazy deletion: a node may sit
// in the queue several times and superseded entries are skipped when extracted.
type Dijkstra struct{}

var _ ports.PathFinder = Dijkstra{}

// NewDijkstra returns the default PathFinder.
func NewDijkstra() Dijkstra { return Dijkstra{} }

// FindShortestPath returns the least-cost path from startID to endID.
// It fails with geo.ErrInvalidNode if either id is unknown and geo.ErrPathNotFound
// if endID cannot be reached.
func (Dijkstra) FindShortestPath(graph ports.CityGraph, startID, endID string) (geo.PathResult, error) {
	if !graph.ContainsNode(startID) {
		return geo.PathResult{}, fmt.Errorf("%w: start %q", geo.ErrInvalidNode, startID)
	}
	if !graph.ContainsNode(endID) {
		return geo.PathResult{}, fmt.Errorf("%w: end %q", geo.ErrInvalidNode, endID)
	}

	// absent key means "infinite"
	distances := map[string]float64{startID: 0}
	previous := make(map[string]string)

	pq := &queue{{nodeID: startID, distance: 0}}

	for pq.Len() > 0 {
		current := heap.Pop(pq).(entry)

		// stale entry, a shorter distance was recorded after this one was pushed
		if current.distance > distances[current.nodeID] {
			continue
		}
		if current.nodeID == endID {
			break
		}

		for _, edge := range graph.Neighbors(current.nodeID) {
			candidate := distances[current.nodeID] + edge.Weight
			known, seen := distances[edge.Target.ID]
			if !seen || candidate < known {
				distances[edge.Target.ID] = candidate
				previous[edge.Target.ID] = current.nodeID
				heap.Push(pq, entry{nodeID: edge.Target.ID, distance: candidate})
			}
		}
	}

	total, ok := distances[endID]
	if !ok {
		return geo.PathResult{}, fmt.Errorf("%w: %s -> %s", geo.ErrPathNotFound, startID, endID)
	}

	return geo.PathResult{TotalDistance: total, Path: reconstruct(graph, previous, startID, endID)}, nil
}

// reconstruct walks predecessor links from endID back to startID.
func reconstruct(graph ports.CityGraph, previous map[string]string, startID, endID string) []geo.LocationNode {
	var reversed []geo.LocationNode
	step := endID
	for {
		node, _ := graph.NodeByID(step)
		reversed = append(reversed, node)
		if step == startID {
			break
		}
		step = previous[step]
	}

	path := make([]geo.LocationNode, len(reversed))
	for i, node := range reversed {
		path[len(reversed)-1-i] = node
	}
	return path
}

// entry is a tentative distance for a node.
type entry struct {
	nodeID   string
	distance float64
}

// queue is a min-heap of entries ordered by distance.
type queue []entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool { return q[i].distance < q[j].distance }

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
