package geo

import "errors"

var (
	ErrNegativeWeight = errors.New("road weight cannot be negative")
	ErrInvalidNode    = errors.New("location node does not exist in the graph")
	ErrPathNotFound   = errors.New("no path found between nodes")
)

// RoadEdge is a directed road owned by its source node's adjacency list.
// Weight is a road cost and is unrelated to the haversine distance of the endpoints.
type RoadEdge struct {
	Target LocationNode
	Weight float64
}

// PathResult is a least-cost route from start to end, both inclusive.
type PathResult struct {
	TotalDistance float64
	Path          []LocationNode
}

// IDs returns the node ids along the path in travel order.
func (result PathResult) IDs() []string {
	ids := make([]string, 0, len(result.Path))
	for _, node := range result.Path {
		ids = append(ids, node.ID)
	}
	return ids
}
