package graph

import (
	"fmt"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/ports"
)

// DefaultNearestCacheSize bounds the nearest-node memo when no size is configured.
const DefaultNearestCacheSize = 1024

// coordKey is the exact coordinate pair a nearest-node lookup was made for.
type coordKey struct {
	lat, lon float64
}

// road is the stored form of an edge; the target is resolved on read so that
// re-adding a node with new coordinates is visible through existing roads.
type road struct {
	targetID string
	weight   float64
}

// CityGraph is an in-memory directed weighted road network.
//
// Reads take the read lock and mutations take the write lock, so Neighbors and
// NearestNode are safe while other goroutines keep seeding nodes and roads.
// The nearest-node memo is written only under the read lock and purged under the
// write lock, so an entry can never outlive the graph state it was computed from.
type CityGraph struct {
	mu        sync.RWMutex
	nodes     map[string]geo.LocationNode
	adjacency map[string][]road
	nearest   *lru.Cache[coordKey, geo.LocationNode]
}

var _ ports.CityGraph = (*CityGraph)(nil)

// New constructs an empty CityGraph. cacheSize <= 0 uses DefaultNearestCacheSize.
func New(cacheSize int) (*CityGraph, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultNearestCacheSize
	}
	cache, err := lru.New[coordKey, geo.LocationNode](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("nearest node cache: %w", err)
	}
	return &CityGraph{
		nodes:     make(map[string]geo.LocationNode),
		adjacency: make(map[string][]road),
		nearest:   cache,
	}, nil
}

// AddNode registers node or updates the coordinates of an already registered id.
// The adjacency list of an existing node is kept as is.
func (g *CityGraph) AddNode(node geo.LocationNode) error {
	if err := node.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[node.ID] = node
	if _, ok := g.adjacency[node.ID]; !ok {
		g.adjacency[node.ID] = []road{}
	}
	g.nearest.Purge()
	return nil
}

// AddRoad appends a directed road from sourceID to targetID.
// Both endpoints must already be registered.
func (g *CityGraph) AddRoad(sourceID, targetID string, weight float64) error {
	if weight < 0 || math.IsNaN(weight) {
		return fmt.Errorf("%w: %s -> %s (%v)", geo.ErrNegativeWeight, sourceID, targetID, weight)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[sourceID]; !ok {
		return fmt.Errorf("%w: road source %q", geo.ErrInvalidNode, sourceID)
	}
	if _, ok := g.nodes[targetID]; !ok {
		return fmt.Errorf("%w: road target %q", geo.ErrInvalidNode, targetID)
	}

	g.adjacency[sourceID] = append(g.adjacency[sourceID], road{targetID: targetID, weight: weight})
	g.nearest.Purge()
	return nil
}

// Neighbors returns the outgoing roads of nodeID in insertion order.
// Unknown nodes and nodes without roads yield an empty slice.
func (g *CityGraph) Neighbors(nodeID string) []geo.RoadEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	roads := g.adjacency[nodeID]
	out := make([]geo.RoadEdge, 0, len(roads))
	for _, r := range roads {
		out = append(out, geo.RoadEdge{Target: g.nodes[r.targetID], Weight: r.weight})
	}
	return out
}

// NodeByID returns the node registered under nodeID.
func (g *CityGraph) NodeByID(nodeID string) (geo.LocationNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[nodeID]
	return node, ok
}

// ContainsNode reports whether nodeID is registered.
func (g *CityGraph) ContainsNode(nodeID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[nodeID]
	return ok
}

// Len returns the number of registered nodes.
func (g *CityGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// NearestNode returns the registered node with the smallest haversine distance to
// (lat, lon), or false when the graph is empty. Ties are broken arbitrarily.
func (g *CityGraph) NearestNode(lat, lon float64) (geo.LocationNode, bool) {
	key := coordKey{lat: lat, lon: lon}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nearest.Get(key); ok {
		return node, true
	}
	if len(g.nodes) == 0 {
		return geo.LocationNode{}, false
	}

	var (
		best     geo.LocationNode
		bestDist = math.Inf(1)
		found    bool
	)
	for _, node := range g.nodes {
		if d := geo.HaversineKM(lat, lon, node.Lat, node.Lon); !found || d < bestDist {
			best, bestDist, found = node, d, true
		}
	}

	g.nearest.Add(key, best)
	return best, true
}
