package graph

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-dispatch/internal/domain/geo"
)

// newDemoGraph builds A(10,74) B(11,34) C(8,10) D(48,30) E(81,63) with
// roads A->B:5, A->C:2, B->D:4, C->D:6, C->E:3.
func newDemoGraph(t *testing.T) *CityGraph {
	t.Helper()
	g, err := New(16)
	require.NoError(t, err)
	for _, n := range []geo.LocationNode{
		{ID: "A", Lat: 10, Lon: 74},
		{ID: "B", Lat: 11, Lon: 34},
		{ID: "C", Lat: 8, Lon: 10},
		{ID: "D", Lat: 48, Lon: 30},
		{ID: "E", Lat: 81, Lon: 63},
	} {
		require.NoError(t, g.AddNode(n))
	}
	for _, r := range []struct {
		from, to string
		w        float64
	}{
		{"A", "B", 5}, {"A", "C", 2}, {"B", "D", 4}, {"C", "D", 6}, {"C", "E", 3},
	} {
		require.NoError(t, g.AddRoad(r.from, r.to, r.w))
	}
	return g
}

func TestAddNodeIsIdempotent(t *testing.T) {
	g := newDemoGraph(t)

	require.NoError(t, g.AddNode(geo.LocationNode{ID: "A", Lat: 12, Lon: 70}))

	assert.Equal(t, 5, g.Len())
	node, ok := g.NodeByID("A")
	require.True(t, ok)
	assert.Equal(t, 12.0, node.Lat)
	assert.Equal(t, 70.0, node.Lon)

	roads := g.Neighbors("A")
	require.Len(t, roads, 2)
	assert.Equal(t, "B", roads[0].Target.ID)
	assert.Equal(t, 5.0, roads[0].Weight)
	assert.Equal(t, "C", roads[1].Target.ID)
	assert.Equal(t, 2.0, roads[1].Weight)
}

func TestNeighborsSeeUpdatedTargetCoordinates(t *testing.T) {
	g := newDemoGraph(t)
	require.NoError(t, g.AddNode(geo.LocationNode{ID: "C", Lat: 9, Lon: 11}))

	roads := g.Neighbors("A")
	require.Len(t, roads, 2)
	assert.Equal(t, geo.LocationNode{ID: "C", Lat: 9, Lon: 11}, roads[1].Target)
}

func TestNeighborsEmpty(t *testing.T) {
	g := newDemoGraph(t)

	assert.NotNil(t, g.Neighbors("E"))
	assert.Empty(t, g.Neighbors("E"))
	assert.Empty(t, g.Neighbors("nowhere"))
}

func TestAddNodeRejectsInvalidNode(t *testing.T) {
	g, err := New(0)
	require.NoError(t, err)

	assert.ErrorIs(t, g.AddNode(geo.LocationNode{ID: ""}), geo.ErrEmptyNodeID)
	assert.ErrorIs(t, g.AddNode(geo.LocationNode{ID: "X", Lat: 100}), geo.ErrInvalidLatitude)
	assert.Zero(t, g.Len())
}

func TestAddRoadValidation(t *testing.T) {
	g := newDemoGraph(t)

	assert.ErrorIs(t, g.AddRoad("A", "Z", 1), geo.ErrInvalidNode)
	assert.ErrorIs(t, g.AddRoad("Z", "A", 1), geo.ErrInvalidNode)
	assert.ErrorIs(t, g.AddRoad("A", "B", -1), geo.ErrNegativeWeight)
	assert.Len(t, g.Neighbors("A"), 2)
	assert.False(t, g.ContainsNode("Z"))

	require.NoError(t, g.AddRoad("E", "A", 0))
	assert.Len(t, g.Neighbors("E"), 1)
}

func TestNearestNode(t *testing.T) {
	empty, err := New(4)
	require.NoError(t, err)
	_, ok := empty.NearestNode(10, 74)
	assert.False(t, ok)

	g := newDemoGraph(t)

	node, ok := g.NearestNode(81, 63)
	require.True(t, ok)
	assert.Equal(t, "E", node.ID)
	assert.Zero(t, node.DistanceTo(geo.LocationNode{Lat: 81, Lon: 63}))

	node, ok = g.NearestNode(10.1, 74.1)
	require.True(t, ok)
	assert.Equal(t, "A", node.ID)
}

func TestNearestNodeCacheIsInvalidatedByAddNode(t *testing.T) {
	g := newDemoGraph(t)

	node, ok := g.NearestNode(40, 40)
	require.True(t, ok)
	assert.Equal(t, "D", node.ID)

	require.NoError(t, g.AddNode(geo.LocationNode{ID: "F", Lat: 40, Lon: 40}))

	node, ok = g.NearestNode(40, 40)
	require.True(t, ok)
	assert.Equal(t, "F", node.ID)

	// moving F away must also be visible through the memo
	require.NoError(t, g.AddNode(geo.LocationNode{ID: "F", Lat: -60, Lon: -120}))
	node, ok = g.NearestNode(40, 40)
	require.True(t, ok)
	assert.Equal(t, "D", node.ID)
}

func TestConcurrentSeedingAndReads(t *testing.T) {
	g, err := New(8)
	require.NoError(t, err)
	require.NoError(t, g.AddNode(geo.LocationNode{ID: "hub", Lat: 0, Lon: 0}))

	const writers = 4
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("n-%d-%d", w, i)
				assert.NoError(t, g.AddNode(geo.LocationNode{ID: id, Lat: float64(i % 80), Lon: float64(w)}))
				assert.NoError(t, g.AddRoad("hub", id, float64(i)))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, ok := g.NearestNode(float64(i), 1)
				assert.True(t, ok)
				_ = g.Neighbors("hub")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter+1, g.Len())
	assert.Len(t, g.Neighbors("hub"), writers*perWriter)
}
