package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationNodeValidation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		lat     float64
		lon     float64
		wantErr error
	}{
		{"valid", "A", 10, 74, nil},
		{"trimmed id", "  B ", 11, 34, nil},
		{"empty id", "   ", 0, 0, ErrEmptyNodeID},
		{"latitude too high", "C", 90.5, 0, ErrInvalidLatitude},
		{"longitude too low", "D", 0, -181, ErrInvalidLongitude},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLocationNode(tc.id, tc.lat, tc.lon)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHaversine(t *testing.T) {
	a := LocationNode{ID: "A", Lat: 10, Lon: 74}
	assert.Zero(t, a.DistanceTo(a))

	// one degree of latitude on the 6371 km sphere
	b := LocationNode{ID: "B", Lat: 11, Lon: 74}
	assert.InDelta(t, 111.195, a.DistanceTo(b), 0.01)
	assert.InDelta(t, a.DistanceTo(b), b.DistanceTo(a), 1e-9)
}

func TestPathResultIDs(t *testing.T) {
	n, err := NewLocationNode("X", 1, 1)
	require.NoError(t, err)
	res := PathResult{TotalDistance: 0, Path: []LocationNode{n}}
	assert.Equal(t, []string{"X"}, res.IDs())
}
