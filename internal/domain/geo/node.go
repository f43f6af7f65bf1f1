package geo

import (
	"errors"
	"math"
	"strings"
)

// EarthRadiusKM is the sphere radius used by the haversine distance.
const EarthRadiusKM = 6371.0

var (
	ErrEmptyNodeID      = errors.New("location node id cannot be empty")
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// LocationNode is a named point of the road network.
type LocationNode struct {
	ID  string  `json:"id" yaml:"id"`
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// NewLocationNode constructs a validated LocationNode.
func NewLocationNode(id string, lat, lon float64) (LocationNode, error) {
	node := LocationNode{ID: strings.TrimSpace(id), Lat: lat, Lon: lon}
	if err := node.Validate(); err != nil {
		return LocationNode{}, err
	}
	return node, nil
}

// Validate checks the coordinate ranges of the LocationNode.
func (node LocationNode) Validate() error {
	if strings.TrimSpace(node.ID) == "" {
		return ErrEmptyNodeID
	}
	if node.Lat < -90 || node.Lat > 90 {
		return ErrInvalidLatitude
	}
	if node.Lon < -180 || node.Lon > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// DistanceTo returns the great-circle distance to other in kilometers.
func (node LocationNode) DistanceTo(other LocationNode) float64 {
	return HaversineKM(node.Lat, node.Lon, other.Lat, other.Lon)
}

// HaversineKM returns the great-circle distance between two coordinates in kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	a1 := lat1 * math.Pi / 180
	a2 := lat2 * math.Pi / 180
	da := (lat2 - lat1) * math.Pi / 180
	db := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}
