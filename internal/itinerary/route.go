package itinerary

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/pkordes/atob/internal/domain"
)

// ErrRouteTooShort is returned for a route with fewer than two points.
var ErrRouteTooShort = errors.New("route must contain at least two points")

// PointOf returns the step coordinates as an orb point (longitude, latitude).
func PointOf(s domain.Step) orb.Point {
	return orb.Point{s.Longitude, s.Latitude}
}

// StraightDistance is the great-circle distance in meters between two steps.
func StraightDistance(a, b domain.Step) float64 {
	return geo.DistanceHaversine(PointOf(a), PointOf(b))
}

// RouteLength is the length in meters of a route along the earth's surface.
func RouteLength(route orb.LineString) float64 {
	return geo.LengthHaversine(route)
}

// EstimateDistance returns the route length when a usable route is given,
// otherwise the straight distance between origin and destination.
func EstimateDistance(origin, destination domain.Step, route orb.LineString) float64 {
	if len(route) >= 2 {
		return RouteLength(route)
	}
	return StraightDistance(origin, destination)
}

// ValidateRoute checks point count and coordinate ranges. An empty route is
// valid (no geometry recorded).
func ValidateRoute(route orb.LineString) error {
	if len(route) == 0 {
		return nil
	}
	if len(route) < 2 {
		return ErrRouteTooShort
	}
	for i, p := range route {
		if p.Lon() < -180 || p.Lon() > 180 || p.Lat() < -90 || p.Lat() > 90 {
			return fmt.Errorf("route point %d is out of range", i)
		}
	}
	return nil
}

// Bounds returns the bounding box of the steps, false when there are none.
func Bounds(steps []domain.Step) (orb.Bound, bool) {
	if len(steps) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, len(steps))
	for i, s := range steps {
		mp[i] = PointOf(s)
	}
	return mp.Bound(), true
}
