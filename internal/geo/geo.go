// Package geo provides great-circle distance math and radius-scoped store
// search. All functions are pure and safe for concurrent use.
package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pricewatch/engine/pkg/model"
)

// ErrInvalidArgument signals a bad radius or out-of-range coordinate.
var ErrInvalidArgument = errors.New("invalid argument")

// earthRadiusKm is the mean Earth radius of the spherical approximation.
const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between two
// coordinates in kilometers.
func Distance(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Nearby returns the stores within radiusKm of origin, ascending by
// distance. Equidistant stores are ordered by id so results are
// deterministic.
func Nearby(origin model.Coordinate, stores []model.Store, radiusKm float64) ([]model.Store, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return nil, fmt.Errorf("%w: radius must be > 0, got %v", ErrInvalidArgument, radiusKm)
	}

	type candidate struct {
		store model.Store
		dist  float64
	}

	var within []candidate
	for _, s := range stores {
		d := Distance(origin, s.Location)
		if d <= radiusKm {
			within = append(within, candidate{store: s, dist: d})
		}
	}

	sort.Slice(within, func(i, j int) bool {
		if within[i].dist != within[j].dist {
			return within[i].dist < within[j].dist
		}
		return within[i].store.ID < within[j].store.ID
	})

	result := make([]model.Store, len(within))
	for i, c := range within {
		result[i] = c.store
	}
	return result, nil
}
