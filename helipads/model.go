// Package helipads holds reference data about landing sites: where each
// helipad is and how tall the obstacles are on each approach direction.
package helipads

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/smartpad/landing/backend/landing"
)

// ErrNotFound is returned when a helipad does not exist or none lies within
// the search radius.
var ErrNotFound = errors.New("helipad not found")

// Helipad represents a landing site with location and obstacle survey.
// Elevation is stored in feet.
type Helipad struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Latitude    float64               `json:"latitude"`
	Longitude   float64               `json:"longitude"`
	ElevationFt float64               `json:"elevation_ft"`
	Obstacles   landing.ObstacleTable `json:"obstacles"`
	Description string                `json:"description,omitempty"`
	SurveyedOn  *time.Time            `json:"surveyed_on,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Match is a helipad found by a proximity search.
type Match struct {
	Helipad
	DistanceNM float64 `json:"distance_nm"`
}

// Store persists helipads.
type Store interface {
	List(ctx context.Context) ([]Helipad, error)
	Get(ctx context.Context, id int64) (Helipad, error)
	Create(ctx context.Context, h Helipad) (Helipad, error)
	Nearest(ctx context.Context, lat, lon, maxNM float64) (Match, error)
}

// DistNM returns the great-circle distance between two positions in
// nautical miles.
func DistNM(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 3440.06
	r1, r2 := lat1*math.Pi/180, lat2*math.Pi/180

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	// handle dateline crossing
	for dLon > math.Pi {
		dLon -= 2 * math.Pi
	}
	for dLon < -math.Pi {
		dLon += 2 * math.Pi
	}

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(r1)*math.Cos(r2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// nearest picks the closest helipad within maxNM. Ties go to the lower id.
func nearest(pads []Helipad, lat, lon, maxNM float64) (Match, bool) {
	var best Match
	found := false
	for _, h := range pads {
		d := DistNM(lat, lon, h.Latitude, h.Longitude)
		if d > maxNM {
			continue
		}
		if !found || d < best.DistanceNM || (d == best.DistanceNM && h.ID < best.ID) {
			best = Match{Helipad: h, DistanceNM: d}
			found = true
		}
	}
	return best, found
}
