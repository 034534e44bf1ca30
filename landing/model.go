// Package landing computes landing recommendations for VTOL approaches to a
// helipad. Everything in this package is pure: a Recommend call reads only
// its input and the engine's immutable rule set.
package landing

import "fmt"

// GPS is a position in decimal degrees.
type GPS struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Weather holds the surface wind. WindSpeed is in knots.
type Weather struct {
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection Compass `json:"wind_direction"`
}

// Aircraft identifies the approaching aircraft. Weight is in kilograms.
type Aircraft struct {
	Model  string  `json:"model"`
	Weight float64 `json:"weight"`
}

// LandingRequest describes one approach to a helipad.
type LandingRequest struct {
	GPS      GPS      `json:"gps"`
	Weather  Weather  `json:"weather"`
	Aircraft Aircraft `json:"aircraft"`
}

// LandingResponse is the recommendation for a single request. DecisionHeight
// is in feet above the landing surface.
type LandingResponse struct {
	PathType       string   `json:"path_type"`
	Direction      Compass  `json:"direction"`
	DecisionHeight float64  `json:"decision_height"`
	RiskScore      int      `json:"risk_score"`
	Warnings       []string `json:"warnings"`
}

// ObstacleTable maps a landing direction to the tallest known obstacle on
// that approach, in feet.
type ObstacleTable map[Compass]float64

// Height returns the obstacle height for c, or 0 if c has no entry.
func (t ObstacleTable) Height(c Compass) float64 {
	return t[c]
}

// Clone returns an independent copy of t.
func (t ObstacleTable) Clone() ObstacleTable {
	out := make(ObstacleTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// ParseObstacleTable converts a table keyed by compass symbols, as found in
// configuration files and JSON payloads, into an ObstacleTable.
func ParseObstacleTable(raw map[string]float64) (ObstacleTable, error) {
	out := make(ObstacleTable, len(raw))
	for k, v := range raw {
		c, err := ParseCompass(k)
		if err != nil {
			return nil, err
		}
		if !Finite(v) || v < 0 {
			return nil, fmt.Errorf("obstacle height for %s must be a non-negative number", c)
		}
		out[c] = v
	}
	return out, nil
}
