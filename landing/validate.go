package landing

import (
	"fmt"
	"math"
	"strings"
)

// FieldError describes one invalid request field. Field uses the JSON path,
// e.g. "weather.wind_direction".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid landing request: " + strings.Join(parts, "; ")
}

// Add records a problem with field.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e if any problems were recorded and nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate rejects requests the engine would otherwise answer with a
// meaningless recommendation: unknown wind directions, negative or
// non-finite quantities, out of range coordinates and empty models.
func Validate(req LandingRequest) error {
	verr := &ValidationError{}

	if !Finite(req.GPS.Latitude) || req.GPS.Latitude < -90 || req.GPS.Latitude > 90 {
		verr.Add("gps.latitude", "must be between -90 and 90")
	}
	if !Finite(req.GPS.Longitude) || req.GPS.Longitude < -180 || req.GPS.Longitude > 180 {
		verr.Add("gps.longitude", "must be between -180 and 180")
	}

	if !Finite(req.Weather.WindSpeed) || req.Weather.WindSpeed < 0 {
		verr.Add("weather.wind_speed", "must be a non-negative number of knots")
	}
	if !req.Weather.WindDirection.Valid() {
		verr.Add("weather.wind_direction", "must be one of N, NE, E, SE, S, SW, W, NW (got %q)", string(req.Weather.WindDirection))
	}

	if strings.TrimSpace(req.Aircraft.Model) == "" {
		verr.Add("aircraft.model", "is required")
	}
	if !Finite(req.Aircraft.Weight) || req.Aircraft.Weight <= 0 {
		verr.Add("aircraft.weight", "must be a positive number of kilograms")
	}

	return verr.Err()
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
