// Package recommend puts the landing engine behind HTTP and WebSocket
// front ends. It resolves the rule set and obstacle context for each request
// and remembers each caller's last result.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/smartpad/landing/backend/helipads"
	"github.com/smartpad/landing/backend/landing"
)

// ErrUnknownRuleSet is returned when a caller names a rule set that is not
// registered.
var ErrUnknownRuleSet = errors.New("unknown rule set")

// HelipadFinder looks up obstacle context for a request.
type HelipadFinder interface {
	Get(ctx context.Context, id int64) (helipads.Helipad, error)
	Nearest(ctx context.Context, lat, lon, maxNM float64) (helipads.Match, error)
}

// Request is the wire form of a landing request. Numeric fields are pointers
// so that an omitted field is reported instead of read as zero.
type Request struct {
	GPS struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"gps"`
	Weather struct {
		WindSpeed     *float64 `json:"wind_speed"`
		WindDirection string   `json:"wind_direction"`
	} `json:"weather"`
	Aircraft struct {
		Model  string   `json:"model"`
		Weight *float64 `json:"weight"`
	} `json:"aircraft"`
	HelipadID *int64 `json:"helipad_id,omitempty"`
}

// LandingRequest converts r into an engine request and validates it. Compass
// symbols are normalised to upper case.
func (r Request) LandingRequest() (landing.LandingRequest, error) {
	missing := map[string]bool{}
	value := func(field string, v *float64) float64 {
		if v == nil {
			missing[field] = true
			return math.NaN()
		}
		return *v
	}

	var req landing.LandingRequest
	req.GPS.Latitude = value("gps.latitude", r.GPS.Latitude)
	req.GPS.Longitude = value("gps.longitude", r.GPS.Longitude)
	req.Weather.WindSpeed = value("weather.wind_speed", r.Weather.WindSpeed)
	req.Aircraft.Weight = value("aircraft.weight", r.Aircraft.Weight)
	req.Aircraft.Model = strings.TrimSpace(r.Aircraft.Model)

	if dir, err := landing.ParseCompass(r.Weather.WindDirection); err == nil {
		req.Weather.WindDirection = dir
	} else {
		req.Weather.WindDirection = landing.Compass(strings.TrimSpace(r.Weather.WindDirection))
	}
	if strings.TrimSpace(r.Weather.WindDirection) == "" {
		missing["weather.wind_direction"] = true
	}

	err := landing.Validate(req)
	var verr *landing.ValidationError
	if errors.As(err, &verr) {
		for i, f := range verr.Fields {
			if missing[f.Field] {
				verr.Fields[i].Message = "is required"
			}
		}
	}
	return req, err
}

// HelipadRef identifies the helipad whose obstacle table was applied.
type HelipadRef struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	DistanceNM float64 `json:"distance_nm"`
	Matched    string  `json:"matched"`
}

// Result is a recommendation together with the context it was computed in.
type Result struct {
	landing.LandingResponse
	RuleSet string      `json:"rule_set"`
	Helipad *HelipadRef `json:"helipad,omitempty"`
}

// Service resolves rule sets and obstacle context and runs the engine.
type Service struct {
	rules    *landing.Registry
	pads     HelipadFinder
	radiusNM float64
	lg       *slog.Logger
}

// NewService creates a service. pads may be nil, in which case every request
// uses the rule set's default obstacle table.
func NewService(rules *landing.Registry, pads HelipadFinder, radiusNM float64, lg *slog.Logger) *Service {
	return &Service{rules: rules, pads: pads, radiusNM: radiusNM, lg: lg}
}

// Registry returns the rule sets the service chooses from.
func (s *Service) Registry() *landing.Registry {
	return s.rules
}

// Recommend evaluates in under the named rule set, or the default one when
// ruleSet is empty.
func (s *Service) Recommend(ctx context.Context, ruleSet string, in Request) (Result, error) {
	rs, ok := s.rules.Get(ruleSet)
	if !ok {
		return Result{}, fmt.Errorf("%w %q", ErrUnknownRuleSet, ruleSet)
	}

	req, err := in.LandingRequest()
	if err != nil {
		return Result{}, err
	}

	ref, table, err := s.obstacleContext(ctx, req.GPS, in.HelipadID)
	if err != nil {
		return Result{}, err
	}
	if table != nil {
		rs = rs.WithObstacles(mergeObstacles(rs.Obstacles, table))
	}

	resp, err := landing.NewEngine(rs).Evaluate(req)
	if err != nil {
		return Result{}, err
	}

	s.lg.Debug("landing recommendation",
		"rule_set", rs.Name,
		"wind_direction", req.Weather.WindDirection,
		"direction", resp.Direction,
		"risk_score", resp.RiskScore,
		"warnings", len(resp.Warnings),
		"helipad", ref != nil,
	)
	return Result{LandingResponse: resp, RuleSet: rs.Name, Helipad: ref}, nil
}

// obstacleContext picks the helipad whose survey applies to the request: the
// one named by id, else the nearest within the match radius. A nil table means
// the rule set's own table applies.
func (s *Service) obstacleContext(ctx context.Context, pos landing.GPS, id *int64) (*HelipadRef, landing.ObstacleTable, error) {
	if s.pads == nil {
		if id != nil {
			return nil, nil, fmt.Errorf("helipad %d: %w", *id, helipads.ErrNotFound)
		}
		return nil, nil, nil
	}

	if id != nil {
		pad, err := s.pads.Get(ctx, *id)
		switch {
		case errors.Is(err, helipads.ErrNotFound):
			return nil, nil, fmt.Errorf("helipad %d: %w", *id, err)
		case err != nil:
			s.lg.Warn("helipad lookup failed; using default obstacles", "helipad_id", *id, "error", err)
			return nil, nil, nil
		}
		ref := &HelipadRef{
			ID:         pad.ID,
			Name:       pad.Name,
			DistanceNM: helipads.DistNM(pos.Latitude, pos.Longitude, pad.Latitude, pad.Longitude),
			Matched:    "id",
		}
		return ref, pad.Obstacles, nil
	}

	if s.radiusNM <= 0 {
		return nil, nil, nil
	}
	m, err := s.pads.Nearest(ctx, pos.Latitude, pos.Longitude, s.radiusNM)
	switch {
	case errors.Is(err, helipads.ErrNotFound):
		return nil, nil, nil
	case err != nil:
		s.lg.Warn("nearest helipad lookup failed; using default obstacles", "error", err)
		return nil, nil, nil
	}
	ref := &HelipadRef{ID: m.ID, Name: m.Name, DistanceNM: m.DistanceNM, Matched: "nearest"}
	return ref, m.Obstacles, nil
}

// mergeObstacles overlays a site survey on the default table so that
// directions the survey does not cover keep their default height.
func mergeObstacles(base, site landing.ObstacleTable) landing.ObstacleTable {
	out := base.Clone()
	for dir, h := range site {
		out[dir] = h
	}
	return out
}
