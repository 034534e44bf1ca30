package recommend

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/smartpad/landing/backend/helipads"
	"github.com/smartpad/landing/backend/internal/logging"
	"github.com/smartpad/landing/backend/landing"
)

func ptr[T any](v T) *T { return &v }

func newRequest(lat, lon, speed float64, dir, model string, weight float64) Request {
	var r Request
	r.GPS.Latitude = ptr(lat)
	r.GPS.Longitude = ptr(lon)
	r.Weather.WindSpeed = ptr(speed)
	r.Weather.WindDirection = dir
	r.Aircraft.Model = model
	r.Aircraft.Weight = ptr(weight)
	return r
}

type failingFinder struct{}

func (failingFinder) Get(context.Context, int64) (helipads.Helipad, error) {
	return helipads.Helipad{}, errors.New("connection reset")
}

func (failingFinder) Nearest(context.Context, float64, float64, float64) (helipads.Match, error) {
	return helipads.Match{}, errors.New("connection reset")
}

func newTestService(pads HelipadFinder) *Service {
	return NewService(landing.DefaultRegistry(), pads, 0.5, logging.Discard())
}

func TestRequestLandingRequest(t *testing.T) {
	req, err := newRequest(24.7136, 46.6753, 35, " ne ", " H145 ", 5500).LandingRequest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Weather.WindDirection != landing.NorthEast || req.Aircraft.Model != "H145" {
		t.Fatalf("request not normalised: %+v", req)
	}

	_, err = Request{}.LandingRequest()
	var verr *landing.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, f := range verr.Fields {
		if f.Message != "is required" {
			t.Errorf("%s: expected \"is required\", got %q", f.Field, f.Message)
		}
	}
	if len(verr.Fields) != 6 {
		t.Fatalf("expected 6 missing fields, got %d", len(verr.Fields))
	}

	bad := newRequest(24.7, 46.6, 10, "UP", "H145", 5500)
	_, err = bad.LandingRequest()
	if !errors.As(err, &verr) || len(verr.Fields) != 1 || verr.Fields[0].Field != "weather.wind_direction" {
		t.Fatalf("expected wind_direction error, got %v", err)
	}
	if !strings.Contains(verr.Fields[0].Message, `"UP"`) {
		t.Fatalf("expected message to echo the value, got %q", verr.Fields[0].Message)
	}
}

func TestServiceDefaultObstacles(t *testing.T) {
	res, err := newTestService(nil).Recommend(context.Background(), "", newRequest(24.7136, 46.6753, 35, "NE", "H145", 5500))
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := landing.LandingResponse{
		PathType:       landing.PathConfinedArea,
		Direction:      landing.SouthWest,
		DecisionHeight: 190,
		RiskScore:      90,
		Warnings:       []string{landing.WarningHighWind},
	}
	if !reflect.DeepEqual(res.LandingResponse, want) {
		t.Fatalf("expected %+v, got %+v", want, res.LandingResponse)
	}
	if res.RuleSet != landing.RuleSetConfinedArea || res.Helipad != nil {
		t.Fatalf("unexpected context %q %+v", res.RuleSet, res.Helipad)
	}
}

func TestServiceRuleSetSelection(t *testing.T) {
	svc := newTestService(nil)

	res, err := svc.Recommend(context.Background(), landing.RuleSetPerformanceClass, newRequest(0, 0, 10, "N", "AW139", 4000))
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.RiskScore != 20 || res.PathType != landing.PathPC1 || res.RuleSet != landing.RuleSetPerformanceClass {
		t.Fatalf("unexpected result %+v", res)
	}

	_, err = svc.Recommend(context.Background(), "nope", newRequest(0, 0, 10, "N", "AW139", 4000))
	if !errors.Is(err, ErrUnknownRuleSet) {
		t.Fatalf("expected ErrUnknownRuleSet, got %v", err)
	}
}

func TestServiceHelipadContext(t *testing.T) {
	store := helipads.NewMemoryStore(
		helipads.Helipad{
			Name:      "Riyadh General",
			Latitude:  24.7136,
			Longitude: 46.6753,
			Obstacles: landing.ObstacleTable{landing.SouthWest: 140},
		},
		helipads.Helipad{
			Name:      "Jeddah Port",
			Latitude:  21.48,
			Longitude: 39.17,
			Obstacles: landing.ObstacleTable{landing.SouthWest: 10},
		},
	)
	svc := newTestService(store)

	tests := []struct {
		name        string
		lat, lon    float64
		helipadID   *int64
		wantHeight  float64
		wantHelipad int64
		wantMatched string
		wantErr     error
	}{
		{name: "nearest within radius", lat: 24.7137, lon: 46.6752, wantHeight: 260, wantHelipad: 1, wantMatched: "nearest"},
		{name: "outside radius", lat: 25.5, lon: 46.6753, wantHeight: 190},
		{name: "explicit id wins", lat: 24.7137, lon: 46.6752, helipadID: ptr(int64(2)), wantHeight: 130, wantHelipad: 2, wantMatched: "id"},
		{name: "unknown id", lat: 24.7137, lon: 46.6752, helipadID: ptr(int64(9)), wantErr: helipads.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newRequest(tt.lat, tt.lon, 35, "NE", "H145", 5500)
			in.HelipadID = tt.helipadID

			res, err := svc.Recommend(context.Background(), "", in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Recommend: %v", err)
			}
			if res.DecisionHeight != tt.wantHeight {
				t.Fatalf("expected decision height %v, got %v", tt.wantHeight, res.DecisionHeight)
			}
			if tt.wantHelipad == 0 {
				if res.Helipad != nil {
					t.Fatalf("expected no helipad, got %+v", res.Helipad)
				}
				return
			}
			if res.Helipad == nil || res.Helipad.ID != tt.wantHelipad || res.Helipad.Matched != tt.wantMatched {
				t.Fatalf("unexpected helipad %+v", res.Helipad)
			}
		})
	}
}

func TestServiceSurveyKeepsDefaultsForOtherDirections(t *testing.T) {
	store := helipads.NewMemoryStore(helipads.Helipad{
		Name:      "Rooftop",
		Latitude:  24.7136,
		Longitude: 46.6753,
		Obstacles: landing.ObstacleTable{landing.North: 300},
	})
	res, err := newTestService(store).Recommend(context.Background(), "", newRequest(24.7136, 46.6753, 10, "NE", "H145", 5500))
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.DecisionHeight != 190 {
		t.Fatalf("expected default SW height 190, got %v", res.DecisionHeight)
	}
}

func TestServiceLookupFailureFallsBack(t *testing.T) {
	svc := newTestService(failingFinder{})

	in := newRequest(24.7136, 46.6753, 35, "NE", "H145", 5500)
	res, err := svc.Recommend(context.Background(), "", in)
	if err != nil || res.DecisionHeight != 190 || res.Helipad != nil {
		t.Fatalf("expected default obstacles, got %+v (%v)", res, err)
	}

	in.HelipadID = ptr(int64(1))
	res, err = svc.Recommend(context.Background(), "", in)
	if err != nil || res.DecisionHeight != 190 {
		t.Fatalf("expected default obstacles, got %+v (%v)", res, err)
	}
}

func TestServiceUnknownHelipadWithoutStore(t *testing.T) {
	in := newRequest(24.7136, 46.6753, 35, "NE", "H145", 5500)
	in.HelipadID = ptr(int64(1))
	if _, err := newTestService(nil).Recommend(context.Background(), "", in); !errors.Is(err, helipads.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
