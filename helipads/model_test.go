package helipads

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/smartpad/landing/backend/landing"
)

func TestDistNM(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{name: "same point", lat1: 24.7136, lon1: 46.6753, lat2: 24.7136, lon2: 46.6753, want: 0},
		{name: "one arc minute of latitude", lat1: 0, lon1: 0, lat2: 1.0 / 60, lon2: 0, want: 1.0006},
		{name: "dateline", lat1: 0, lon1: 179.99, lat2: 0, lon2: -179.99, want: 1.2008},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistNM(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > 0.001 {
				t.Fatalf("expected %.4f nm, got %.4f", tt.want, got)
			}
		})
	}
}

func TestNearest(t *testing.T) {
	pads := []Helipad{
		{ID: 3, Name: "far", Latitude: 24.80, Longitude: 46.6753},
		{ID: 2, Name: "tie-b", Latitude: 24.7136 - 0.2/60, Longitude: 46.6753},
		{ID: 1, Name: "tie-a", Latitude: 24.7136 - 0.2/60, Longitude: 46.6753},
	}

	m, ok := nearest(pads, 24.7136, 46.6753, 0.5)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.ID != 1 {
		t.Fatalf("expected tie to go to id 1, got %d", m.ID)
	}
	if math.Abs(m.DistanceNM-0.2) > 0.01 {
		t.Fatalf("unexpected distance %.4f", m.DistanceNM)
	}

	if _, ok := nearest(pads, 0, 0, 0.5); ok {
		t.Fatal("expected no match far from every pad")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Helipad{
		Name:      "King Fahd Medical City",
		Latitude:  24.7136,
		Longitude: 46.6753,
		Obstacles: landing.ObstacleTable{landing.SouthWest: 140},
	})
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	created, err := s.Create(ctx, Helipad{Name: "Rooftop B", Latitude: 21.5, Longitude: 39.2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 2 || !created.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected created pad %+v", created)
	}

	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Obstacles[landing.SouthWest] = 0

	again, _ := s.Get(ctx, 1)
	if again.Obstacles.Height(landing.SouthWest) != 140 {
		t.Fatal("store handed out a shared obstacle table")
	}

	if _, err := s.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, _ := s.List(ctx)
	var names []string
	for _, h := range list {
		names = append(names, h.Name)
	}
	if want := []string{"King Fahd Medical City", "Rooftop B"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}

	m, err := s.Nearest(ctx, 24.7140, 46.6750, 0.5)
	if err != nil || m.ID != 1 {
		t.Fatalf("expected nearest pad 1, got %+v (%v)", m, err)
	}
	if _, err := s.Nearest(ctx, 0, 0, 0.5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestObstacleCodec(t *testing.T) {
	raw, err := encodeObstacles(nil)
	if err != nil || string(raw) != "{}" {
		t.Fatalf("expected empty object, got %s (%v)", raw, err)
	}

	table, err := decodeObstacles([]byte(`{"ne": 40, "S": 55}`))
	if err != nil {
		t.Fatalf("decodeObstacles: %v", err)
	}
	want := landing.ObstacleTable{landing.NorthEast: 40, landing.South: 55}
	if !reflect.DeepEqual(table, want) {
		t.Fatalf("expected %v, got %v", want, table)
	}

	if _, err := decodeObstacles([]byte(`{"UP": 10}`)); err == nil {
		t.Fatal("expected an error for an unknown direction")
	}
}
