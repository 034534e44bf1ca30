package helipads

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartpad/landing/backend/httpx"
	"github.com/smartpad/landing/backend/landing"
	"github.com/smartpad/landing/backend/rbac"
)

func newTestRouter(roles ...rbac.Role) http.Handler {
	store := NewMemoryStore(Helipad{
		Name:      "Riyadh General",
		Latitude:  24.7136,
		Longitude: 46.6753,
		Obstacles: landing.ObstacleTable{landing.SouthWest: 140},
	})
	enforcer := rbac.NewEnforcer(func(*http.Request) []rbac.Role { return roles })
	return NewHandler(store, 0.5).Routes(enforcer)
}

func TestHandlerReadRoutes(t *testing.T) {
	router := newTestRouter(rbac.RoleObserver)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantName   string
	}{
		{name: "get", target: "/1", wantStatus: http.StatusOK, wantName: "Riyadh General"},
		{name: "missing", target: "/7", wantStatus: http.StatusNotFound},
		{name: "bad id", target: "/abc", wantStatus: http.StatusBadRequest},
		{name: "nearest", target: "/nearest?lat=24.7137&lon=46.6752", wantStatus: http.StatusOK, wantName: "Riyadh General"},
		{name: "nearest none", target: "/nearest?lat=21.5&lon=39.2", wantStatus: http.StatusNotFound},
		{name: "nearest wide radius", target: "/nearest?lat=24.9&lon=46.6753&radius_nm=20", wantStatus: http.StatusOK, wantName: "Riyadh General"},
		{name: "nearest bad query", target: "/nearest?lat=95&lon=x", wantStatus: http.StatusUnprocessableEntity},
		{name: "nearest NaN lat", target: "/nearest?lat=NaN&lon=46.6753", wantStatus: http.StatusUnprocessableEntity},
		{name: "nearest infinite lon", target: "/nearest?lat=24.7136&lon=-Inf", wantStatus: http.StatusUnprocessableEntity},
		{name: "nearest NaN radius", target: "/nearest?lat=24.7136&lon=46.6753&radius_nm=NaN", wantStatus: http.StatusUnprocessableEntity},
		{name: "nearest infinite radius", target: "/nearest?lat=24.7136&lon=46.6753&radius_nm=Inf", wantStatus: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantName == "" {
				return
			}
			var got Match
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Name != tt.wantName {
				t.Fatalf("expected %q, got %q", tt.wantName, got.Name)
			}
		})
	}
}

func TestHandlerList(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(rbac.RolePilot).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var pads []Helipad
	if err := json.NewDecoder(rec.Body).Decode(&pads); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pads) != 1 || pads[0].Obstacles.Height(landing.SouthWest) != 140 {
		t.Fatalf("unexpected list %+v", pads)
	}
}

func TestHandlerCreate(t *testing.T) {
	tests := []struct {
		name       string
		roles      []rbac.Role
		body       string
		wantStatus int
		wantFields []string
	}{
		{
			name:       "created",
			roles:      []rbac.Role{rbac.RoleDispatcher},
			body:       `{"name":"Jeddah Port","latitude":21.48,"longitude":39.17,"obstacles":{"nw":30},"surveyed_on":"2026-03-01"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "pilot forbidden",
			roles:      []rbac.Role{rbac.RolePilot},
			body:       `{"name":"Jeddah Port","latitude":21.48,"longitude":39.17}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "anonymous",
			body:       `{"name":"Jeddah Port","latitude":21.48,"longitude":39.17}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed",
			roles:      []rbac.Role{rbac.RoleAdmin},
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid fields",
			roles:      []rbac.Role{rbac.RoleAdmin},
			body:       `{"name":" ","longitude":200,"obstacles":{"UP":10},"surveyed_on":"03/01/2026"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"name", "latitude", "longitude", "obstacles", "surveyed_on"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			newTestRouter(tt.roles...).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			switch tt.wantStatus {
			case http.StatusCreated:
				var pad Helipad
				if err := json.NewDecoder(rec.Body).Decode(&pad); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if pad.ID != 2 || pad.Obstacles.Height(landing.NorthWest) != 30 || pad.SurveyedOn == nil {
					t.Fatalf("unexpected helipad %+v", pad)
				}
			case http.StatusUnprocessableEntity:
				var body struct {
					httpx.ErrorBody
					Fields []landing.FieldError `json:"fields"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				var got []string
				for _, f := range body.Fields {
					got = append(got, f.Field)
				}
				if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
					t.Fatalf("expected fields %v, got %v", tt.wantFields, got)
				}
			}
		})
	}
}
