package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func staticRoles(roles ...Role) RoleResolver {
	return func(*http.Request) []Role { return roles }
}

func TestAuthorize(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		roles      []Role
		permission Permission
		wantStatus int
	}{
		{"anonymous", nil, PermissionRequestRecommendation, http.StatusUnauthorized},
		{"pilot requests", []Role{RolePilot}, PermissionRequestRecommendation, http.StatusNoContent},
		{"observer requests", []Role{RoleObserver}, PermissionRequestRecommendation, http.StatusForbidden},
		{"observer views helipads", []Role{RoleObserver}, PermissionViewHelipads, http.StatusNoContent},
		{"pilot manages helipads", []Role{RolePilot}, PermissionManageHelipads, http.StatusForbidden},
		{"dispatcher manages helipads", []Role{RolePilot, RoleDispatcher}, PermissionManageHelipads, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEnforcer(staticRoles(tt.roles...)).Authorize(tt.permission)(ok)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestDescribeCaller(t *testing.T) {
	router := NewHandler(NewEnforcer(staticRoles(RoleObserver))).Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp accessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []Permission{PermissionViewHelipads, PermissionViewRuleSets}
	if !reflect.DeepEqual(resp.Permissions, want) {
		t.Fatalf("permissions mismatch\nwant: %v\ngot:  %v", want, resp.Permissions)
	}
}

func TestDescribeCallerAnonymous(t *testing.T) {
	router := NewHandler(NewEnforcer(staticRoles())).Routes()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("dispatcher"); !ok || r != RoleDispatcher {
		t.Errorf("expected dispatcher, got %q %v", r, ok)
	}
	if _, ok := ParseRole("jump_master"); ok {
		t.Error("unexpected role")
	}
}
