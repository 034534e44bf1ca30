package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/smartpad/landing/backend/httpx"
	"github.com/smartpad/landing/backend/rbac"
)

// Caller is the identity attached to an authenticated request.
type Caller struct {
	Subject   string      `json:"subject"`
	Roles     []rbac.Role `json:"roles"`
	Anonymous bool        `json:"anonymous"`
}

// Entry configures one API key.
type Entry struct {
	Key     string
	Subject string
	Roles   []string
}

type contextKey string

const callerKey contextKey = "caller"

// Keyring maps API keys to callers. With no keys configured every request is
// an anonymous caller holding the anonymous roles.
type Keyring struct {
	keys      map[string]*Caller
	anonymous []rbac.Role
}

// NewKeyring validates entries and builds a keyring.
func NewKeyring(entries []Entry, anonymous []string) (*Keyring, error) {
	k := &Keyring{keys: make(map[string]*Caller, len(entries))}

	for i, e := range entries {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			return nil, fmt.Errorf("api key %d is empty", i)
		}
		if _, dup := k.keys[key]; dup {
			return nil, fmt.Errorf("api key %d is duplicated", i)
		}
		roles, err := parseRoles(e.Roles)
		if err != nil {
			return nil, fmt.Errorf("api key %d: %w", i, err)
		}
		subject := strings.TrimSpace(e.Subject)
		if subject == "" {
			subject = fmt.Sprintf("key-%d", i)
		}
		k.keys[key] = &Caller{Subject: subject, Roles: roles}
	}

	roles, err := parseRoles(anonymous)
	if err != nil {
		return nil, fmt.Errorf("anonymous roles: %w", err)
	}
	k.anonymous = roles
	return k, nil
}

func parseRoles(names []string) ([]rbac.Role, error) {
	roles := make([]rbac.Role, 0, len(names))
	for _, name := range names {
		role, ok := rbac.ParseRole(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown role %q", name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Enabled reports whether API keys are required.
func (k *Keyring) Enabled() bool {
	return len(k.keys) > 0
}

// Middleware attaches the caller for the inbound API key, if any. Unknown
// keys are rejected with a 401 response.
func (k *Keyring) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := k.identify(r)
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		if caller == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (k *Keyring) identify(r *http.Request) (*Caller, error) {
	if !k.Enabled() {
		return &Caller{Subject: "anonymous", Roles: k.anonymous, Anonymous: true}, nil
	}
	key := extractKey(r)
	if key == "" {
		return nil, nil
	}
	caller, ok := k.keys[key]
	if !ok {
		return nil, errors.New("invalid api key")
	}
	return caller, nil
}

func extractKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}

	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("bearer "):])
}

// FromContext retrieves the active caller, if any.
func FromContext(ctx context.Context) *Caller {
	if ctx == nil {
		return nil
	}
	caller, _ := ctx.Value(callerKey).(*Caller)
	return caller
}

// Roles is an rbac.RoleResolver backed by the request's caller.
func Roles(r *http.Request) []rbac.Role {
	caller := FromContext(r.Context())
	if caller == nil {
		return nil
	}
	return caller.Roles
}
