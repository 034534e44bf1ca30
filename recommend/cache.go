package recommend

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/smartpad/landing/backend/auth"
)

// LastResults remembers the most recent result per caller. Entries expire
// after the configured TTL and the least recently used caller is evicted
// once the cache is full.
type LastResults struct {
	cache *expirable.LRU[string, Result]
}

// NewLastResults creates a cache holding up to size callers for ttl.
func NewLastResults(size int, ttl time.Duration) *LastResults {
	return &LastResults{cache: expirable.NewLRU[string, Result](size, nil, ttl)}
}

func (l *LastResults) Put(key string, res Result) {
	l.cache.Add(key, res)
}

func (l *LastResults) Get(key string) (Result, bool) {
	return l.cache.Get(key)
}

func (l *LastResults) Len() int {
	return l.cache.Len()
}

// CallerKey identifies the session a request belongs to. An authenticated
// caller is keyed by API key subject, narrowed by the X-Session-ID header (or
// session query parameter) when one is sent, so a session id never reaches
// another subject's results. Anonymous callers are keyed by session id, else
// by remote host.
func CallerKey(r *http.Request) string {
	session := strings.TrimSpace(r.Header.Get("X-Session-ID"))
	if session == "" {
		session = strings.TrimSpace(r.URL.Query().Get("session"))
	}

	if caller := auth.FromContext(r.Context()); caller != nil && !caller.Anonymous {
		if session != "" {
			return "subject:" + caller.Subject + "/session:" + session
		}
		return "subject:" + caller.Subject
	}
	if session != "" {
		return "session:" + session
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
