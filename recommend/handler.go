package recommend

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/smartpad/landing/backend/helipads"
	"github.com/smartpad/landing/backend/httpx"
	"github.com/smartpad/landing/backend/landing"
	"github.com/smartpad/landing/backend/rbac"
)

// Handler exposes landing recommendation endpoints.
type Handler struct {
	svc      *Service
	last     *LastResults
	origins  map[string]bool
	upgrader websocket.Upgrader
	lg       *slog.Logger
}

// NewHandler creates a recommendation handler. Browser WebSocket sessions are
// accepted from the server's own origin and from allowedOrigins; "*" admits
// any origin.
func NewHandler(svc *Service, last *LastResults, allowedOrigins []string, lg *slog.Logger) *Handler {
	h := &Handler{svc: svc, last: last, origins: make(map[string]bool, len(allowedOrigins)), lg: lg}
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			h.origins[strings.ToLower(o)] = true
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits requests that carry no Origin header. Browsers always
// send one, so only non-browser clients take that path.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.origins["*"] || h.origins[strings.ToLower(strings.TrimRight(origin, "/"))] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Routes registers the request/response routes. The WebSocket session is
// served separately by ServeWS so that it can outlive request timeouts.
func (h *Handler) Routes(enforcer *rbac.Enforcer) chi.Router {
	r := chi.NewRouter()
	r.With(enforcer.Authorize(rbac.PermissionRequestRecommendation)).Post("/recommend", h.ServeRecommend)
	r.With(enforcer.Authorize(rbac.PermissionViewLastResult)).Get("/last", h.lastResult)
	r.With(enforcer.Authorize(rbac.PermissionViewRuleSets)).Get("/rulesets", h.listRuleSets)
	return r
}

// ServeRecommend answers one landing request.
func (h *Handler) ServeRecommend(w http.ResponseWriter, r *http.Request) {
	var payload Request
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	res, err := h.svc.Recommend(r.Context(), r.URL.Query().Get("rules"), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.last.Put(CallerKey(r), res)
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) lastResult(w http.ResponseWriter, r *http.Request) {
	res, ok := h.last.Get(CallerKey(r))
	if !ok {
		httpx.Error(w, http.StatusNotFound, "no recommendation for this session")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

type ruleSetView struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Default        bool                   `json:"default"`
	RiskFormula    landing.RiskFormula    `json:"risk_formula"`
	Classification landing.Classification `json:"classification"`
	MinClearanceFt float64                `json:"min_clearance_ft"`
	MaxRisk        int                    `json:"max_risk"`
	HighWindKt     float64                `json:"high_wind_kt"`
	HeavyKg        float64                `json:"heavy_kg"`
	PC2MinRisk     int                    `json:"pc2_min_risk,omitempty"`
	Obstacles      landing.ObstacleTable  `json:"obstacles"`
}

func (h *Handler) listRuleSets(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Registry()
	sets := reg.List()
	out := make([]ruleSetView, 0, len(sets))
	for _, rs := range sets {
		v := ruleSetView{
			Name:           rs.Name,
			Description:    rs.Description,
			Default:        rs.Name == reg.DefaultName(),
			RiskFormula:    rs.Risk,
			Classification: rs.Classification,
			MinClearanceFt: rs.MinClearanceFt,
			MaxRisk:        rs.MaxRisk,
			HighWindKt:     rs.HighWindKt,
			HeavyKg:        rs.HeavyKg,
			Obstacles:      rs.Obstacles,
		}
		if rs.Classification == landing.ClassifyPerformance {
			v.PC2MinRisk = rs.PC2MinRisk
		}
		out = append(out, v)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, msg, fields := describeError(err)
	if status == http.StatusInternalServerError {
		h.lg.Error("recommendation failed", "error", err)
	}
	if fields != nil {
		httpx.FieldErrors(w, status, msg, fields)
		return
	}
	httpx.Error(w, status, msg)
}

// describeError maps a Recommend error to a status code and client message.
func describeError(err error) (int, string, []landing.FieldError) {
	var verr *landing.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "invalid landing request", verr.Fields
	case errors.Is(err, ErrUnknownRuleSet):
		return http.StatusBadRequest, err.Error(), nil
	case errors.Is(err, helipads.ErrNotFound):
		return http.StatusNotFound, "helipad not found", nil
	default:
		return http.StatusInternalServerError, "failed to compute recommendation", nil
	}
}
