package helipads

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smartpad/landing/backend/httpx"
	"github.com/smartpad/landing/backend/internal/timeutil"
	"github.com/smartpad/landing/backend/landing"
	"github.com/smartpad/landing/backend/rbac"
)

// Handler exposes helipad endpoints.
type Handler struct {
	store    Store
	radiusNM float64
}

// NewHandler creates a helipads handler. radiusNM bounds /nearest when the
// caller does not pass radius_nm.
func NewHandler(store Store, radiusNM float64) *Handler {
	return &Handler{store: store, radiusNM: radiusNM}
}

// Routes registers helipad routes.
func (h *Handler) Routes(enforcer *rbac.Enforcer) chi.Router {
	r := chi.NewRouter()
	r.With(enforcer.Authorize(rbac.PermissionViewHelipads)).Get("/", h.list)
	r.With(enforcer.Authorize(rbac.PermissionViewHelipads)).Get("/nearest", h.nearest)
	r.With(enforcer.Authorize(rbac.PermissionViewHelipads)).Get("/{helipadID}", h.get)
	r.With(enforcer.Authorize(rbac.PermissionManageHelipads)).Post("/", h.create)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pads, err := h.store.List(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to list helipads")
		return
	}
	if pads == nil {
		pads = []Helipad{}
	}
	httpx.WriteJSON(w, http.StatusOK, pads)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "helipadID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid helipad id")
		return
	}

	pad, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "helipad not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to load helipad")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pad)
}

func (h *Handler) nearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var verr landing.ValidationError

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || !landing.Finite(lat) || lat < -90 || lat > 90 {
		verr.Add("lat", "must be a number between -90 and 90")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || !landing.Finite(lon) || lon < -180 || lon > 180 {
		verr.Add("lon", "must be a number between -180 and 180")
	}
	radius := h.radiusNM
	if raw := q.Get("radius_nm"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || !landing.Finite(radius) || radius <= 0 {
			verr.Add("radius_nm", "must be a positive number")
		}
	}
	if len(verr.Fields) > 0 {
		httpx.FieldErrors(w, http.StatusUnprocessableEntity, "invalid query", verr.Fields)
		return
	}

	m, err := h.store.Nearest(r.Context(), lat, lon, radius)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "no helipad within radius")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "failed to search helipads")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

type createPayload struct {
	Name        string             `json:"name"`
	Latitude    *float64           `json:"latitude"`
	Longitude   *float64           `json:"longitude"`
	ElevationFt float64            `json:"elevation_ft"`
	Description string             `json:"description"`
	Obstacles   map[string]float64 `json:"obstacles"`
	SurveyedOn  string             `json:"surveyed_on"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	pad, verr := payload.toHelipad()
	if verr != nil {
		httpx.FieldErrors(w, http.StatusUnprocessableEntity, "invalid helipad", verr.Fields)
		return
	}

	created, err := h.store.Create(r.Context(), pad)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to create helipad")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (p createPayload) toHelipad() (Helipad, *landing.ValidationError) {
	var verr landing.ValidationError
	pad := Helipad{
		Name:        strings.TrimSpace(p.Name),
		ElevationFt: p.ElevationFt,
		Description: strings.TrimSpace(p.Description),
	}

	if pad.Name == "" {
		verr.Add("name", "is required")
	}
	if p.Latitude == nil || *p.Latitude < -90 || *p.Latitude > 90 {
		verr.Add("latitude", "is required and must be between -90 and 90")
	} else {
		pad.Latitude = *p.Latitude
	}
	if p.Longitude == nil || *p.Longitude < -180 || *p.Longitude > 180 {
		verr.Add("longitude", "is required and must be between -180 and 180")
	} else {
		pad.Longitude = *p.Longitude
	}

	table, err := landing.ParseObstacleTable(p.Obstacles)
	if err != nil {
		verr.Add("obstacles", "%v", err)
	}
	pad.Obstacles = table

	surveyed, err := timeutil.ParseOptionalDate(p.SurveyedOn)
	if err != nil {
		verr.Add("surveyed_on", "must be formatted as %s", timeutil.DateLayout)
	}
	pad.SurveyedOn = surveyed

	if len(verr.Fields) > 0 {
		return Helipad{}, &verr
	}
	return pad, nil
}
