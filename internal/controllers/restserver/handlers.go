package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chrissnell/lunarphase/internal/geo"
	"github.com/chrissnell/lunarphase/internal/imagery"
	"github.com/chrissnell/lunarphase/pkg/lunar"
	"github.com/chrissnell/lunarphase/pkg/responseformat"
	"github.com/gorilla/mux"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetPhase handles requests for the phase of one calendar day
func (h *Handlers) GetPhase(w http.ResponseWriter, req *http.Request) {
	date, err := lunar.ParseDate(mux.Vars(req)["date"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	loc, err := h.locationFromQuery(req)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	desc := h.controller.deps.Service.GetPhase(req.Context(), date, loc)
	h.write(w, req, desc, h.cacheHeaders())
}

// GetCalendar handles requests for every day of a month
func (h *Handlers) GetCalendar(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid year: %q", vars["year"]))
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid month: %q", vars["month"]))
		return
	}

	first, err := lunar.ValidateDate(year, month, 1)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	loc, err := h.locationFromQuery(req)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	days := h.controller.deps.Service.Prefetch(req.Context(), lunar.MonthDays(year, first.Month()), loc)
	h.write(w, req, CalendarResponse{
		Year:            year,
		Month:           month,
		Days:            days,
		PrincipalPhases: principalPhasesResponse(lunar.NextPrincipalPhases(first)),
	}, h.cacheHeaders())
}

// GetEphemeris handles requests for the Moon's position at 00:00 UTC of a day
func (h *Handlers) GetEphemeris(w http.ResponseWriter, req *http.Request) {
	date, err := lunar.ParseDate(mux.Vars(req)["date"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	h.write(w, req, ephemerisResponse(lunar.Ephemeris(date)), nil)
}

// GetImagery handles requests for the astronomy picture of a day
func (h *Handlers) GetImagery(w http.ResponseWriter, req *http.Request) {
	date, err := lunar.ParseDate(mux.Vars(req)["date"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	media, err := h.controller.deps.Imagery.Fetch(req.Context(), date)
	if err != nil {
		status := imageryStatus(err)
		if status >= http.StatusInternalServerError {
			h.controller.logger.Warnf("imagery lookup for %s failed: %v", lunar.FormatDate(date), err)
		}
		h.writeError(w, req, status, err)
		return
	}

	h.write(w, req, media, nil)
}

func imageryStatus(err error) int {
	switch {
	case errors.Is(err, imagery.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, imagery.ErrFutureDate), errors.Is(err, imagery.ErrBeforeArchive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, imagery.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// GetLocation resolves coordinates to a named location, or a timezone to its default city
func (h *Handlers) GetLocation(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	tz := q.Get("tz")

	if q.Get("lat") == "" && q.Get("lon") == "" {
		h.write(w, req, geo.DefaultLocation(tz), nil)
		return
	}

	loc, err := h.locationFromQuery(req)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	resolved := geo.Resolve(req.Context(), h.controller.deps.Geocoder, loc.Latitude, loc.Longitude, tz, h.controller.logger)
	h.write(w, req, resolved, nil)
}

// ClearCache drops every cached phase descriptor
func (h *Handlers) ClearCache(w http.ResponseWriter, req *http.Request) {
	if err := h.controller.deps.Service.Clear(req.Context()); err != nil {
		h.controller.logger.Errorf("error clearing cache: %v", err)
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}
	h.controller.logger.Info("phase cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

// GetCacheStats reports how phase requests have been served
func (h *Handlers) GetCacheStats(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, h.controller.deps.Service.Stats(), nil)
}

// locationFromQuery reads the lat/lon query parameters. Both or neither must be given;
// neither yields the configured default location.
func (h *Handlers) locationFromQuery(req *http.Request) (*geo.Location, error) {
	q := req.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return h.controller.deps.DefaultLocation, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errors.New("lat and lon must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat: %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon: %q", lonStr)
	}

	loc := &geo.Location{Latitude: lat, Longitude: lon, Timezone: q.Get("tz")}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return loc, nil
}

func (h *Handlers) cacheHeaders() map[string]string {
	return map[string]string{
		"Cache-Control": fmt.Sprintf("public, max-age=%d", int(h.controller.deps.Service.TTL().Seconds())),
	}
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) {
	if err := h.formatter.WriteResponse(w, req, data, headers); err != nil {
		h.controller.logger.Errorf("error encoding response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	if werr := h.formatter.WriteError(w, req, status, err.Error()); werr != nil {
		h.controller.logger.Errorf("error encoding error response: %v", werr)
	}
}
