package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	defaultPerPage = 50
	cacheMaxAge    = "public, max-age=300"
)

var cacheHeaders = map[string]string{
	"Cache-Control": cacheMaxAge,
}

type APIHandlers struct {
	store  *services.Store
	logger *slog.Logger
}

func NewAPIHandlers(store *services.Store, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:  store,
		logger: logger,
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *APIHandlers) HandleKPI(w http.ResponseWriter, r *http.Request) {
	kpi, ok := services.KPIs(h.store.Snapshot())
	if !ok {
		errors.WriteJSONWithHeaders(w, http.StatusOK, struct{}{}, cacheHeaders)
		return
	}
	errors.WriteJSONWithHeaders(w, http.StatusOK, kpi, cacheHeaders)
}

func (h *APIHandlers) HandleRevenueByRegion(w http.ResponseWriter, r *http.Request) {
	data := services.RevenueByRegion(h.store.Snapshot())
	errors.WriteJSONWithHeaders(w, http.StatusOK, data, cacheHeaders)
}

func (h *APIHandlers) HandleRevenueByChannel(w http.ResponseWriter, r *http.Request) {
	data := services.RevenueByChannel(h.store.Snapshot())
	errors.WriteJSONWithHeaders(w, http.StatusOK, data, cacheHeaders)
}

func (h *APIHandlers) HandleDailyTrends(w http.ResponseWriter, r *http.Request) {
	data := services.DailyTrend(h.store.Snapshot())
	errors.WriteJSONWithHeaders(w, http.StatusOK, data, cacheHeaders)
}

func (h *APIHandlers) HandleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	data := services.MonthlyTrend(h.store.Snapshot())
	errors.WriteJSONWithHeaders(w, http.StatusOK, data, cacheHeaders)
}

func (h *APIHandlers) HandlePriceDistribution(w http.ResponseWriter, r *http.Request) {
	data := services.PriceDistribution(h.store.Snapshot())
	errors.WriteJSONWithHeaders(w, http.StatusOK, data, cacheHeaders)
}

func (h *APIHandlers) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	data := services.Options(h.store.Snapshot())
	errors.WriteJSON(w, http.StatusOK, data)
}

// HandleData serves the paginated, sorted table view, optionally narrowed by
// query-string filters.
func (h *APIHandlers) HandleData(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	q := r.URL.Query()

	page, err := intParam(q, "page", 1)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	perPage, err := intParam(q, "per_page", defaultPerPage)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	sortBy := q.Get("sort_by")
	if sortBy == "" {
		sortBy = "Date"
	}
	sortOrder := q.Get("sort_order")
	if sortOrder == "" {
		sortOrder = "desc"
	}

	criteria, err := criteriaFromQuery(q)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	ds := services.Filter(h.store.Snapshot(), criteria)

	result, err := services.Page(ds, page, perPage, sortBy, sortOrder)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	errors.WriteJSON(w, http.StatusOK, result)
}

// HandleFilteredAnalytics recomputes every aggregate view over the slice
// matching the JSON filter criteria in the request body.
func (h *APIHandlers) HandleFilteredAnalytics(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var req filterRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("failed to read request body"), requestID)
		return
	}
	// An empty body means no filters, matching the query-string form.
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			errors.WriteError(w, h.logger, errors.ValidationWrap(err, "invalid filter payload"), requestID)
			return
		}
	}

	criteria, err := req.criteria()
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	ds := services.Filter(h.store.Snapshot(), criteria)
	errors.WriteJSON(w, http.StatusOK, services.Analyze(ds))
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, h.store.Stats())
}

// filterRequest is the JSON body of POST /api/analytics/filtered.
type filterRequest struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Regions   []string `json:"regions"`
	Channels  []string `json:"channels"`
	MinPrice  *float64 `json:"min_price"`
	MaxPrice  *float64 `json:"max_price"`
}

func (f filterRequest) criteria() (models.FilterCriteria, error) {
	c := models.FilterCriteria{
		Regions:  f.Regions,
		Channels: f.Channels,
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
	}

	if f.StartDate != "" {
		t, err := time.Parse(models.DateLayout, f.StartDate)
		if err != nil {
			return c, errors.Validation(fmt.Sprintf("invalid start_date %q, want YYYY-MM-DD", f.StartDate))
		}
		c.StartDate = &t
	}
	if f.EndDate != "" {
		t, err := time.Parse(models.DateLayout, f.EndDate)
		if err != nil {
			return c, errors.Validation(fmt.Sprintf("invalid end_date %q, want YYYY-MM-DD", f.EndDate))
		}
		c.EndDate = &t
	}
	return c, nil
}

func criteriaFromQuery(q url.Values) (models.FilterCriteria, error) {
	req := filterRequest{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Regions:   splitList(q.Get("regions")),
		Channels:  splitList(q.Get("channels")),
	}

	for _, key := range []string{"min_price", "max_price"} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.FilterCriteria{}, errors.Validation(fmt.Sprintf("invalid %s %q", key, raw))
		}
		if key == "min_price" {
			req.MinPrice = &v
		} else {
			req.MaxPrice = &v
		}
	}

	return req.criteria()
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(q url.Values, key string, defaultValue int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validation(fmt.Sprintf("invalid %s %q", key, raw))
	}
	return v, nil
}
