package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

const maxTableRows = 30

var regionTableTemplate = template.Must(template.New("regionTable").Parse(`
<div id="regions-content">
<table class="modern-table">
<thead><tr><th>Region</th><th>Revenue</th><th>Units</th><th>Sales</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Region}}</td>
<td><strong>${{printf "%.2f" .TotalRevenue}}</strong></td>
<td>{{.TotalUnits}}</td>
<td>{{.Transactions}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

// SSEHandlers pushes the current analytics to the fallback dashboard page as
// datastar signals and fragments.
type SSEHandlers struct {
	store  *services.Store
	logger *slog.Logger
}

func NewSSEHandlers(store *services.Store, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		store:  store,
		logger: logger,
	}
}

func (h *SSEHandlers) renderRegionTable(data []models.RegionRevenue) (string, error) {
	if len(data) > maxTableRows {
		data = data[:maxTableRows]
	}

	var buf strings.Builder
	err := regionTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

// HandleKPI pushes the KPI summary as a signal patch.
func (h *SSEHandlers) HandleKPI(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	var kpi any = struct{}{}
	if k, ok := services.KPIs(h.store.Snapshot()); ok {
		kpi = k
	}

	jsonData, err := json.Marshal(map[string]any{
		"kpiData": kpi,
	})
	if err != nil {
		h.logger.Error("marshal kpi data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRegions pushes the revenue-by-region table fragment.
func (h *SSEHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := services.RevenueByRegion(h.store.Snapshot())
	html, err := h.renderRegionTable(data)
	if err != nil {
		h.logger.Error("render region table", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleTrends pushes daily and monthly trend signals for the charts.
func (h *SSEHandlers) HandleTrends(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds := h.store.Snapshot()
	jsonData, err := json.Marshal(map[string]any{
		"dailyData":   services.DailyTrend(ds),
		"monthlyData": services.MonthlyTrend(ds),
	})
	if err != nil {
		h.logger.Error("marshal trend data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="trends-content">Trend data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll recomputes every view over one snapshot and pushes the
// whole dashboard in a single stream.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds := h.store.Snapshot()

	html, err := h.renderRegionTable(services.RevenueByRegion(ds))
	if err != nil {
		h.logger.Error("render region table", "error", err)
		return
	}
	sse.PatchElements(html)

	var kpi any = struct{}{}
	if k, ok := services.KPIs(ds); ok {
		kpi = k
	}

	allSignals, err := json.Marshal(map[string]any{
		"kpiData":     kpi,
		"dailyData":   services.DailyTrend(ds),
		"monthlyData": services.MonthlyTrend(ds),
		"channelData": services.RevenueByChannel(ds),
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
