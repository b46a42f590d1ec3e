package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/models"
)

func newTestSSEHandlers(t *testing.T) *SSEHandlers {
	t.Helper()
	return NewSSEHandlers(newTestStore(t), slog.New(slog.DiscardHandler))
}

func TestSSEHandleKPI(t *testing.T) {
	h := newTestSSEHandlers(t)

	rr := httptest.NewRecorder()
	h.HandleKPI(rr, httptest.NewRequest(http.MethodGet, "/sse/kpi", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("expected event-stream content type, got %q", ct)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "kpiData") || !strings.Contains(body, "total_revenue") {
		t.Errorf("expected a kpiData signal patch, got %q", body)
	}
}

func TestSSEHandleRegions(t *testing.T) {
	h := newTestSSEHandlers(t)

	rr := httptest.NewRecorder()
	h.HandleRegions(rr, httptest.NewRequest(http.MethodGet, "/sse/regions", nil))

	body := rr.Body.String()
	if !strings.Contains(body, `id="regions-content"`) {
		t.Errorf("expected the regions fragment, got %q", body)
	}
	for _, region := range []string{"North", "South", "East"} {
		if !strings.Contains(body, region) {
			t.Errorf("fragment is missing region %q", region)
		}
	}
}

func TestSSEHandleTrends(t *testing.T) {
	h := newTestSSEHandlers(t)

	rr := httptest.NewRecorder()
	h.HandleTrends(rr, httptest.NewRequest(http.MethodGet, "/sse/trends", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "dailyData") || !strings.Contains(body, "monthlyData") {
		t.Errorf("expected trend signal patches, got %q", body)
	}
	if !strings.Contains(body, `id="trends-content"`) {
		t.Errorf("expected the trends fragment, got %q", body)
	}
}

func TestSSEHandleRefreshAll(t *testing.T) {
	h := newTestSSEHandlers(t)

	rr := httptest.NewRecorder()
	h.HandleRefreshAll(rr, httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil))

	body := rr.Body.String()
	for _, want := range []string{`id="regions-content"`, "kpiData", "dailyData", "monthlyData", "channelData"} {
		if !strings.Contains(body, want) {
			t.Errorf("refresh-all stream is missing %q", want)
		}
	}
}

func TestRenderRegionTable_CapsRows(t *testing.T) {
	h := newTestSSEHandlers(t)

	rows := make([]models.RegionRevenue, maxTableRows+5)
	for i := range rows {
		rows[i] = models.RegionRevenue{
			Region:       fmt.Sprintf("Region %02d", i),
			TotalRevenue: float64(100 - i),
			TotalUnits:   1,
			Transactions: 1,
		}
	}

	html, err := h.renderRegionTable(rows)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	// One <tr> for the header row, the rest are body rows.
	if got := strings.Count(html, "<tr>") - 1; got != maxTableRows {
		t.Errorf("expected %d body rows, got %d", maxTableRows, got)
	}
}
