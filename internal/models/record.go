package models

import (
	"encoding/json"
	"time"
)

// DateLayout is the ISO date format used across the CSV file and the API.
const DateLayout = "2006-01-02"

// RequiredColumns is the CSV schema every dataset must carry. Columns are
// matched by name; order in the file is irrelevant.
var RequiredColumns = []string{
	"Sale_ID",
	"Date",
	"Units_Sold",
	"Price_Per_Unit",
	"Revenue",
	"Region",
	"Sales_Channel",
}

// Record is one sales transaction row.
type Record struct {
	SaleID       int
	Date         time.Time
	UnitsSold    int
	PricePerUnit float64
	Revenue      float64
	Region       string
	SalesChannel string
}

// MarshalJSON renders a record as a plain column-keyed object with the date
// as an ISO string, which is the shape the table endpoint returns.
func (r Record) MarshalJSON() ([]byte, error) {
	type row struct {
		SaleID       int     `json:"Sale_ID"`
		Date         string  `json:"Date"`
		UnitsSold    int     `json:"Units_Sold"`
		PricePerUnit float64 `json:"Price_Per_Unit"`
		Revenue      float64 `json:"Revenue"`
		Region       string  `json:"Region"`
		SalesChannel string  `json:"Sales_Channel"`
	}
	return json.Marshal(row{
		SaleID:       r.SaleID,
		Date:         r.Date.Format(DateLayout),
		UnitsSold:    r.UnitsSold,
		PricePerUnit: r.PricePerUnit,
		Revenue:      r.Revenue,
		Region:       r.Region,
		SalesChannel: r.SalesChannel,
	})
}

// Dataset is the full in-memory collection of records currently active, or an
// ephemeral filtered view of it. Both are the same value type; aggregation
// functions never distinguish them.
type Dataset []Record

// FilterCriteria narrows a dataset by date, region, channel and price. A nil
// field means no restriction on that dimension; active predicates combine
// with AND.
type FilterCriteria struct {
	StartDate *time.Time
	EndDate   *time.Time
	Regions   []string
	Channels  []string
	MinPrice  *float64
	MaxPrice  *float64
}

// Empty reports whether no predicate is active.
func (c FilterCriteria) Empty() bool {
	return c.StartDate == nil && c.EndDate == nil &&
		len(c.Regions) == 0 && len(c.Channels) == 0 &&
		c.MinPrice == nil && c.MaxPrice == nil
}

// KPISummary holds the aggregate scalar metrics for a dataset.
type KPISummary struct {
	TotalRevenue          float64 `json:"total_revenue"`
	TotalUnits            int     `json:"total_units"`
	AvgPrice              float64 `json:"avg_price"`
	TotalTransactions     int     `json:"total_transactions"`
	AvgUnitsPerSale       float64 `json:"avg_units_per_sale"`
	RevenuePerTransaction float64 `json:"revenue_per_transaction"`
	TopRegion             string  `json:"top_region"`
	TopRegionRevenue      float64 `json:"top_region_revenue"`
	TopChannel            string  `json:"top_channel"`
	TopChannelRevenue     float64 `json:"top_channel_revenue"`
}

type RegionRevenue struct {
	Region       string  `json:"Region"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalUnits   int     `json:"total_units"`
	Transactions int     `json:"transaction_count"`
}

type ChannelRevenue struct {
	Channel      string  `json:"Sales_Channel"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalUnits   int     `json:"total_units"`
	Transactions int     `json:"transaction_count"`
}

type DailyPoint struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	Units        int     `json:"units"`
	Transactions int     `json:"transactions"`
}

type MonthlyPoint struct {
	YearMonth    string  `json:"year_month"`
	Revenue      float64 `json:"revenue"`
	Units        int     `json:"units"`
	Transactions int     `json:"transactions"`
	AvgPrice     float64 `json:"avg_price"`
}

type PricePoint struct {
	PricePerUnit float64 `json:"Price_Per_Unit"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalUnits   int     `json:"total_units"`
	Transactions int     `json:"transaction_count"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FilterOptions enumerates legal filter inputs from the loaded dataset.
type FilterOptions struct {
	Regions    []string   `json:"regions"`
	Channels   []string   `json:"channels"`
	PriceRange PriceRange `json:"price_range"`
	DateRange  DateRange  `json:"date_range"`
}

// TablePage is one page of the sorted (optionally filtered) dataset.
type TablePage struct {
	Data        []Record `json:"data"`
	Total       int      `json:"total"`
	Pages       int      `json:"pages"`
	CurrentPage int      `json:"current_page"`
}

// FilteredAnalytics bundles every derived view for one filtered slice. KPI is
// an empty object rather than null when the slice has no rows.
type FilteredAnalytics struct {
	KPI               any              `json:"kpi"`
	RevenueByRegion   []RegionRevenue  `json:"revenue_by_region"`
	RevenueByChannel  []ChannelRevenue `json:"revenue_by_channel"`
	DailyTrends       []DailyPoint     `json:"daily_trends"`
	MonthlyTrends     []MonthlyPoint   `json:"monthly_trends"`
	PriceDistribution []PricePoint     `json:"price_distribution"`
}
