package services

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

// Every function in this file is a pure function of (dataset, parameters).
// Filtered views and the stored dataset are the same value type, so any view
// can be fed back into any aggregation.

// Filter returns the subsequence of records satisfying all active predicates,
// preserving input order. Empty criteria returns the input unchanged.
func Filter(ds models.Dataset, c models.FilterCriteria) models.Dataset {
	if c.Empty() {
		return ds
	}

	regions := toSet(c.Regions)
	channels := toSet(c.Channels)

	out := make(models.Dataset, 0, len(ds))
	for _, r := range ds {
		if c.StartDate != nil && r.Date.Before(*c.StartDate) {
			continue
		}
		if c.EndDate != nil && r.Date.After(*c.EndDate) {
			continue
		}
		if len(regions) > 0 && !regions[r.Region] {
			continue
		}
		if len(channels) > 0 && !channels[r.SalesChannel] {
			continue
		}
		if c.MinPrice != nil && r.PricePerUnit < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && r.PricePerUnit > *c.MaxPrice {
			continue
		}
		out = append(out, r)
	}
	return out
}

// KPIs computes the aggregate scalar metrics. ok is false for an empty
// dataset; there is no meaningful zero for the mean-based metrics, so an
// empty dataset never masquerades as a populated one.
func KPIs(ds models.Dataset) (models.KPISummary, bool) {
	if len(ds) == 0 {
		return models.KPISummary{}, false
	}

	var totalRevenue, totalPrice float64
	var totalUnits int
	for _, r := range ds {
		totalRevenue += r.Revenue
		totalPrice += r.PricePerUnit
		totalUnits += r.UnitsSold
	}

	n := float64(len(ds))
	k := models.KPISummary{
		TotalRevenue:          totalRevenue,
		TotalUnits:            totalUnits,
		AvgPrice:              totalPrice / n,
		TotalTransactions:     len(ds),
		AvgUnitsPerSale:       float64(totalUnits) / n,
		RevenuePerTransaction: totalRevenue / n,
	}

	if byRegion := RevenueByRegion(ds); len(byRegion) > 0 {
		k.TopRegion = byRegion[0].Region
		k.TopRegionRevenue = byRegion[0].TotalRevenue
	}
	if byChannel := RevenueByChannel(ds); len(byChannel) > 0 {
		k.TopChannel = byChannel[0].Channel
		k.TopChannelRevenue = byChannel[0].TotalRevenue
	}
	return k, true
}

type revenueGroup struct {
	revenue float64
	units   int
	count   int
}

func groupRevenue(ds models.Dataset, key func(models.Record) string) map[string]*revenueGroup {
	groups := make(map[string]*revenueGroup)
	for _, r := range ds {
		g := groups[key(r)]
		if g == nil {
			g = &revenueGroup{}
			groups[key(r)] = g
		}
		g.revenue += r.Revenue
		g.units += r.UnitsSold
		g.count++
	}
	return groups
}

// RevenueByRegion returns one row per distinct region, sorted by total
// revenue descending. Revenue ties resolve to the lexicographically smaller
// name so the order is fully deterministic.
func RevenueByRegion(ds models.Dataset) []models.RegionRevenue {
	groups := groupRevenue(ds, func(r models.Record) string { return r.Region })

	result := make([]models.RegionRevenue, 0, len(groups))
	for region, g := range groups {
		result = append(result, models.RegionRevenue{
			Region:       region,
			TotalRevenue: g.revenue,
			TotalUnits:   g.units,
			Transactions: g.count,
		})
	}
	slices.SortFunc(result, func(a, b models.RegionRevenue) int {
		if c := cmp.Compare(b.TotalRevenue, a.TotalRevenue); c != 0 {
			return c
		}
		return strings.Compare(a.Region, b.Region)
	})
	return result
}

// RevenueByChannel is the sales-channel counterpart of RevenueByRegion.
func RevenueByChannel(ds models.Dataset) []models.ChannelRevenue {
	groups := groupRevenue(ds, func(r models.Record) string { return r.SalesChannel })

	result := make([]models.ChannelRevenue, 0, len(groups))
	for channel, g := range groups {
		result = append(result, models.ChannelRevenue{
			Channel:      channel,
			TotalRevenue: g.revenue,
			TotalUnits:   g.units,
			Transactions: g.count,
		})
	}
	slices.SortFunc(result, func(a, b models.ChannelRevenue) int {
		if c := cmp.Compare(b.TotalRevenue, a.TotalRevenue); c != 0 {
			return c
		}
		return strings.Compare(a.Channel, b.Channel)
	})
	return result
}

// DailyTrend returns one row per calendar date present, ascending by date.
func DailyTrend(ds models.Dataset) []models.DailyPoint {
	groups := groupRevenue(ds, func(r models.Record) string {
		return r.Date.Format(models.DateLayout)
	})

	result := make([]models.DailyPoint, 0, len(groups))
	for date, g := range groups {
		result = append(result, models.DailyPoint{
			Date:         date,
			Revenue:      g.revenue,
			Units:        g.units,
			Transactions: g.count,
		})
	}
	// ISO dates sort correctly as strings.
	slices.SortFunc(result, func(a, b models.DailyPoint) int {
		return strings.Compare(a.Date, b.Date)
	})
	return result
}

// MonthlyTrend returns one row per distinct (year, month) pair, ascending.
func MonthlyTrend(ds models.Dataset) []models.MonthlyPoint {
	type monthGroup struct {
		revenue  float64
		priceSum float64
		units    int
		count    int
	}

	groups := make(map[string]*monthGroup)
	for _, r := range ds {
		key := r.Date.Format("2006-01")
		g := groups[key]
		if g == nil {
			g = &monthGroup{}
			groups[key] = g
		}
		g.revenue += r.Revenue
		g.priceSum += r.PricePerUnit
		g.units += r.UnitsSold
		g.count++
	}

	result := make([]models.MonthlyPoint, 0, len(groups))
	for month, g := range groups {
		result = append(result, models.MonthlyPoint{
			YearMonth:    month,
			Revenue:      g.revenue,
			Units:        g.units,
			Transactions: g.count,
			AvgPrice:     g.priceSum / float64(g.count),
		})
	}
	slices.SortFunc(result, func(a, b models.MonthlyPoint) int {
		return strings.Compare(a.YearMonth, b.YearMonth)
	})
	return result
}

// PriceDistribution returns one row per distinct price point, ascending by
// price.
func PriceDistribution(ds models.Dataset) []models.PricePoint {
	groups := make(map[float64]*revenueGroup)
	for _, r := range ds {
		g := groups[r.PricePerUnit]
		if g == nil {
			g = &revenueGroup{}
			groups[r.PricePerUnit] = g
		}
		g.revenue += r.Revenue
		g.units += r.UnitsSold
		g.count++
	}

	result := make([]models.PricePoint, 0, len(groups))
	for price, g := range groups {
		result = append(result, models.PricePoint{
			PricePerUnit: price,
			TotalRevenue: g.revenue,
			TotalUnits:   g.units,
			Transactions: g.count,
		})
	}
	slices.SortFunc(result, func(a, b models.PricePoint) int {
		return cmp.Compare(a.PricePerUnit, b.PricePerUnit)
	})
	return result
}

// Options enumerates legal filter inputs from the dataset. Lists are sorted
// ascending so the contract is stable across loads.
func Options(ds models.Dataset) models.FilterOptions {
	opts := models.FilterOptions{
		Regions:  []string{},
		Channels: []string{},
	}
	if len(ds) == 0 {
		return opts
	}

	regions := make(map[string]struct{})
	channels := make(map[string]struct{})
	minPrice, maxPrice := ds[0].PricePerUnit, ds[0].PricePerUnit
	minDate, maxDate := ds[0].Date, ds[0].Date

	for _, r := range ds {
		regions[r.Region] = struct{}{}
		channels[r.SalesChannel] = struct{}{}
		if r.PricePerUnit < minPrice {
			minPrice = r.PricePerUnit
		}
		if r.PricePerUnit > maxPrice {
			maxPrice = r.PricePerUnit
		}
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}

	for region := range regions {
		opts.Regions = append(opts.Regions, region)
	}
	for channel := range channels {
		opts.Channels = append(opts.Channels, channel)
	}
	slices.Sort(opts.Regions)
	slices.Sort(opts.Channels)

	opts.PriceRange = models.PriceRange{Min: minPrice, Max: maxPrice}
	opts.DateRange = models.DateRange{
		Start: minDate.Format(models.DateLayout),
		End:   maxDate.Format(models.DateLayout),
	}
	return opts
}

var sortColumns = map[string]func(a, b models.Record) int{
	"Sale_ID":        func(a, b models.Record) int { return cmp.Compare(a.SaleID, b.SaleID) },
	"Date":           func(a, b models.Record) int { return a.Date.Compare(b.Date) },
	"Units_Sold":     func(a, b models.Record) int { return cmp.Compare(a.UnitsSold, b.UnitsSold) },
	"Price_Per_Unit": func(a, b models.Record) int { return cmp.Compare(a.PricePerUnit, b.PricePerUnit) },
	"Revenue":        func(a, b models.Record) int { return cmp.Compare(a.Revenue, b.Revenue) },
	"Region":         func(a, b models.Record) int { return strings.Compare(a.Region, b.Region) },
	"Sales_Channel":  func(a, b models.Record) int { return strings.Compare(a.SalesChannel, b.SalesChannel) },
}

// Page sorts the dataset by the named column and returns the requested slice.
// A page past the end yields empty data with correct total and pages.
func Page(ds models.Dataset, page, perPage int, sortBy, sortOrder string) (models.TablePage, error) {
	if page < 1 {
		return models.TablePage{}, errors.Validation("page must be >= 1")
	}
	if perPage < 1 {
		return models.TablePage{}, errors.Validation("per_page must be >= 1")
	}

	compare, ok := sortColumns[sortBy]
	if !ok {
		return models.TablePage{}, errors.Validation(fmt.Sprintf("unknown sort column %q", sortBy))
	}

	switch sortOrder {
	case "asc":
	case "desc":
		asc := compare
		compare = func(a, b models.Record) int { return asc(b, a) }
	default:
		return models.TablePage{}, errors.Validation(fmt.Sprintf("sort_order must be \"asc\" or \"desc\", got %q", sortOrder))
	}

	sorted := slices.Clone(ds)
	slices.SortStableFunc(sorted, compare)

	total := len(sorted)
	pages := (total + perPage - 1) / perPage
	offset := (page - 1) * perPage

	data := []models.Record{}
	if offset < total {
		data = sorted[offset:min(offset+perPage, total)]
	}

	return models.TablePage{
		Data:        data,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
	}, nil
}

// Analyze bundles every derived view over one dataset, typically a filtered
// slice. KPI degrades to an empty object when the slice has no rows.
func Analyze(ds models.Dataset) models.FilteredAnalytics {
	var kpi any = struct{}{}
	if k, ok := KPIs(ds); ok {
		kpi = k
	}

	return models.FilteredAnalytics{
		KPI:               kpi,
		RevenueByRegion:   RevenueByRegion(ds),
		RevenueByChannel:  RevenueByChannel(ds),
		DailyTrends:       DailyTrend(ds),
		MonthlyTrends:     MonthlyTrend(ds),
		PriceDistribution: PriceDistribution(ds),
	}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
