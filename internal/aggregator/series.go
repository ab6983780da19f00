package aggregator

import (
	"sort"
	"time"

	"partner-revenue-service/internal/models"
)

// DiscoverySort names an ordering for the discovery list.
type DiscoverySort string

const (
	// SortByFrequency orders by transaction count, busiest merchants first.
	SortByFrequency DiscoverySort = "frequency"

	// SortByRevenue orders by total spend, highest first.
	SortByRevenue DiscoverySort = "revenue"

	// SortByRecency orders by last-seen date, most recent first.
	SortByRecency DiscoverySort = "recency"
)

// SortDiscovery orders merchant stats in place by the given criterion.
// Ties break by merchant name so output is deterministic.
func SortDiscovery(stats []*MerchantStats, by DiscoverySort) {
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		switch by {
		case SortByRevenue:
			if a.TotalRevenue != b.TotalRevenue {
				return a.TotalRevenue > b.TotalRevenue
			}
		case SortByRecency:
			if !a.LastUsed.Equal(b.LastUsed) {
				return a.LastUsed.After(b.LastUsed)
			}
		default:
			if a.Count != b.Count {
				return a.Count > b.Count
			}
		}
		return a.Name < b.Name
	})
}

// WeeklyPoint is one bucket of the weekly time series. WeekStart is the
// Sunday the bucket begins on, at calendar-date granularity.
type WeeklyPoint struct {
	WeekStart  time.Time `json:"week_start"`
	Revenue    int64     `json:"revenue"`
	Commission int64     `json:"commission"`
}

// WeeklySeries buckets non-hidden transactions into calendar weeks starting
// on Sunday. Revenue covers all non-hidden spend; commission accrues only
// from transactions attributable to an eligible partner. Buckets come back
// in chronological order.
func (e *Engine) WeeklySeries(transactions []*models.Transaction, roster []*models.Partner) []*WeeklyPoint {
	byID := make(map[string]*models.Partner, len(roster))
	for _, partner := range roster {
		byID[partner.ID] = partner
	}

	buckets := make(map[time.Time]*WeeklyPoint)

	for _, tx := range transactions {
		if tx.Hidden || tx.Date.IsZero() {
			continue
		}

		start := WeekStart(tx.Date)
		point, ok := buckets[start]
		if !ok {
			point = &WeeklyPoint{WeekStart: start}
			buckets[start] = point
		}

		point.Revenue += tx.Amount

		partner := byID[tx.PartnerID]
		if tx.PartnerID != "" && partner != nil && e.resolver.IsEligible(tx.Date, partner) {
			point.Commission += models.CommissionPence(tx.Amount, partner.CommissionRate())
		}
	}

	series := make([]*WeeklyPoint, 0, len(buckets))
	for _, point := range buckets {
		series = append(series, point)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].WeekStart.Before(series[j].WeekStart)
	})

	return series
}

// WeekStart returns the Sunday beginning the calendar week containing t.
func WeekStart(t time.Time) time.Time {
	day := models.CalendarDate(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// CategorySlice is one entry in the category spend distribution.
type CategorySlice struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Revenue  int64  `json:"revenue"`
}

// CategoryDistribution folds non-hidden transactions by category. Uncategorised
// spend is grouped under "Uncategorised". Slices come back by revenue,
// largest first.
func (e *Engine) CategoryDistribution(transactions []*models.Transaction) []*CategorySlice {
	byCategory := make(map[string]*CategorySlice)

	for _, tx := range transactions {
		if tx.Hidden {
			continue
		}

		category := tx.Category
		if category == "" {
			category = "Uncategorised"
		}

		slice, ok := byCategory[category]
		if !ok {
			slice = &CategorySlice{Category: category}
			byCategory[category] = slice
		}
		slice.Count++
		slice.Revenue += tx.Amount
	}

	slices := make([]*CategorySlice, 0, len(byCategory))
	for _, slice := range byCategory {
		slices = append(slices, slice)
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Revenue != slices[j].Revenue {
			return slices[i].Revenue > slices[j].Revenue
		}
		return slices[i].Category < slices[j].Category
	})

	return slices
}
