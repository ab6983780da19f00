// Package aggregator folds persisted transactions into the derived rollups
// the dashboards read: per-partner revenue/commission/health stats and the
// discovery list of unattributed merchants.
//
// Nothing here is persisted. The rollups are pure functions of the
// transaction set and the partner roster at read time, so a re-read after
// any mutation is always consistent.
package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"partner-revenue-service/internal/eligibility"
	"partner-revenue-service/internal/models"
	"partner-revenue-service/pkg/logger"
)

// HealthStatus is the RAG classification of a partner's recent activity.
type HealthStatus string

const (
	HealthGreen HealthStatus = "green"
	HealthAmber HealthStatus = "amber"
	HealthRed   HealthStatus = "red"
)

// Health thresholds: green needs regular recent activity, amber tolerates a
// short lull, anything older is red.
const (
	greenMinTransactions = 3
	greenMaxAgeDays      = 14
	amberMaxAgeDays      = 21
)

// PartnerRevenueStats is the per-partner rollup.
type PartnerRevenueStats struct {
	PartnerID        string       `json:"partner_id"`
	PartnerName      string       `json:"partner_name"`
	TransactionCount int          `json:"transaction_count"`
	TotalRevenue     int64        `json:"total_revenue"`
	CommissionEarned int64        `json:"commission_earned"`
	LastTransaction  time.Time    `json:"last_transaction"`
	DaysSinceLast    int          `json:"days_since_last"`
	Health           HealthStatus `json:"health"`
	AverageDealSize  int64        `json:"average_deal_size"`
}

// MerchantStats is the per-merchant rollup for unattributed spend, keyed by
// canonical merchant identity. These are the discovery candidates.
type MerchantStats struct {
	Name         string    `json:"name"`
	Count        int       `json:"count"`
	TotalRevenue int64     `json:"total_revenue"`
	LastUsed     time.Time `json:"last_used"`
	Category     string    `json:"category,omitempty"`
}

// Result is the full output of one aggregation pass.
type Result struct {
	PartnerStats []*PartnerRevenueStats `json:"partner_stats"`
	Discovery    []*MerchantStats       `json:"discovery"`

	AttributedCount   int   `json:"attributed_count"`
	UnattributedCount int   `json:"unattributed_count"`
	HiddenCount       int   `json:"hidden_count"`
	TotalRevenue      int64 `json:"total_revenue"`
	TotalCommission   int64 `json:"total_commission"`
}

// Engine computes derived aggregates over a transaction scope.
type Engine struct {
	resolver *eligibility.Resolver
	logger   logger.Logger

	// Now is injectable so health classification is deterministic in tests.
	Now func() time.Time
}

// NewEngine creates an aggregation engine. A nil resolver gets a fresh one
// with its own warning tracker.
func NewEngine(resolver *eligibility.Resolver) *Engine {
	if resolver == nil {
		resolver = eligibility.NewResolver(nil)
	}

	return &Engine{
		resolver: resolver,
		logger:   logger.GetGlobalLogger().WithComponent("aggregator"),
		Now:      time.Now,
	}
}

// Aggregate partitions the non-hidden transactions into attributed and
// discovery groups and folds each side into its rollup. The partition is
// exhaustive and disjoint: every non-hidden transaction lands in exactly
// one group.
func (e *Engine) Aggregate(transactions []*models.Transaction, roster []*models.Partner) *Result {
	byID := make(map[string]*models.Partner, len(roster))
	for _, partner := range roster {
		byID[partner.ID] = partner
	}

	partnerStats := make(map[string]*PartnerRevenueStats)
	merchantStats := make(map[string]*MerchantStats)
	result := &Result{}

	for _, tx := range transactions {
		if tx.Hidden {
			result.HiddenCount++
			continue
		}

		result.TotalRevenue += tx.Amount

		partner := byID[tx.PartnerID]
		if tx.PartnerID != "" && partner != nil && e.resolver.IsEligible(tx.Date, partner) {
			e.foldAttributed(partnerStats, tx, partner)
			result.AttributedCount++
			continue
		}

		e.foldUnattributed(merchantStats, tx)
		result.UnattributedCount++
	}

	now := e.Now()
	for _, stats := range partnerStats {
		e.finalize(stats, now)
		result.TotalCommission += stats.CommissionEarned
		result.PartnerStats = append(result.PartnerStats, stats)
	}

	sort.Slice(result.PartnerStats, func(i, j int) bool {
		if result.PartnerStats[i].TotalRevenue != result.PartnerStats[j].TotalRevenue {
			return result.PartnerStats[i].TotalRevenue > result.PartnerStats[j].TotalRevenue
		}
		return result.PartnerStats[i].PartnerName < result.PartnerStats[j].PartnerName
	})

	for _, stats := range merchantStats {
		result.Discovery = append(result.Discovery, stats)
	}
	SortDiscovery(result.Discovery, SortByFrequency)

	e.logger.WithFields(logger.Fields{
		"attributed":   result.AttributedCount,
		"unattributed": result.UnattributedCount,
		"hidden":       result.HiddenCount,
		"partners":     len(result.PartnerStats),
		"merchants":    len(result.Discovery),
	}).Debug("Aggregated transaction set")

	return result
}

func (e *Engine) foldAttributed(stats map[string]*PartnerRevenueStats, tx *models.Transaction, partner *models.Partner) {
	s, ok := stats[partner.ID]
	if !ok {
		s = &PartnerRevenueStats{
			PartnerID:   partner.ID,
			PartnerName: partner.Name,
		}
		stats[partner.ID] = s
	}

	s.TransactionCount++
	s.TotalRevenue += tx.Amount
	s.CommissionEarned += models.CommissionPence(tx.Amount, partner.CommissionRate())
	if tx.Date.After(s.LastTransaction) {
		s.LastTransaction = tx.Date
	}
}

func (e *Engine) foldUnattributed(stats map[string]*MerchantStats, tx *models.Transaction) {
	name := tx.MerchantNormalized
	if name == "" {
		name = tx.MerchantRaw
	}

	s, ok := stats[name]
	if !ok {
		s = &MerchantStats{Name: name}
		stats[name] = s
	}

	s.Count++
	s.TotalRevenue += tx.Amount
	if tx.Date.After(s.LastUsed) {
		s.LastUsed = tx.Date
	}
	if s.Category == "" && tx.Category != "" {
		s.Category = tx.Category
	}
}

func (e *Engine) finalize(s *PartnerRevenueStats, now time.Time) {
	days := int(models.CalendarDate(now).Sub(models.CalendarDate(s.LastTransaction)).Hours() / 24)
	if days < 0 {
		days = 0
	}
	s.DaysSinceLast = days
	s.Health = classifyHealth(s.TransactionCount, days)

	if s.TransactionCount > 0 {
		s.AverageDealSize = decimal.NewFromInt(s.TotalRevenue).
			Div(decimal.NewFromInt(int64(s.TransactionCount))).
			Round(0).
			IntPart()
	}
}

func classifyHealth(count, daysSinceLast int) HealthStatus {
	switch {
	case count >= greenMinTransactions && daysSinceLast <= greenMaxAgeDays:
		return HealthGreen
	case count >= 1 && daysSinceLast <= amberMaxAgeDays:
		return HealthAmber
	default:
		return HealthRed
	}
}
