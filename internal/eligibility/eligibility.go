// Package eligibility decides whether a transaction may be attributed to a
// partner.
//
// The rule is temporal: only transactions dated on or after the partner's
// signature date count, compared at calendar-date granularity. The resolver
// gates both aggregation and fuzzy-match confirmation, and confirmation must
// re-check at confirmation time because signing can happen between proposal
// and confirmation.
package eligibility

import (
	"time"

	"partner-revenue-service/internal/models"
	"partner-revenue-service/pkg/logger"
)

// WarningTracker deduplicates data-quality warnings so that each partner is
// warned about at most once per run. It is injected by the caller rather
// than held as package state so tests can assert warning counts.
type WarningTracker struct {
	seen map[string]bool
}

// NewWarningTracker creates an empty WarningTracker.
func NewWarningTracker() *WarningTracker {
	return &WarningTracker{seen: make(map[string]bool)}
}

// ShouldWarn reports whether a warning keyed by partner id has not yet been
// issued, and marks it issued.
func (wt *WarningTracker) ShouldWarn(partnerID string) bool {
	if wt.seen[partnerID] {
		return false
	}
	wt.seen[partnerID] = true
	return true
}

// Count returns the number of distinct partners warned about.
func (wt *WarningTracker) Count() int {
	return len(wt.seen)
}

// Resolver decides attribution eligibility for (transaction date, partner)
// pairs.
type Resolver struct {
	warnings *WarningTracker
	logger   logger.Logger
}

// NewResolver creates a Resolver using the given warning tracker. A nil
// tracker gets a fresh one.
func NewResolver(warnings *WarningTracker) *Resolver {
	if warnings == nil {
		warnings = NewWarningTracker()
	}

	return &Resolver{
		warnings: warnings,
		logger:   logger.GetGlobalLogger().WithComponent("eligibility"),
	}
}

// IsEligible reports whether a transaction dated transactionDate may be
// attributed to partner. Same-day transactions count; comparison is by
// calendar date, not timestamp.
func (r *Resolver) IsEligible(transactionDate time.Time, partner *models.Partner) bool {
	if partner == nil {
		return false
	}

	if partner.Status != models.StatusSigned {
		return false
	}

	if partner.SignedAt == nil || partner.SignedAt.IsZero() {
		if r.warnings.ShouldWarn(partner.ID) {
			r.logger.WithFields(logger.Fields{
				"partner_id":   partner.ID,
				"partner_name": partner.Name,
			}).Warn("Signed partner has no signature date; excluded from attribution")
		}
		return false
	}

	if transactionDate.IsZero() {
		if r.warnings.ShouldWarn(partner.ID) {
			r.logger.WithFields(logger.Fields{
				"partner_id": partner.ID,
			}).Warn("Unparseable transaction date; treated as unattributed")
		}
		return false
	}

	txDay := models.CalendarDate(transactionDate)
	signedDay := models.CalendarDate(*partner.SignedAt)

	return !txDay.Before(signedDay)
}

// Warnings returns the tracker used by this resolver.
func (r *Resolver) Warnings() *WarningTracker {
	return r.warnings
}
