// Package matcher links canonical merchant identities to signed partners.
//
// Matching is a two-phase process run once per ingested batch over the
// unique merchant names in that batch:
//
//  1. Exact alias match: each signed partner's aliases are tested as
//     prefix/substring matches against the merchant identity. Roster order
//     is the tiebreak; this is a documented limitation, not an oversight.
//  2. Fuzzy match: merchants left over from phase 1 are scored against
//     partner names using a reduction pass and asymmetric containment
//     scoring. The best candidate at or above threshold becomes a proposal
//     requiring human confirmation before anything is persisted.
package matcher

import (
	"math"
	"strings"

	"partner-revenue-service/internal/models"
	"partner-revenue-service/pkg/logger"
)

// AliasMatcher matches merchant identities against a partner roster.
type AliasMatcher struct {
	config *Config
	logger logger.Logger
}

// BatchResult is the outcome of matching one batch of unique merchants.
type BatchResult struct {
	// Exact maps merchant identity to the partner matched by alias.
	Exact map[string]*models.Partner

	// Proposals holds pending fuzzy matches awaiting confirmation, one per
	// merchant at most.
	Proposals []*Proposal

	// Unmatched lists merchants with neither an exact match nor a proposal.
	Unmatched []string
}

// NewAliasMatcher creates a matcher with the given scoring configuration.
// A nil config uses DefaultConfig.
func NewAliasMatcher(config *Config) *AliasMatcher {
	if config == nil {
		config = DefaultConfig()
	}

	return &AliasMatcher{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("alias_matcher"),
	}
}

// Config returns a copy of the matcher's configuration.
func (am *AliasMatcher) Config() *Config {
	return am.config.Clone()
}

// MatchBatch runs both phases over the given unique merchant identities.
// Only signed partners participate; roster order is preserved for phase 1
// tiebreaks.
func (am *AliasMatcher) MatchBatch(merchants []string, roster []*models.Partner) *BatchResult {
	eligible := signedPartners(roster)

	result := &BatchResult{
		Exact: make(map[string]*models.Partner),
	}

	var leftover []string
	for _, merchant := range merchants {
		if partner := am.ExactMatch(merchant, eligible); partner != nil {
			result.Exact[merchant] = partner
			continue
		}
		leftover = append(leftover, merchant)
	}

	for _, merchant := range leftover {
		if proposal := am.Propose(merchant, eligible); proposal != nil {
			result.Proposals = append(result.Proposals, proposal)
			continue
		}
		result.Unmatched = append(result.Unmatched, merchant)
	}

	am.logger.WithFields(logger.Fields{
		"merchants": len(merchants),
		"exact":     len(result.Exact),
		"proposals": len(result.Proposals),
		"unmatched": len(result.Unmatched),
	}).Debug("Matched merchant batch")

	return result
}

// ExactMatch returns the first partner (in roster order) with an alias that
// the merchant identity starts with or contains. Aliases are typically stored
// in processor form ("ADDISONLEE") while identities carry spaces ("Addison
// Lee"), so the comparison is also run whitespace-compacted. Nil when no
// alias matches.
func (am *AliasMatcher) ExactMatch(merchant string, roster []*models.Partner) *models.Partner {
	candidate := strings.ToUpper(strings.TrimSpace(merchant))
	compact := strings.ReplaceAll(candidate, " ", "")

	for _, partner := range roster {
		for _, alias := range partner.Aliases {
			a := strings.ToUpper(strings.TrimSpace(alias))
			if a == "" {
				continue
			}
			if strings.HasPrefix(candidate, a) || strings.Contains(candidate, a) ||
				strings.Contains(compact, strings.ReplaceAll(a, " ", "")) {
				return partner
			}
		}
	}

	return nil
}

// Propose returns the highest-scoring fuzzy proposal for a merchant, or nil
// when no partner reaches the minimum score.
func (am *AliasMatcher) Propose(merchant string, roster []*models.Partner) *Proposal {
	var best *models.Partner
	bestScore := 0

	for _, partner := range roster {
		score := am.Score(merchant, partner.Name)
		if score > bestScore {
			best = partner
			bestScore = score
		}
	}

	if best == nil || bestScore < am.config.MinScore {
		return nil
	}

	return &Proposal{
		Merchant:       merchant,
		Partner:        best,
		Score:          bestScore,
		SuggestedAlias: Reduce(merchant),
		State:          ProposalPending,
	}
}

// Score computes the fuzzy match score between a merchant identity and a
// partner name. Scoring is asymmetric: a payment descriptor containing the
// partner's brand name is stronger evidence than the reverse, so Score(a, b)
// and Score(b, a) can differ.
func (am *AliasMatcher) Score(merchantName, partnerName string) int {
	m := Reduce(merchantName)
	p := Reduce(partnerName)

	if m == "" || p == "" {
		return 0
	}

	if m == p {
		return 100
	}

	if strings.Contains(m, p) {
		return scale(am.config.MerchantContainsCeiling, len(p), len(m))
	}

	if strings.Contains(p, m) {
		return scale(am.config.PartnerContainsCeiling, len(m), len(p))
	}

	overlap := longestCommonSubstring(m, p)
	if overlap >= am.config.MinOverlap {
		longest := len(m)
		if len(p) > longest {
			longest = len(p)
		}
		return scale(am.config.SubstringCeiling, overlap, longest)
	}

	return 0
}

func scale(ceiling, numerator, denominator int) int {
	if denominator == 0 {
		return 0
	}
	return int(math.Round(float64(ceiling) * float64(numerator) / float64(denominator)))
}

var legalSuffixes = []string{"CORPORATION", "LIMITED", "CORP", "LLC", "INC", "PLC", "LTD"}

var domainSuffixes = []string{".CO.UK", ".CO.JP", ".COM", ".CO"}

// Reduce collapses a name to its fuzzy-comparison form: uppercase, truncated
// at the first asterisk, whitespace and punctuation stripped, trailing
// domain and legal-entity suffixes removed. The reduced form of a merchant
// doubles as the suggested alias when a proposal is confirmed.
func Reduce(s string) string {
	r := strings.ToUpper(strings.TrimSpace(s))

	if i := strings.Index(r, "*"); i >= 0 {
		r = r[:i]
	}

	for _, suffix := range domainSuffixes {
		if strings.HasSuffix(r, suffix) {
			r = strings.TrimSuffix(r, suffix)
			break
		}
	}

	r = strings.Map(func(c rune) rune {
		switch c {
		case ' ', '\t', '.', ',', '-', '_', '\'':
			return -1
		}
		return c
	}, r)

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(r, suffix) && len(r) > len(suffix) {
			r = strings.TrimSuffix(r, suffix)
			break
		}
	}

	return r
}

// longestCommonSubstring returns the length of the longest substring shared
// by a and b.
func longestCommonSubstring(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	best := 0

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return best
}

func signedPartners(roster []*models.Partner) []*models.Partner {
	var signed []*models.Partner
	for _, partner := range roster {
		if partner.Status == models.StatusSigned {
			signed = append(signed, partner)
		}
	}
	return signed
}
