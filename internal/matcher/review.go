package matcher

import (
	"fmt"

	"partner-revenue-service/internal/models"
	"partner-revenue-service/pkg/errors"
)

// ProposalState tracks a fuzzy proposal through the human review workflow.
type ProposalState string

const (
	// ProposalPending means the proposal awaits an operator decision.
	ProposalPending ProposalState = "pending"

	// ProposalConfirmed means the operator accepted the match. The
	// suggested alias is appended to the partner and the merchant's
	// transactions are attributed.
	ProposalConfirmed ProposalState = "confirmed"

	// ProposalDismissed means the operator rejected the match. The
	// merchant stays in the discovery list.
	ProposalDismissed ProposalState = "dismissed"
)

// Proposal is a single fuzzy-match suggestion. Proposals never touch
// persisted data until confirmed.
type Proposal struct {
	Merchant       string          `json:"merchant"`
	Partner        *models.Partner `json:"partner"`
	Score          int             `json:"score"`
	SuggestedAlias string          `json:"suggested_alias"`
	State          ProposalState   `json:"state"`
}

// Confirm transitions a pending proposal to confirmed. Eligibility is
// re-validated here rather than trusted from proposal time, since the
// partner's status or signature date may have changed in between.
func (p *Proposal) Confirm() error {
	if p.State != ProposalPending {
		return errors.AttributionError(errors.CodeProposalState,
			fmt.Sprintf("cannot confirm proposal in state %q", p.State), nil).
			WithContext("merchant", p.Merchant)
	}

	if !p.Partner.IsAttributable() {
		return errors.AttributionError(errors.CodePartnerIneligible,
			fmt.Sprintf("partner %s is no longer attributable", p.Partner.Name), nil).
			WithContext("merchant", p.Merchant).
			WithContext("partner_id", p.Partner.ID)
	}

	p.State = ProposalConfirmed
	return nil
}

// Dismiss transitions a pending proposal to dismissed.
func (p *Proposal) Dismiss() error {
	if p.State != ProposalPending {
		return errors.AttributionError(errors.CodeProposalState,
			fmt.Sprintf("cannot dismiss proposal in state %q", p.State), nil).
			WithContext("merchant", p.Merchant)
	}

	p.State = ProposalDismissed
	return nil
}

// String returns a human-readable description of the proposal.
func (p *Proposal) String() string {
	return fmt.Sprintf("Proposal{%s -> %s, score %d, %s}",
		p.Merchant, p.Partner.Name, p.Score, p.State)
}
