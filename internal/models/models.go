// Package models defines the core record types shared across the service:
// partners, uploads and transactions, plus the parsing helpers for the
// amount, date and commission formats used by payment exports.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PartnerStatus represents a partner's position in the pipeline.
type PartnerStatus string

const (
	StatusPotential   PartnerStatus = "potential"
	StatusContacted   PartnerStatus = "contacted"
	StatusLead        PartnerStatus = "lead"
	StatusNegotiation PartnerStatus = "negotiation"
	StatusSigned      PartnerStatus = "signed"
	StatusClosed      PartnerStatus = "closed"
)

// String returns the string representation of PartnerStatus.
func (s PartnerStatus) String() string {
	return string(s)
}

// IsValid checks if the partner status is a known pipeline stage.
func (s PartnerStatus) IsValid() bool {
	switch s {
	case StatusPotential, StatusContacted, StatusLead, StatusNegotiation, StatusSigned, StatusClosed:
		return true
	}
	return false
}

// Partner represents a partner organization in the pipeline.
type Partner struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Status     PartnerStatus `json:"status"`
	SignedAt   *time.Time    `json:"signed_at,omitempty"`
	Commission string        `json:"commission,omitempty"`
	Aliases    []string      `json:"aliases,omitempty"`
}

// IsAttributable reports whether the partner may ever receive attributed
// transactions: signed status and a signature date on record. A signed
// partner without a signature date is a data-quality problem, not a fatal
// one, and is simply never attributable.
func (p *Partner) IsAttributable() bool {
	return p.Status == StatusSigned && p.SignedAt != nil && !p.SignedAt.IsZero()
}

// CommissionRate parses the partner's commission string ("10%", "7.5", "")
// into a decimal percentage. An empty or unparseable commission is zero.
func (p *Partner) CommissionRate() decimal.Decimal {
	return ParseCommissionRate(p.Commission)
}

// Validate performs basic validation on the Partner.
func (p *Partner) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("partner id cannot be empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("partner name cannot be empty")
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("invalid partner status: %s", p.Status)
	}
	return nil
}

// String returns a string representation of the Partner.
func (p *Partner) String() string {
	signed := "unsigned"
	if p.SignedAt != nil {
		signed = p.SignedAt.Format("2006-01-02")
	}
	return fmt.Sprintf("Partner{ID: %s, Name: %s, Status: %s, SignedAt: %s}",
		p.ID, p.Name, p.Status, signed)
}

// Upload represents one ingested monthly payment export. At most one
// non-deleted Upload exists per month key; replacing a month is an explicit
// cascade handled by the upload lifecycle manager.
type Upload struct {
	ID                string `json:"id"`
	Month             string `json:"month"` // "YYYY-MM"
	Filename          string `json:"filename"`
	UploadedBy        string `json:"uploaded_by,omitempty"`
	TotalTransactions int    `json:"total_transactions"`
	TotalSpend        int64  `json:"total_spend"`
	MatchedCount      int    `json:"matched_count"`
	UnmatchedCount    int    `json:"unmatched_count"`
}

// Validate performs basic validation on the Upload.
func (u *Upload) Validate() error {
	if !monthKeyPattern.MatchString(u.Month) {
		return fmt.Errorf("invalid month key '%s': expected YYYY-MM", u.Month)
	}
	if strings.TrimSpace(u.Filename) == "" {
		return fmt.Errorf("upload filename cannot be empty")
	}
	return nil
}

// Transaction represents a single payment row owned by an Upload. Amounts
// are integer minor currency units (pence), never floats.
type Transaction struct {
	ID                 string    `json:"id"`
	UploadID           string    `json:"upload_id"`
	Date               time.Time `json:"date"`
	MerchantRaw        string    `json:"merchant_raw"`
	MerchantNormalized string    `json:"merchant_normalised"`
	Amount             int64     `json:"amount"`
	PartnerID          string    `json:"partner_id,omitempty"`
	Category           string    `json:"category,omitempty"`
	Hidden             bool      `json:"is_hidden"`
}

// Validate performs basic validation on the Transaction.
func (t *Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	if strings.TrimSpace(t.MerchantRaw) == "" {
		return fmt.Errorf("transaction merchant cannot be empty")
	}
	return nil
}

// String returns a string representation of the Transaction.
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{Merchant: %s, Amount: %dp, Date: %s, Partner: %s}",
		t.MerchantNormalized, t.Amount, t.Date.Format("2006-01-02"), t.PartnerID)
}

var (
	// rowDatePattern matches the strict D/M/YYYY and DD/MM/YYYY forms used
	// by payment exports. Anything else (ISO dates, US ordering with
	// four-digit years elsewhere) is rejected rather than guessed at.
	rowDatePattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

	monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// LooksLikeRowDate reports whether a raw field matches the export date shape
// without fully parsing it. Used by the row parser to detect column order.
func LooksLikeRowDate(s string) bool {
	return rowDatePattern.MatchString(strings.TrimSpace(s))
}

// ParseRowDate parses a D/M/YYYY or DD/MM/YYYY date as used in payment
// exports. Day-first, always.
func ParseRowDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !rowDatePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date '%s': expected D/M/YYYY", s)
	}

	t, err := time.Parse("2/1/2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return t, nil
}

// ParseAmount parses a payment export amount ("£1,234.56") into integer
// pence. The currency symbol and thousand separators are stripped and the
// decimal value is multiplied by 100 and rounded to the nearest penny.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// FormatAmount renders integer pence as a display amount ("£1,234.56").
func FormatAmount(pence int64) string {
	d := decimal.NewFromInt(pence).Div(decimal.NewFromInt(100))
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	whole := parts[0]
	var grouped []string
	for len(whole) > 3 {
		grouped = append([]string{whole[len(whole)-3:]}, grouped...)
		whole = whole[:len(whole)-3]
	}
	grouped = append([]string{whole}, grouped...)

	out := "£" + strings.Join(grouped, ",") + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// MonthKey returns the canonical "YYYY-MM" key for a date.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// IsMonthKey reports whether s is a canonical "YYYY-MM" month key.
func IsMonthKey(s string) bool {
	return monthKeyPattern.MatchString(s)
}

// ParseCommissionRate parses a commission string into a decimal percentage.
// Accepts "10%", "7.5%", "10" and the empty string (zero). Unparseable
// values are treated as zero rather than failing the aggregation pass.
func ParseCommissionRate(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CommissionPence computes the commission owed on an amount of pence at the
// given percentage rate, rounded to the nearest penny.
func CommissionPence(amount int64, rate decimal.Decimal) int64 {
	if rate.IsZero() {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// CalendarDate truncates a timestamp to its calendar date in UTC. Eligibility
// comparisons are date-level, never timestamp-level.
func CalendarDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
