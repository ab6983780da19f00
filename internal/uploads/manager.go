// Package uploads owns the lifecycle of monthly payment exports: month
// identity, duplicate handling, the replacement cascade and batched
// persistence into the record store.
package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"partner-revenue-service/internal/eligibility"
	"partner-revenue-service/internal/matcher"
	"partner-revenue-service/internal/models"
	"partner-revenue-service/internal/normalizer"
	"partner-revenue-service/internal/parsers"
	"partner-revenue-service/internal/store"
	"partner-revenue-service/pkg/errors"
	"partner-revenue-service/pkg/logger"
)

// Config holds upload persistence settings.
type Config struct {
	// BatchSize is how many transactions are persisted per store request.
	BatchSize int `json:"batch_size"`

	// BatchDelay is the pause between consecutive batch requests, to stay
	// inside the record API's rate limits.
	BatchDelay time.Duration `json:"batch_delay"`
}

// DefaultConfig returns the default upload settings.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  50,
		BatchDelay: 250 * time.Millisecond,
	}
}

// Validate checks the upload configuration.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive: %d", c.BatchSize)
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("batch delay cannot be negative: %s", c.BatchDelay)
	}
	return nil
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// DuplicateMonthError signals that an upload already exists for the month a
// new file resolves to. It is a decision point, not a failure: the caller
// chooses to replace or cancel, never a silent overwrite.
type DuplicateMonthError struct {
	Month    string
	Existing *models.Upload
}

// Error implements the error interface.
func (e *DuplicateMonthError) Error() string {
	return fmt.Sprintf("an upload for %s already exists (%s, %d transactions)",
		e.Month, e.Existing.Filename, e.Existing.TotalTransactions)
}

// ServiceError converts the conflict into the taxonomy form used at the CLI
// edge.
func (e *DuplicateMonthError) ServiceError() *errors.ServiceError {
	return errors.New(errors.CategoryConflict, errors.CodeDuplicateMonth, e.Error()).
		WithSuggestion("re-run with --replace to replace the existing upload, or cancel").
		WithContext("month", e.Month).
		WithContext("existing_upload_id", e.Existing.ID)
}

// Manager coordinates ingest and review operations against the record store.
type Manager struct {
	store      store.Store
	parser     *parsers.RowParser
	normalizer *normalizer.Normalizer
	matcher    *matcher.AliasMatcher
	resolver   *eligibility.Resolver
	config     *Config
	logger     logger.Logger

	// sleep is injectable so batch-delay behaviour is testable without
	// real waiting.
	sleep func(time.Duration)
}

// NewManager creates an upload lifecycle manager. A nil config uses
// DefaultConfig.
func NewManager(st store.Store, config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "uploads", config, err)
	}

	return &Manager{
		store:      st,
		parser:     parsers.NewRowParser(),
		normalizer: normalizer.NewNormalizer(nil),
		matcher:    matcher.NewAliasMatcher(nil),
		resolver:   eligibility.NewResolver(nil),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("uploads"),
		sleep:      time.Sleep,
	}, nil
}

// IngestOptions carries the caller-supplied parameters for one ingest run.
type IngestOptions struct {
	Filename   string
	UploadedBy string

	// Replace resolves a duplicate-month conflict by replacing the existing
	// upload. Without it the conflict is surfaced as DuplicateMonthError.
	Replace bool
}

// IngestResult is the outcome of one ingest run.
type IngestResult struct {
	RunID        string                `json:"run_id"`
	Upload       *models.Upload        `json:"upload"`
	Stats        *parsers.ParseStats   `json:"stats"`
	Transactions []*models.Transaction `json:"transactions"`
	Match        *matcher.BatchResult  `json:"match"`

	// Replaced reports whether an existing upload for the month was replaced.
	Replaced bool `json:"replaced"`

	// CommittedRows is how many transactions reached the store. Equal to
	// len(Transactions) on success; smaller when a batch aborts partway.
	CommittedRows int `json:"committed_rows"`
}

// Ingest runs the full pipeline for one export file: parse, normalize, derive
// the month identity, resolve duplicate months, match merchants against the
// roster and persist the upload with its transactions in sequential batches.
func (m *Manager) Ingest(ctx context.Context, content string, opts IngestOptions) (*IngestResult, error) {
	runID := uuid.NewString()
	log := m.logger.WithField("run_id", runID)

	rows, stats, err := m.parser.ParseRows(content)
	if err != nil {
		return nil, err
	}

	transactions := m.buildTransactions(rows, stats, log)
	if len(transactions) == 0 {
		return nil, errors.ParseError(errors.CodeNoValidRows, "", nil).
			WithContext("total_lines", stats.TotalLines)
	}

	// The first valid row names the month the whole file belongs to.
	month := models.MonthKey(transactions[0].Date)

	replaced, err := m.resolveMonthConflict(ctx, month, opts.Replace, log)
	if err != nil {
		return nil, err
	}

	roster, err := m.store.ListPartners(ctx)
	if err != nil {
		return nil, err
	}

	match := m.matchTransactions(transactions, roster)

	upload := m.buildUpload(month, transactions, opts)
	created, err := m.store.CreateUpload(ctx, upload)
	if err != nil {
		return nil, err
	}
	for _, tx := range transactions {
		tx.UploadID = created.ID
	}

	result := &IngestResult{
		RunID:        runID,
		Upload:       created,
		Stats:        stats,
		Transactions: transactions,
		Match:        match,
		Replaced:     replaced,
	}

	committed, err := m.persistBatches(ctx, transactions, log)
	result.CommittedRows = committed
	if err != nil {
		return result, err
	}

	log.WithFields(logger.Fields{
		"month":        month,
		"transactions": len(transactions),
		"matched":      created.MatchedCount,
		"proposals":    len(match.Proposals),
		"replaced":     replaced,
	}).Info("Ingest complete")

	return result, nil
}

// buildTransactions converts parsed rows into transactions, dropping rows
// whose date or amount fail to parse. Drops are counted into the stats.
func (m *Manager) buildTransactions(rows []parsers.Row, stats *parsers.ParseStats, log logger.Logger) []*models.Transaction {
	var transactions []*models.Transaction

	for _, row := range rows {
		date, err := models.ParseRowDate(row.Date)
		if err != nil {
			stats.RowsParsed--
			stats.RowsSkipped++
			continue
		}

		amount, err := models.ParseAmount(row.Amount)
		if err != nil {
			stats.RowsParsed--
			stats.RowsSkipped++
			continue
		}

		merchant := m.normalizer.Lookup(row.Merchant)
		transactions = append(transactions, &models.Transaction{
			Date:               date,
			MerchantRaw:        row.Merchant,
			MerchantNormalized: merchant.Canonical,
			Amount:             amount,
			Category:           merchant.Category,
		})
	}

	if dropped := len(rows) - len(transactions); dropped > 0 {
		log.WithField("dropped", dropped).Warn("Dropped rows with unparseable date or amount")
	}

	return transactions
}

// resolveMonthConflict checks for an existing upload on the month and either
// surfaces the conflict or runs the replacement cascade: transactions first,
// then the upload record. Partial cascade failure is surfaced and retryable.
func (m *Manager) resolveMonthConflict(ctx context.Context, month string, replace bool, log logger.Logger) (bool, error) {
	existing, err := m.store.FindUploadByMonth(ctx, month)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if !replace {
		return false, &DuplicateMonthError{Month: month, Existing: existing}
	}

	deleted, err := m.store.DeleteTransactionsByUpload(ctx, existing.ID)
	if err != nil {
		return false, err
	}
	if err := m.store.DeleteUpload(ctx, existing.ID); err != nil {
		return false, err
	}

	log.WithFields(logger.Fields{
		"month":                month,
		"replaced_upload_id":   existing.ID,
		"deleted_transactions": deleted,
	}).Info("Replaced existing upload for month")

	return true, nil
}

// matchTransactions runs alias matching over the unique canonical merchants
// in the batch and applies exact matches to the transactions. Assignment is
// per row, not per merchant: a matched merchant's transaction still persists
// unassigned when it predates the partner's signature date.
func (m *Manager) matchTransactions(transactions []*models.Transaction, roster []*models.Partner) *matcher.BatchResult {
	seen := make(map[string]bool)
	var merchants []string
	for _, tx := range transactions {
		if !seen[tx.MerchantNormalized] {
			seen[tx.MerchantNormalized] = true
			merchants = append(merchants, tx.MerchantNormalized)
		}
	}

	match := m.matcher.MatchBatch(merchants, roster)

	for _, tx := range transactions {
		partner, ok := match.Exact[tx.MerchantNormalized]
		if !ok {
			continue
		}
		if m.resolver.IsEligible(tx.Date, partner) {
			tx.PartnerID = partner.ID
		}
	}

	return match
}

func (m *Manager) buildUpload(month string, transactions []*models.Transaction, opts IngestOptions) *models.Upload {
	upload := &models.Upload{
		Month:             month,
		Filename:          opts.Filename,
		UploadedBy:        opts.UploadedBy,
		TotalTransactions: len(transactions),
	}

	for _, tx := range transactions {
		upload.TotalSpend += tx.Amount
		if tx.PartnerID != "" {
			upload.MatchedCount++
		} else {
			upload.UnmatchedCount++
		}
	}

	return upload
}

// persistBatches writes transactions to the store in sequential fixed-size
// batches with a pause between requests. A failed batch aborts the run;
// earlier batches stay committed and the count is reported.
func (m *Manager) persistBatches(ctx context.Context, transactions []*models.Transaction, log logger.Logger) (int, error) {
	committed := 0

	for start := 0; start < len(transactions); start += m.config.BatchSize {
		end := start + m.config.BatchSize
		if end > len(transactions) {
			end = len(transactions)
		}

		if start > 0 && m.config.BatchDelay > 0 {
			m.sleep(m.config.BatchDelay)
		}

		if err := m.store.CreateTransactions(ctx, transactions[start:end]); err != nil {
			return committed, errors.Wrap(err, errors.CategoryStore, errors.CodeBatchAborted,
				fmt.Sprintf("batch persistence aborted after %d of %d rows", committed, len(transactions))).
				WithSuggestion("earlier batches are committed; retry to persist the remaining rows").
				WithContext("committed_rows", committed)
		}
		committed = end

		log.WithFields(logger.Fields{
			"batch_start": start,
			"batch_end":   end,
			"committed":   committed,
		}).Debug("Persisted transaction batch")
	}

	return committed, nil
}

// ConfirmProposal applies a confirmed fuzzy match: the suggested alias is
// appended to the partner's alias list and the merchant's eligible
// transactions are attributed to the partner. Returns how many transactions
// were assigned.
func (m *Manager) ConfirmProposal(ctx context.Context, proposal *matcher.Proposal, transactions []*models.Transaction) (int, error) {
	if err := proposal.Confirm(); err != nil {
		return 0, err
	}

	partner := proposal.Partner
	if !hasAlias(partner.Aliases, proposal.SuggestedAlias) {
		aliases := append(append([]string{}, partner.Aliases...), proposal.SuggestedAlias)
		if err := m.store.UpdatePartnerAliases(ctx, partner.ID, aliases); err != nil {
			return 0, err
		}
		partner.Aliases = aliases
	}

	assigned := 0
	for _, tx := range transactions {
		if tx.MerchantNormalized != proposal.Merchant || tx.PartnerID != "" {
			continue
		}
		if !m.resolver.IsEligible(tx.Date, partner) {
			continue
		}
		if err := m.store.AssignPartner(ctx, tx.ID, partner.ID); err != nil {
			return assigned, err
		}
		tx.PartnerID = partner.ID
		assigned++
	}

	m.logger.WithFields(logger.Fields{
		"merchant": proposal.Merchant,
		"partner":  partner.Name,
		"assigned": assigned,
	}).Info("Confirmed match proposal")

	return assigned, nil
}

// DismissProposal rejects a pending proposal. The merchant stays in the
// discovery list and nothing is persisted.
func (m *Manager) DismissProposal(proposal *matcher.Proposal) error {
	return proposal.Dismiss()
}

func hasAlias(aliases []string, candidate string) bool {
	for _, alias := range aliases {
		if alias == candidate {
			return true
		}
	}
	return false
}
