// Package store is the edge to the external record database that holds the
// partner roster, uploads, and transactions. Everything above this package
// talks to the Store interface; the concrete implementation is an HTTP
// client against the record API.
package store

import (
	"context"

	"partner-revenue-service/internal/models"
)

// Store is the record database surface the service depends on.
//
// None of these operations are transactional; multi-step mutations such as
// a replacement cascade are sequenced by the caller and partial failure is
// surfaced, not rolled back.
type Store interface {
	// ListPartners returns the full partner roster in store order.
	ListPartners(ctx context.Context) ([]*models.Partner, error)

	// UpdatePartnerAliases replaces a partner's alias list.
	UpdatePartnerAliases(ctx context.Context, partnerID string, aliases []string) error

	// ListUploads returns all uploads, most recent month first.
	ListUploads(ctx context.Context) ([]*models.Upload, error)

	// FindUploadByMonth returns the upload for a "YYYY-MM" month key, or nil
	// when no upload exists for that month.
	FindUploadByMonth(ctx context.Context, month string) (*models.Upload, error)

	// CreateUpload persists a new upload record and returns it with its
	// store-assigned ID.
	CreateUpload(ctx context.Context, upload *models.Upload) (*models.Upload, error)

	// DeleteUpload removes an upload record. Its transactions must already
	// be gone; the store does not cascade.
	DeleteUpload(ctx context.Context, uploadID string) error

	// ListTransactions returns transactions for one upload, or for all
	// uploads when uploadID is empty.
	ListTransactions(ctx context.Context, uploadID string) ([]*models.Transaction, error)

	// CreateTransactions persists one batch of transactions.
	CreateTransactions(ctx context.Context, transactions []*models.Transaction) error

	// DeleteTransactionsByUpload removes all transactions belonging to an
	// upload and returns how many were deleted.
	DeleteTransactionsByUpload(ctx context.Context, uploadID string) (int, error)

	// AssignPartner sets the partner attribution on a transaction. An empty
	// partnerID clears the attribution.
	AssignPartner(ctx context.Context, transactionID, partnerID string) error

	// SetHidden flags or unflags a transaction as excluded from aggregation.
	SetHidden(ctx context.Context, transactionID string, hidden bool) error
}
