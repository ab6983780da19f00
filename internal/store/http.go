package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"partner-revenue-service/internal/models"
	"partner-revenue-service/pkg/errors"
	"partner-revenue-service/pkg/logger"
)

// HTTPConfig configures the HTTP record-store client.
type HTTPConfig struct {
	// BaseURL is the record API root, e.g. "https://records.example.com/api/v1".
	BaseURL string `json:"base_url"`

	// Token is the bearer token sent on every request.
	Token string `json:"-"`

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration `json:"timeout"`
}

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// Validate checks the client configuration.
func (c *HTTPConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if c.Token == "" {
		return fmt.Errorf("API token is required")
	}
	return nil
}

// HTTPStore implements Store against a REST record API with JSON bodies.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
	logger  logger.Logger
}

// NewHTTPStore creates an HTTP record-store client.
func NewHTTPStore(config *HTTPConfig) (*HTTPStore, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "store", config.BaseURL, err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &HTTPStore{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.GetGlobalLogger().WithComponent("store"),
	}, nil
}

// ListPartners implements Store.
func (s *HTTPStore) ListPartners(ctx context.Context) ([]*models.Partner, error) {
	var out struct {
		Partners []*models.Partner `json:"partners"`
	}
	if err := s.do(ctx, http.MethodGet, "/partners", nil, &out); err != nil {
		return nil, err
	}
	return out.Partners, nil
}

// UpdatePartnerAliases implements Store.
func (s *HTTPStore) UpdatePartnerAliases(ctx context.Context, partnerID string, aliases []string) error {
	body := map[string]interface{}{"aliases": aliases}
	return s.do(ctx, http.MethodPut, "/partners/"+url.PathEscape(partnerID)+"/aliases", body, nil)
}

// ListUploads implements Store.
func (s *HTTPStore) ListUploads(ctx context.Context) ([]*models.Upload, error) {
	var out struct {
		Uploads []*models.Upload `json:"uploads"`
	}
	if err := s.do(ctx, http.MethodGet, "/uploads", nil, &out); err != nil {
		return nil, err
	}
	return out.Uploads, nil
}

// FindUploadByMonth implements Store. A month with no upload returns
// (nil, nil) rather than an error, since absence is the common case.
func (s *HTTPStore) FindUploadByMonth(ctx context.Context, month string) (*models.Upload, error) {
	var out struct {
		Uploads []*models.Upload `json:"uploads"`
	}
	path := "/uploads?month=" + url.QueryEscape(month)
	if err := s.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Uploads) == 0 {
		return nil, nil
	}
	return out.Uploads[0], nil
}

// CreateUpload implements Store.
func (s *HTTPStore) CreateUpload(ctx context.Context, upload *models.Upload) (*models.Upload, error) {
	var out models.Upload
	if err := s.do(ctx, http.MethodPost, "/uploads", upload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUpload implements Store.
func (s *HTTPStore) DeleteUpload(ctx context.Context, uploadID string) error {
	return s.do(ctx, http.MethodDelete, "/uploads/"+url.PathEscape(uploadID), nil, nil)
}

// ListTransactions implements Store.
func (s *HTTPStore) ListTransactions(ctx context.Context, uploadID string) ([]*models.Transaction, error) {
	path := "/transactions"
	if uploadID != "" {
		path += "?upload_id=" + url.QueryEscape(uploadID)
	}

	var out struct {
		Transactions []*models.Transaction `json:"transactions"`
	}
	if err := s.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// CreateTransactions implements Store.
func (s *HTTPStore) CreateTransactions(ctx context.Context, transactions []*models.Transaction) error {
	body := map[string]interface{}{"transactions": transactions}
	return s.do(ctx, http.MethodPost, "/transactions", body, nil)
}

// DeleteTransactionsByUpload implements Store.
func (s *HTTPStore) DeleteTransactionsByUpload(ctx context.Context, uploadID string) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	path := "/transactions?upload_id=" + url.QueryEscape(uploadID)
	if err := s.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// AssignPartner implements Store.
func (s *HTTPStore) AssignPartner(ctx context.Context, transactionID, partnerID string) error {
	body := map[string]interface{}{"partner_id": partnerID}
	return s.do(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(transactionID)+"/partner", body, nil)
}

// SetHidden implements Store.
func (s *HTTPStore) SetHidden(ctx context.Context, transactionID string, hidden bool) error {
	body := map[string]interface{}{"is_hidden": hidden}
	return s.do(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(transactionID)+"/hidden", body, nil)
}

// do runs one JSON request against the record API. A non-nil out gets the
// decoded response body.
func (s *HTTPStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	operation := method + " " + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.InternalError(operation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return errors.InternalError(operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.StoreError(errors.CodeRequestFailed, operation, err)
	}
	defer resp.Body.Close()

	s.logger.WithFields(logger.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Record store request")

	if resp.StatusCode == http.StatusNotFound {
		return errors.StoreError(errors.CodeRecordNotFound, operation, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.StoreError(errors.CodeRequestFailed, operation, nil).
			WithContext("status", resp.StatusCode).
			WithContext("body", strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.StoreError(errors.CodeUnexpectedBody, operation, err)
	}
	return nil
}
