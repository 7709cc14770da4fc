/*
 * @module client/pennylane_client
 * @description Thin authenticated wrapper over the Pennylane external REST API
 * @architecture adapter - translates method calls into REST requests
 * @documentReference dev_docs/pennylane_api.md
 * @stateFlow build request -> send -> normalize error or return parsed JSON
 * @rules single attempt per call, fixed 30s timeout, retry policy belongs to the caller
 * @dependencies net/http, encoding/json, service/config
 * @refs service/syncer
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://app.pennylane.com/api/external/v1"

	endpointCustomers   = "/individual-customers"
	endpointProducts    = "/products"
	endpointInvoices    = "/customer-invoices"
	endpointUserProfile = "/user-profile"
)

// CredentialSource provides the API key at call time, so a key updated through
// the settings API takes effect without restarting the service.
type CredentialSource interface {
	APIKey() string
	DebugMode() bool
}

// Client is the Pennylane REST API client.
type Client struct {
	baseURL     string
	credentials CredentialSource
	httpClient  *http.Client
}

// NewClient creates a Pennylane client. The base URL can be overridden with
// PENNYLANE_API_URL (used by the sandbox environment and tests).
func NewClient(credentials CredentialSource) *Client {
	baseURL := defaultBaseURL
	if envURL := os.Getenv("PENNYLANE_API_URL"); envURL != "" {
		baseURL = envURL
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL overrides the API base URL (used by tests).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Request performs one API call and returns the parsed JSON body.
// Fails with ErrMissingCredential, *TransportError or *APIError.
func (c *Client) Request(ctx context.Context, method, endpoint string, body interface{}) (json.RawMessage, error) {
	apiKey := c.credentials.APIKey()
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.credentials.DebugMode() {
		slog.Debug("pennylane API request", "method", method, "endpoint", endpoint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(raw),
		}
	}

	return json.RawMessage(raw), nil
}

// extractErrorMessage pulls a human-readable message out of an error body,
// checking the fields the API is known to use before falling back to raw text.
func extractErrorMessage(raw []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		for _, field := range []string{"message", "error", "detail"} {
			if msg, ok := parsed[field].(string); ok && msg != "" {
				return msg
			}
		}
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "unknown error"
	}
	return text
}

// RemoteRecord is the subset of a remote resource the sync engine cares about.
type RemoteRecord struct {
	ID                RecordID `json:"id"`
	ExternalReference string   `json:"external_reference"`
}

// RecordID is a remote record identifier. The API serves ids as JSON numbers
// on some resources, strings on others, and null before assignment; all three
// decode into the string form.
type RecordID string

// UnmarshalJSON accepts string, number and null id values.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("remote id is neither a string nor a number: %s", data)
	}
	*id = RecordID(n)
	return nil
}

// RemoteID returns the remote identifier as a string.
func (r *RemoteRecord) RemoteID() string {
	return string(r.ID)
}

// ValidateCredential calls the user-profile endpoint to check the configured key.
func (c *Client) ValidateCredential(ctx context.Context) error {
	_, err := c.Request(ctx, http.MethodGet, endpointUserProfile, nil)
	return err
}

// FindCustomerByExternalReference looks up an individual customer.
// Returns nil when no remote counterpart exists.
func (c *Client) FindCustomerByExternalReference(ctx context.Context, ref string) (*RemoteRecord, error) {
	return c.findByExternalReference(ctx, endpointCustomers, "individual_customers", ref)
}

// CreateCustomer creates an individual customer and returns the new record.
func (c *Client) CreateCustomer(ctx context.Context, payload interface{}) (*RemoteRecord, error) {
	return c.create(ctx, endpointCustomers, "individual_customer", payload)
}

// UpdateCustomer updates an existing individual customer.
func (c *Client) UpdateCustomer(ctx context.Context, remoteID string, payload interface{}) error {
	return c.update(ctx, endpointCustomers, remoteID, payload)
}

// FindProductByExternalReference looks up a product.
// Returns nil when no remote counterpart exists.
func (c *Client) FindProductByExternalReference(ctx context.Context, ref string) (*RemoteRecord, error) {
	return c.findByExternalReference(ctx, endpointProducts, "products", ref)
}

// CreateProduct creates a product and returns the new record.
func (c *Client) CreateProduct(ctx context.Context, payload interface{}) (*RemoteRecord, error) {
	return c.create(ctx, endpointProducts, "product", payload)
}

// UpdateProduct updates an existing product.
func (c *Client) UpdateProduct(ctx context.Context, remoteID string, payload interface{}) error {
	return c.update(ctx, endpointProducts, remoteID, payload)
}

// FindInvoiceByExternalReference looks up a customer invoice.
// Returns nil when no remote counterpart exists.
func (c *Client) FindInvoiceByExternalReference(ctx context.Context, ref string) (*RemoteRecord, error) {
	return c.findByExternalReference(ctx, endpointInvoices, "invoices", ref)
}

// CreateInvoice creates a customer invoice and returns the new record.
func (c *Client) CreateInvoice(ctx context.Context, payload interface{}) (*RemoteRecord, error) {
	return c.create(ctx, endpointInvoices, "invoice", payload)
}

// UpdateInvoice updates an existing customer invoice.
func (c *Client) UpdateInvoice(ctx context.Context, remoteID string, payload interface{}) error {
	return c.update(ctx, endpointInvoices, remoteID, payload)
}

// findByExternalReference queries a collection endpoint filtered on the
// deterministic external reference. When the remote returns several candidates
// the first one is taken.
func (c *Client) findByExternalReference(ctx context.Context, endpoint, listKey, ref string) (*RemoteRecord, error) {
	query := url.Values{}
	query.Set("external_reference", ref)

	raw, err := c.Request(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	records, err := parseRecordList(raw, listKey)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > 1 {
		slog.Warn("multiple remote records share an external reference, taking the first",
			"endpoint", endpoint, "external_reference", ref, "count", len(records))
	}
	return &records[0], nil
}

func (c *Client) create(ctx context.Context, endpoint, wrapperKey string, payload interface{}) (*RemoteRecord, error) {
	raw, err := c.Request(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return parseRecord(raw, wrapperKey)
}

func (c *Client) update(ctx context.Context, endpoint, remoteID string, payload interface{}) error {
	_, err := c.Request(ctx, http.MethodPut, endpoint+"/"+url.PathEscape(remoteID), payload)
	return err
}

// parseRecordList accepts either a bare JSON array or an object wrapping the
// array under listKey, which is how the collection endpoints answer.
func parseRecordList(raw json.RawMessage, listKey string) ([]RemoteRecord, error) {
	var records []RemoteRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("parse lookup response: %w", err)
	}
	if inner, ok := wrapped[listKey]; ok {
		if err := json.Unmarshal(inner, &records); err != nil {
			return nil, fmt.Errorf("parse lookup response: %w", err)
		}
	}
	return records, nil
}

// parseRecord accepts either a bare record or one wrapped under wrapperKey.
func parseRecord(raw json.RawMessage, wrapperKey string) (*RemoteRecord, error) {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("parse create response: %w", err)
	}
	if inner, ok := wrapped[wrapperKey]; ok {
		var record RemoteRecord
		if err := json.Unmarshal(inner, &record); err != nil {
			return nil, fmt.Errorf("parse create response: %w", err)
		}
		return &record, nil
	}

	var record RemoteRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("parse create response: %w", err)
	}
	return &record, nil
}
