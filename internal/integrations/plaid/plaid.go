// Package plaid integrates with the Plaid transfer API: recurring ACH
// debits, sandbox test clocks, and ledger distributions.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/passion-dev-group/guardian/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles integration with the Plaid transfer API
type Client struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
	log      *logrus.Logger
}

// NewClient initializes a new Plaid client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL:  cfg.PlaidBaseURL,
		clientID: cfg.PlaidClientID,
		secret:   cfg.PlaidSecret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// post sends a JSON request to the given API path and decodes the response
// into out.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", c.clientID)
	req.Header.Set("PLAID-SECRET", c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Log the raw response for debugging
	c.log.Debugf("Plaid %s response: %s", path, string(raw))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreateRecurringTransfer registers a recurring ACH debit.
func (c *Client) CreateRecurringTransfer(ctx context.Context, req RecurringTransferRequest) (*RecurringTransfer, error) {
	if req.Type == "" {
		req.Type = "debit"
	}
	if req.Network == "" {
		req.Network = "ach"
	}

	var out struct {
		RecurringTransfer RecurringTransfer `json:"recurring_transfer"`
	}
	if err := c.post(ctx, "/transfer/recurring/create", req, &out); err != nil {
		return nil, err
	}

	c.log.Infof("Created recurring transfer %s", out.RecurringTransfer.RecurringTransferID)
	return &out.RecurringTransfer, nil
}

// GetRecurringTransfer fetches a recurring transfer by id.
func (c *Client) GetRecurringTransfer(ctx context.Context, id string) (*RecurringTransfer, error) {
	payload := map[string]string{"recurring_transfer_id": id}
	var out struct {
		RecurringTransfer RecurringTransfer `json:"recurring_transfer"`
	}
	if err := c.post(ctx, "/transfer/recurring/get", payload, &out); err != nil {
		return nil, err
	}
	return &out.RecurringTransfer, nil
}

// CancelRecurringTransfer cancels a recurring transfer. No further debits
// originate after a successful cancel.
func (c *Client) CancelRecurringTransfer(ctx context.Context, id string) error {
	payload := map[string]string{"recurring_transfer_id": id}
	if err := c.post(ctx, "/transfer/recurring/cancel", payload, nil); err != nil {
		return err
	}
	c.log.Infof("Cancelled recurring transfer %s", id)
	return nil
}

// CreateTestClock creates a sandbox virtual clock anchored at the given time.
func (c *Client) CreateTestClock(ctx context.Context, virtualTime time.Time) (*TestClock, error) {
	payload := map[string]string{"virtual_time": virtualTime.Format(time.RFC3339)}
	var out struct {
		TestClock TestClock `json:"test_clock"`
	}
	if err := c.post(ctx, "/sandbox/transfer/test_clock/create", payload, &out); err != nil {
		return nil, err
	}

	c.log.Infof("Created test clock %s at %s", out.TestClock.TestClockID, out.TestClock.VirtualTime)
	return &out.TestClock, nil
}

// GetTestClock fetches a sandbox clock's current virtual time.
func (c *Client) GetTestClock(ctx context.Context, id string) (*TestClock, error) {
	payload := map[string]string{"test_clock_id": id}
	var out struct {
		TestClock TestClock `json:"test_clock"`
	}
	if err := c.post(ctx, "/sandbox/transfer/test_clock/get", payload, &out); err != nil {
		return nil, err
	}
	return &out.TestClock, nil
}

// AdvanceTestClock moves a sandbox clock forward to the given virtual time,
// triggering any transfers scheduled before it.
func (c *Client) AdvanceTestClock(ctx context.Context, id string, to time.Time) error {
	payload := map[string]string{
		"test_clock_id": id,
		"new_virtual_time": to.Format(time.RFC3339),
	}
	if err := c.post(ctx, "/sandbox/transfer/test_clock/advance", payload, nil); err != nil {
		return err
	}
	c.log.Infof("Advanced test clock %s to %s", id, to.Format(time.RFC3339))
	return nil
}

// GetTransfer fetches a single transfer by id.
func (c *Client) GetTransfer(ctx context.Context, id string) (*Transfer, error) {
	payload := map[string]string{"transfer_id": id}
	var out struct {
		Transfer Transfer `json:"transfer"`
	}
	if err := c.post(ctx, "/transfer/get", payload, &out); err != nil {
		return nil, err
	}
	return &out.Transfer, nil
}

// DistributeLedger moves funds collected by the given source transfers to the
// destination account.
func (c *Client) DistributeLedger(ctx context.Context, req DistributeRequest) (*Distribution, error) {
	var out struct {
		Transfer Distribution `json:"transfer"`
	}
	if err := c.post(ctx, "/transfer/ledger/distribute", req, &out); err != nil {
		return nil, err
	}

	c.log.Infof("Distributed ledger funds, transfer %s", out.Transfer.TransferID)
	return &out.Transfer, nil
}
