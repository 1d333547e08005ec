package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"matka/service"
)

// CreditRequest is the payload sent to the external wallet's credit endpoint
type CreditRequest struct {
	UserID    int64  `json:"user_id"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

// Client talks to an external wallet over HTTP. The wallet is expected to
// de-duplicate credits on the reference, so the caller may safely retry.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a remote wallet service client
func NewClient(baseURL string) service.WalletService {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Credit asks the external wallet to add winnings to a user's balance
func (c *Client) Credit(ctx context.Context, userID int64, amount int64, reference string) error {
	body, err := json.Marshal(CreditRequest{UserID: userID, Amount: amount, Reference: reference})
	if err != nil {
		return fmt.Errorf("failed to marshal credit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wallet/credit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build credit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wallet credit request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet credit returned http %d", res.StatusCode)
	}
	return nil
}
