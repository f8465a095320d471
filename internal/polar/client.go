package polar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	productionBaseURL = "https://api.polar.sh/v1"
	sandboxBaseURL    = "https://sandbox-api.polar.sh/v1"
)

// Client talks to the Polar checkout API. Construction fails when the
// access token is missing so a misconfigured deployment dies at startup,
// not on the first purchase.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(accessToken, server string) (*Client, error) {
	if accessToken == "" {
		return nil, errors.New("polar access token is required")
	}

	baseURL := sandboxBaseURL
	if server == "production" {
		baseURL = productionBaseURL
	}

	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// CheckoutParams describes a checkout session to create. Metadata is
// round-tripped back to us on every webhook event for this purchase.
type CheckoutParams struct {
	Products      []string          `json:"products"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	SuccessURL    string            `json:"success_url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Checkout is the subset of Polar's checkout object the frontend needs.
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) CreateCheckout(ctx context.Context, params *CheckoutParams) (*Checkout, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkouts/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("polar returned %d: %s", resp.StatusCode, string(respBody))
	}

	var checkout Checkout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("failed to decode checkout response: %w", err)
	}

	return &checkout, nil
}
