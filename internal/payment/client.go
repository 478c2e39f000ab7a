package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stocksage/internal/model"
)

// Client talks to the external payment processor. Only the outbound calls
// live here; webhook handling belongs to the HTTP layer.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	tokens       *TokenCache
}

func NewClient(baseURL, clientID, clientSecret string, tokens *TokenCache) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		tokens:       tokens,
	}
}

type tokenReply struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type checkoutReply struct {
	URL string `json:"url"`
}

// CreateCheckout registers the invoice with the processor and returns the
// hosted payment page URL.
func (p *Client) CreateCheckout(ctx context.Context, invoice *model.Invoice) (string, error) {
	token, err := p.tokens.Get(func() (string, time.Duration, error) {
		return p.fetchToken(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("failed to obtain processor token: %w", err)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"reference":      invoice.InvoiceNumber,
		"amount":         invoice.TotalAmount.String(),
		"currency":       "USD",
		"customer_email": invoice.CustomerEmail,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/checkouts", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		p.tokens.Invalidate()
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("processor returned status %d", resp.StatusCode)
	}

	var reply checkoutReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("failed to decode checkout response: %w", err)
	}
	return reply.URL, nil
}

func (p *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	payload, _ := json.Marshal(map[string]string{
		"client_id":     p.clientID,
		"client_secret": p.clientSecret,
		"grant_type":    "client_credentials",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var reply tokenReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", 0, err
	}
	return reply.AccessToken, time.Duration(reply.ExpiresIn) * time.Second, nil
}
