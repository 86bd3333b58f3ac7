package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrGatewayDisabled is returned when online payments are attempted
// without gateway credentials configured.
var ErrGatewayDisabled = errors.New("online payments are not configured")

// Checkout is a created gateway checkout: the ID ties the eventual
// webhook back to an obligation, the redirect URL is where the member
// completes payment.
type Checkout struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
}

// GatewayClient talks to the card payment gateway's checkout API and
// verifies its webhook signatures.
type GatewayClient struct {
	publicKey   string
	secret      string
	checkoutURL string
	httpClient  *http.Client
	enabled     bool
}

// NewGatewayClient creates a gateway client. Missing credentials yield
// a disabled client; self-checkout then reports online payment as
// unavailable instead of failing requests outright.
func NewGatewayClient(publicKey, secret, checkoutURL string) *GatewayClient {
	if publicKey == "" || secret == "" {
		slog.Info("payment gateway disabled: credentials not configured")
		return &GatewayClient{enabled: false}
	}
	slog.Info("payment gateway enabled")
	return &GatewayClient{
		publicKey:   publicKey,
		secret:      secret,
		checkoutURL: checkoutURL,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		enabled:     true,
	}
}

// IsEnabled returns whether the gateway client is configured
func (g *GatewayClient) IsEnabled() bool {
	return g.enabled
}

// CreateCheckout registers a checkout with the gateway and returns the
// redirect for the member to complete payment. Amounts are rands; the
// gateway wants integer cents.
func (g *GatewayClient) CreateCheckout(ctx context.Context, amount decimal.Decimal, reference, successURL, cancelURL, failureURL string) (*Checkout, error) {
	if !g.enabled {
		return nil, ErrGatewayDisabled
	}

	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	payload := map[string]interface{}{
		"amount":     cents,
		"currency":   "ZAR",
		"metadata":   map[string]string{"reference": reference},
		"successUrl": successURL,
		"cancelUrl":  cancelURL,
		"failureUrl": failureURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.checkoutURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("checkout creation failed with status %d: %s", resp.StatusCode, detail)
	}

	var checkout Checkout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("failed to decode checkout response: %w", err)
	}
	if checkout.ID == "" || checkout.RedirectURL == "" {
		return nil, errors.New("gateway returned an incomplete checkout")
	}
	return &checkout, nil
}

// Sign computes the webhook signature for a transaction outcome:
// hex(HMAC-SHA256(secret, transactionID || status)).
func (g *GatewayClient) Sign(transactionID, status string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(transactionID + status))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func (g *GatewayClient) VerifySignature(transactionID, status, signature string) bool {
	expected := g.Sign(transactionID, status)
	return hmac.Equal([]byte(expected), []byte(signature))
}
