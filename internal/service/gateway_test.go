package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestVerifySignature(t *testing.T) {
	g := NewGatewayClient("pk_test", "sk_secret", "https://gateway.example/checkouts")

	signature := g.Sign("tx_123", "success")

	if !g.VerifySignature("tx_123", "success", signature) {
		t.Error("valid signature rejected")
	}
	if g.VerifySignature("tx_123", "failed", signature) {
		t.Error("signature accepted for a different status")
	}
	if g.VerifySignature("tx_999", "success", signature) {
		t.Error("signature accepted for a different transaction")
	}
	if g.VerifySignature("tx_123", "success", signature+"00") {
		t.Error("tampered signature accepted")
	}
}

func TestSignDiffersAcrossSecrets(t *testing.T) {
	a := NewGatewayClient("pk", "secret-a", "")
	b := NewGatewayClient("pk", "secret-b", "")
	if a.Sign("tx_1", "success") == b.Sign("tx_1", "success") {
		t.Error("different secrets produced the same signature")
	}
}

func TestCreateCheckoutConvertsToCents(t *testing.T) {
	var captured struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode checkout payload: %v", err)
		}
		json.NewEncoder(w).Encode(Checkout{ID: "ch_1", RedirectURL: "https://gateway.example/pay/ch_1"})
	}))
	defer server.Close()

	g := NewGatewayClient("pk_test", "sk_secret", server.URL)
	checkout, err := g.CreateCheckout(context.Background(), decimal.RequireFromString("150.50"),
		"MC-REF", "https://app/success", "https://app/cancel", "https://app/fail")
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}
	if checkout.ID != "ch_1" {
		t.Errorf("checkout ID = %q, want ch_1", checkout.ID)
	}
	if captured.Amount != 15050 {
		t.Errorf("amount = %d cents, want 15050", captured.Amount)
	}
	if captured.Currency != "ZAR" {
		t.Errorf("currency = %q, want ZAR", captured.Currency)
	}
}

func TestCreateCheckoutDisabled(t *testing.T) {
	g := NewGatewayClient("", "", "")
	_, err := g.CreateCheckout(context.Background(), decimal.NewFromInt(100), "ref", "", "", "")
	if err != ErrGatewayDisabled {
		t.Fatalf("error = %v, want ErrGatewayDisabled", err)
	}
}
