package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"clanledger/internal/models"
	"clanledger/internal/repository"
	"clanledger/internal/service"

	"github.com/shopspring/decimal"
)

// PaymentHandler serves the two payment paths: member self-checkout
// against the card gateway, and treasurer logging of offline payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// StartCheckout starts a payment for the member's own obligation. The
// mobile method redirects to the card gateway; cash and bank email the
// banking details and send the member back with instructions.
func (h *PaymentHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid contribution ID", http.StatusBadRequest)
		return
	}

	raw := r.FormValue("method")
	if raw == "" {
		raw = string(models.MethodMobile)
	}
	method, err := models.ParsePaymentMethod(raw)
	if err != nil {
		http.Error(w, "Unknown payment method", http.StatusBadRequest)
		return
	}

	redirectURL, err := h.paymentService.Checkout(r.Context(), account, id, method)
	if err != nil {
		if errors.Is(err, service.ErrGatewayDisabled) ||
			errors.Is(err, service.ErrObligationSettled) ||
			errors.Is(err, service.ErrObligationInFlight) {
			http.Redirect(w, r, "/contributions/mine?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}
		respondWithError(w, statusForServiceError(err), "Failed to start payment", err)
		return
	}

	if redirectURL == "" {
		http.Redirect(w, r, "/contributions/mine?checkout=instructions", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// gatewayCallback is the webhook payload posted by the payment gateway
// when a checkout concludes.
type gatewayCallback struct {
	CheckoutID string `json:"checkoutId"`
	Status     string `json:"status"`
	Signature  string `json:"signature"`
}

// GatewayWebhook receives the gateway's outcome callback. The endpoint
// is unauthenticated; trust comes from the HMAC signature alone.
func (h *PaymentHandler) GatewayWebhook(w http.ResponseWriter, r *http.Request) {
	var payload gatewayCallback
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if payload.CheckoutID == "" || payload.Status == "" || payload.Signature == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	err := h.paymentService.HandleGatewayCallback(payload.CheckoutID, payload.Status, payload.Signature)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, service.ErrInvalidSignature):
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
	case errors.Is(err, repository.ErrCheckoutNotFound):
		http.Error(w, "Unknown checkout", http.StatusNotFound)
	default:
		slog.Error("gateway webhook failed", "checkout_id", payload.CheckoutID, "error", err)
		http.Error(w, "Processing failed", http.StatusInternalServerError)
	}
}

// LogPayment records an offline payment on behalf of the treasurer.
func (h *PaymentHandler) LogPayment(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid contribution ID", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(r.FormValue("amount"))
	if err != nil {
		http.Error(w, "Invalid amount", http.StatusBadRequest)
		return
	}

	method, err := models.ParsePaymentMethod(r.FormValue("method"))
	if err != nil {
		http.Error(w, "Unknown payment method", http.StatusBadRequest)
		return
	}

	payment, err := h.paymentService.LogPayment(account, id, amount, method)
	if err != nil {
		target := r.FormValue("return_to")
		if target == "" {
			target = "/contributions"
		}
		http.Redirect(w, r, target+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	slog.Info("payment logged", "payment_id", payment.ID, "obligation_id", id, "by", account.ID)
	target := r.FormValue("return_to")
	if target == "" {
		target = "/contributions"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// VerifyDeclaredPayment settles a declared offline payment after the
// treasurer has checked the statement: outcome "received" confirms it,
// anything else fails it and reopens the obligation.
func (h *PaymentHandler) VerifyDeclaredPayment(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid contribution ID", http.StatusBadRequest)
		return
	}

	received := r.FormValue("outcome") == "received"
	obligation, err := h.paymentService.VerifyDeclaredPayment(account, id, received)

	target := r.FormValue("return_to")
	if target == "" {
		target = "/contributions"
	}
	if err != nil {
		http.Redirect(w, r, target+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	slog.Info("declared payment verified",
		"obligation_id", id, "received", received, "status", obligation.Status, "by", account.ID)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// CancelObligation voids an obligation. Settled obligations cannot be
// cancelled.
func (h *PaymentHandler) CancelObligation(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid contribution ID", http.StatusBadRequest)
		return
	}

	if err := h.paymentService.CancelObligation(account, id); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to cancel contribution", err)
		return
	}

	target := r.FormValue("return_to")
	if target == "" {
		target = "/contributions"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
