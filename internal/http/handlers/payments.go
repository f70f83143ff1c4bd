package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/middleware"
)

type createPaymentRequest struct {
	Email    string `json:"email"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createPaymentResponse struct {
	Reference string `json:"reference"`
}

type verifyPaymentRequest struct {
	Reference string `json:"reference"`
}

type verifyPaymentResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// currencyForCountry defaults the charge currency from the caller's detected
// country. Paystack settles a small set of African currencies; everything
// else falls back to NGN.
func currencyForCountry(country string) string {
	switch strings.ToUpper(country) {
	case "GH":
		return "GHS"
	case "ZA":
		return "ZAR"
	case "KE":
		return "KES"
	default:
		return "NGN"
	}
}

func (a *App) PaymentsCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	if !a.Paystack.HasCredentials() {
		a.Logger.Error().Msg("payment intent requested but PAYSTACK_SECRET_KEY not set")
		a.error(w, http.StatusServiceUnavailable, "failed_precondition", "payment system not configured")
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "invalid payload")
		return
	}
	if req.Email == "" || req.Amount <= 0 {
		a.error(w, http.StatusBadRequest, "invalid_argument", "email and amount are required")
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = currencyForCountry(middleware.CountryFromContext(r.Context()))
	}

	now := a.now()
	payment := &domain.Payment{
		Reference: fmt.Sprintf("reading_tracker_%s_%d", id.UserID, now.UnixMilli()),
		UserID:    id.UserID,
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    domain.PaymentPending,
		Provider:  "paystack",
		CreatedAt: now,
	}

	ctx, cancel := a.opCtx(r)
	defer cancel()
	if err := a.Payments.Create(ctx, payment); err != nil {
		a.domainError(w, r, err)
		return
	}

	a.Logger.Info().
		Str("reference", payment.Reference).
		Str("user_id", id.UserID).
		Msg("payment intent created")
	a.json(w, http.StatusCreated, createPaymentResponse{Reference: payment.Reference})
}

func (a *App) PaymentsVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	if !a.Paystack.HasCredentials() {
		a.Logger.Error().Msg("payment verify requested but PAYSTACK_SECRET_KEY not set")
		a.error(w, http.StatusServiceUnavailable, "failed_precondition", "payment system not configured")
		return
	}

	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "invalid payload")
		return
	}
	if req.Reference == "" {
		a.error(w, http.StatusBadRequest, "invalid_argument", "reference is required")
		return
	}

	ctx, cancel := a.opCtx(r)
	defer cancel()

	payment, err := a.Payments.GetByReference(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "payment not found")
			return
		}
		a.domainError(w, r, err)
		return
	}
	if payment.UserID != id.UserID {
		a.error(w, http.StatusForbidden, "not_owner", "payment does not belong to user")
		return
	}
	// A reference already confirmed returns its recorded result; retried
	// verifications must not fail or re-hit the provider.
	if payment.Verified() {
		a.json(w, http.StatusOK, verifyPaymentResponse{Amount: payment.Amount, Currency: payment.Currency})
		return
	}

	tx, err := a.Paystack.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		a.Logger.Error().Err(err).Str("reference", req.Reference).Msg("provider verification failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to verify payment with provider")
		return
	}
	if !tx.Success() {
		a.Logger.Warn().
			Str("reference", req.Reference).
			Str("provider_status", tx.Status).
			Msg("payment not successful")
		a.error(w, http.StatusUnprocessableEntity, "verification_failed", "payment verification failed")
		return
	}

	now := a.now()
	if err := a.Payments.MarkVerified(ctx, req.Reference, tx.Reference, tx.Amount, tx.Currency, now); err != nil {
		a.domainError(w, r, err)
		return
	}
	if err := a.Users.MarkPaid(ctx, id.UserID, payment.Email, req.Reference, now); err != nil {
		a.domainError(w, r, err)
		return
	}

	a.Logger.Info().
		Str("reference", req.Reference).
		Str("user_id", id.UserID).
		Msg("payment verified")
	a.json(w, http.StatusOK, verifyPaymentResponse{Amount: tx.Amount, Currency: tx.Currency})
}
