package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/providers/paystack"
)

type paystackStub struct {
	server *httptest.Server
	calls  atomic.Int64
	status string
}

func newPaystackStub(t *testing.T) *paystackStub {
	t.Helper()
	stub := &paystackStub{status: "success"}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		reference := strings.TrimPrefix(r.URL.Path, "/transaction/verify/")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]any{
				"status":    stub.status,
				"reference": reference,
				"amount":    500000,
				"currency":  "NGN",
			},
		})
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *paystackStub) client() *paystack.Client {
	return paystack.NewClient(paystack.Options{
		SecretKey: "sk_test_abc",
		BaseURL:   s.server.URL,
	})
}

func seedPayment(t *testing.T, f *fixture, reference, userID string) {
	t.Helper()
	err := f.payments.Create(context.Background(), &domain.Payment{
		Reference: reference,
		UserID:    userID,
		Email:     "jane.doe@example.com",
		Amount:    500000,
		Currency:  "NGN",
		Status:    domain.PaymentPending,
		Provider:  "paystack",
		CreatedAt: f.clock.Now(),
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}

func TestPaymentsCreateReturnsReference(t *testing.T) {
	f := newFixture(t, newPaystackStub(t).client())

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments", createPaymentRequest{
		Email:  readerIdentity.Email,
		Amount: 500000,
	})
	wantStatus(t, rr, http.StatusCreated)

	var resp createPaymentResponse
	decodeBody(t, rr, &resp)
	if !strings.HasPrefix(resp.Reference, "reading_tracker_"+readerIdentity.UserID+"_") {
		t.Fatalf("reference = %q, want reading_tracker prefix with user id", resp.Reference)
	}

	stored, err := f.payments.GetByReference(context.Background(), resp.Reference)
	if err != nil {
		t.Fatalf("GetByReference() error: %v", err)
	}
	if stored.Currency != "NGN" {
		t.Fatalf("currency = %q, want default NGN", stored.Currency)
	}
	if stored.Status != domain.PaymentPending {
		t.Fatalf("status = %q, want pending", stored.Status)
	}
}

func TestPaymentsCreateUsesDetectedCountryCurrency(t *testing.T) {
	f := newFixture(t, newPaystackStub(t).client())

	req := httptest.NewRequest(http.MethodPost, "/v1/payments", strings.NewReader(`{"email":"jane.doe@example.com","amount":500000}`))
	ctx := middleware.ContextWithIdentity(req.Context(), readerIdentity)
	ctx = middleware.ContextWithCountry(ctx, "GH")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req.WithContext(ctx))
	wantStatus(t, rr, http.StatusCreated)

	var resp createPaymentResponse
	decodeBody(t, rr, &resp)
	stored, err := f.payments.GetByReference(context.Background(), resp.Reference)
	if err != nil {
		t.Fatalf("GetByReference() error: %v", err)
	}
	if stored.Currency != "GHS" {
		t.Fatalf("currency = %q, want GHS for GH traffic", stored.Currency)
	}
}

func TestPaymentsCreateRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t, newPaystackStub(t).client())

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments", createPaymentRequest{Amount: 0})
	wantStatus(t, rr, http.StatusBadRequest)
	wantErrorCode(t, rr, "invalid_argument")
}

func TestPaymentsUnavailableWithoutCredentials(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments", createPaymentRequest{
		Email:  readerIdentity.Email,
		Amount: 500000,
	})
	wantStatus(t, rr, http.StatusServiceUnavailable)
	wantErrorCode(t, rr, "failed_precondition")
}

func TestPaymentsVerifySuccessMarksUserPaid(t *testing.T) {
	stub := newPaystackStub(t)
	f := newFixture(t, stub.client())
	f.users.Put(domain.User{ID: readerIdentity.UserID, Email: readerIdentity.Email})
	seedPayment(t, f, "ref-123", readerIdentity.UserID)

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments/verify", verifyPaymentRequest{Reference: "ref-123"})
	wantStatus(t, rr, http.StatusOK)

	var resp verifyPaymentResponse
	decodeBody(t, rr, &resp)
	if resp.Amount != 500000 || resp.Currency != "NGN" {
		t.Fatalf("response = %+v, want amount 500000 NGN", resp)
	}

	payment, err := f.payments.GetByReference(context.Background(), "ref-123")
	if err != nil {
		t.Fatalf("GetByReference() error: %v", err)
	}
	if !payment.Verified() {
		t.Fatalf("payment not marked verified")
	}
	u, err := f.users.GetByID(context.Background(), readerIdentity.UserID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !u.PaymentStatus {
		t.Fatalf("user payment_status = false after verification")
	}
}

func TestPaymentsVerifyBeforeFirstSession(t *testing.T) {
	// A reader can pay before ever starting a session, so no users row
	// exists yet; verification must create it rather than 404.
	stub := newPaystackStub(t)
	f := newFixture(t, stub.client())
	seedPayment(t, f, "ref-123", readerIdentity.UserID)

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments/verify", verifyPaymentRequest{Reference: "ref-123"})
	wantStatus(t, rr, http.StatusOK)

	u, err := f.users.GetByID(context.Background(), readerIdentity.UserID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !u.PaymentStatus {
		t.Fatalf("user payment_status = false after verification")
	}
	if u.Email != "jane.doe@example.com" {
		t.Fatalf("created user email = %q, want the payer's email", u.Email)
	}
	payment, err := f.payments.GetByReference(context.Background(), "ref-123")
	if err != nil {
		t.Fatalf("GetByReference() error: %v", err)
	}
	if !payment.Verified() {
		t.Fatalf("payment not marked verified")
	}
}

func TestPaymentsVerifyIsIdempotent(t *testing.T) {
	stub := newPaystackStub(t)
	f := newFixture(t, stub.client())
	f.users.Put(domain.User{ID: readerIdentity.UserID, Email: readerIdentity.Email})
	seedPayment(t, f, "ref-123", readerIdentity.UserID)

	wantStatus(t, f.do(t, readerIdentity, http.MethodPost, "/v1/payments/verify", verifyPaymentRequest{Reference: "ref-123"}), http.StatusOK)
	wantStatus(t, f.do(t, readerIdentity, http.MethodPost, "/v1/payments/verify", verifyPaymentRequest{Reference: "ref-123"}), http.StatusOK)

	if got := stub.calls.Load(); got != 1 {
		t.Fatalf("provider calls = %d, want 1 (second verify must use the recorded result)", got)
	}
}

func TestPaymentsVerifyRejectsNonOwner(t *testing.T) {
	stub := newPaystackStub(t)
	f := newFixture(t, stub.client())
	seedPayment(t, f, "ref-123", "someone-else")

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments/verify", verifyPaymentRequest{Reference: "ref-123"})
	wantStatus(t, rr, http.StatusForbidden)
	wantErrorCode(t, rr, "not_owner")

	if got := stub.calls.Load(); got != 0 {
		t.Fatalf("provider calls = %d, want 0 for rejected verify", got)
	}
}

func TestPaymentsVerifyUnknownReference(t *testing.T) {
	f := newFixture(t, newPaystackStub(t).client())

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments/verify", verifyPaymentRequest{Reference: "ref-missing"})
	wantStatus(t, rr, http.StatusNotFound)
	wantErrorCode(t, rr, "not_found")
}

func TestPaymentsVerifyFailedTransaction(t *testing.T) {
	stub := newPaystackStub(t)
	stub.status = "abandoned"
	f := newFixture(t, stub.client())
	seedPayment(t, f, "ref-123", readerIdentity.UserID)

	rr := f.do(t, readerIdentity, http.MethodPost, "/v1/payments/verify", verifyPaymentRequest{Reference: "ref-123"})
	wantStatus(t, rr, http.StatusUnprocessableEntity)
	wantErrorCode(t, rr, "verification_failed")

	payment, err := f.payments.GetByReference(context.Background(), "ref-123")
	if err != nil {
		t.Fatalf("GetByReference() error: %v", err)
	}
	if payment.Verified() {
		t.Fatalf("failed transaction must not be marked verified")
	}
}
