package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/infra"
)

// ErrMissingSecretKey indicates that the client was configured without credentials.
var ErrMissingSecretKey = errors.New("paystack: secret key is required")

// Options configures the Paystack API client.
type Options struct {
	SecretKey      string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Paystack transaction API.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Transaction is the normalized verification result from the provider.
type Transaction struct {
	Status    string
	Reference string
	Amount    int64
	Currency  string
}

// Success reports whether the provider confirmed the transaction.
func (t Transaction) Success() bool {
	return t.Status == "success"
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		secretKey:  strings.TrimSpace(opts.SecretKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.secretKey != ""
}

// VerifyTransaction fetches the provider's view of the transaction with the
// given reference. The call is read-only on the provider side and safe to
// repeat for the same reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingSecretKey
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New("paystack: reference is required")
	}

	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("paystack: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paystack: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var decoded verifyResponse
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
			return nil, fmt.Errorf("paystack: %s (status %d)", decoded.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("paystack: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded verifyResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("paystack: decode response: %w", err)
	}
	if decoded.Data == nil {
		return nil, fmt.Errorf("paystack: empty data in response: %s", decoded.Message)
	}

	c.logger.Debug().
		Str("reference", reference).
		Str("status", decoded.Data.Status).
		Msg("paystack: verified transaction")
	return &Transaction{
		Status:    decoded.Data.Status,
		Reference: decoded.Data.Reference,
		Amount:    decoded.Data.Amount,
		Currency:  decoded.Data.Currency,
	}, nil
}
