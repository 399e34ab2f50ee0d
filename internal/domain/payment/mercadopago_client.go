// internal/domain/payment/mercadopago_client.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// ErrPaymentNotFound is returned when the provider has no payment with the given id
var ErrPaymentNotFound = errors.New("payment not found at provider")

// Provider is the remote payment API the checkout depends on
type Provider interface {
	CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*ProviderPayment, error)
	GetMerchantOrder(ctx context.Context, merchantOrderID string) (*MerchantOrder, error)
}

// PreferenceItem is one line of a checkout preference
type PreferenceItem struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

// BackURLs are the provider redirect targets after checkout
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// Payer identifies who pays
type Payer struct {
	Email string `json:"email"`
}

// PreferenceRequest is the body of POST /checkout/preferences
type PreferenceRequest struct {
	Items               []PreferenceItem  `json:"items"`
	Payer               Payer             `json:"payer"`
	BackURLs            BackURLs          `json:"back_urls"`
	AutoReturn          string            `json:"auto_return,omitempty"`
	NotificationURL     string            `json:"notification_url,omitempty"`
	ExternalReference   string            `json:"external_reference"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// Preference is the created checkout preference
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// RedirectURL returns the checkout URL, falling back to the sandbox one
func (p *Preference) RedirectURL() string {
	if p.InitPoint != "" {
		return p.InitPoint
	}
	return p.SandboxInitPoint
}

// ProviderPayment is the authoritative payment as returned by GET /v1/payments/{id}
type ProviderPayment struct {
	ID                ExternalID             `json:"id"`
	Status            string                 `json:"status"`
	StatusDetail      string                 `json:"status_detail"`
	TransactionAmount float64                `json:"transaction_amount"`
	PaymentMethodID   string                 `json:"payment_method_id"`
	PaymentTypeID     string                 `json:"payment_type_id"`
	Payer             Payer                  `json:"payer"`
	ExternalReference string                 `json:"external_reference"`
	Metadata          map[string]interface{} `json:"metadata"`
	DateCreated       *time.Time             `json:"date_created"`
	DateApproved      *time.Time             `json:"date_approved"`
}

// AmountCents converts the decimal transaction amount to cents
func (p *ProviderPayment) AmountCents() int64 {
	return ToCents(p.TransactionAmount)
}

// MetadataString returns a metadata value as a string, whatever JSON type it arrived as
func (p *ProviderPayment) MetadataString(key string) string {
	v, ok := p.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// MerchantOrder groups the payments of one checkout
type MerchantOrder struct {
	ID                ExternalID `json:"id"`
	ExternalReference string     `json:"external_reference"`
	Payments          []struct {
		ID     ExternalID `json:"id"`
		Status string     `json:"status"`
	} `json:"payments"`
}

// ExternalID accepts provider ids sent either as JSON numbers or strings
type ExternalID string

func (id *ExternalID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*id = ExternalID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*id = ExternalID(num.String())
	return nil
}

func (id ExternalID) String() string { return string(id) }

const maxExternalIDLen = 20

// ValidExternalID reports whether id has the shape of a MercadoPago payment or
// merchant order id: decimal digits only
func ValidExternalID(id string) bool {
	if id == "" || len(id) > maxExternalIDLen {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// APIError is a non-2xx provider response
type APIError struct {
	StatusCode int        `json:"-"`
	Message    string     `json:"message"`
	Code       string     `json:"error"`
	Cause      []APICause `json:"cause"`
}

// APICause is one structured reason in a provider error
type APICause struct {
	Code        interface{} `json:"code"`
	Description string      `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: status %d: %s", e.StatusCode, e.Detail())
}

// Detail prefers the first structured cause, then the message
func (e *APIError) Detail() string {
	if len(e.Cause) > 0 && e.Cause[0].Description != "" {
		return e.Cause[0].Description
	}
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// ToCents converts a decimal currency amount to cents
func ToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromCents converts cents to a decimal currency amount
func FromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// Client talks to the MercadoPago REST API behind a circuit breaker
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[[]byte]
	log         logrus.FieldLogger
}

// NewClient creates a MercadoPago client
func NewClient(cfg config.MercadoPagoConfig, log logrus.FieldLogger) *Client {
	log = log.WithField("service", "mercadopago")
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "mercadopago",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Client errors mean the provider is up; only transport failures and 5xx trip the breaker
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		breaker:     breaker,
		log:         log,
	}
}

// CreatePreference creates a checkout preference
func (c *Client) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	body, err := c.call(ctx, http.MethodPost, "/checkout/preferences", req)
	if err != nil {
		return nil, errors.Wrap(err, "create preference")
	}

	var pref Preference
	if err := json.Unmarshal(body, &pref); err != nil {
		return nil, errors.Wrap(err, "decode preference")
	}
	return &pref, nil
}

// GetPayment fetches a payment by id
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*ProviderPayment, error) {
	body, err := c.call(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, errors.Wrapf(err, "get payment %s", paymentID)
	}

	var p ProviderPayment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.Wrapf(err, "decode payment %s", paymentID)
	}
	return &p, nil
}

// GetMerchantOrder fetches a merchant order by id
func (c *Client) GetMerchantOrder(ctx context.Context, merchantOrderID string) (*MerchantOrder, error) {
	body, err := c.call(ctx, http.MethodGet, "/merchant_orders/"+url.PathEscape(merchantOrderID), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "get merchant order %s", merchantOrderID)
	}

	var mo MerchantOrder
	if err := json.Unmarshal(body, &mo); err != nil {
		return nil, errors.Wrapf(err, "decode merchant order %s", merchantOrderID)
	}
	return &mo, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, data interface{}) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if data != nil {
			payload, err := json.Marshal(data)
			if err != nil {
				return nil, errors.Wrap(err, "marshal request")
			}
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
		if err != nil {
			return nil, errors.Wrap(err, "build request")
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "send request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, errors.Wrap(err, "read response")
		}

		c.log.WithFields(logrus.Fields{
			"method":   method,
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
		}).Debug("mercadopago call")

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			_ = json.Unmarshal(body, apiErr)
			return nil, apiErr
		}

		return body, nil
	})
}
