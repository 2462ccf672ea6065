// Package payment talks to the Pesapal-style hosted payment gateway. The
// adapter only initiates payments; order state is advanced exclusively by the
// asynchronous notification handler.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"comics-store/internal/config"
	"comics-store/internal/model"

	"github.com/rs/zerolog"
)

// ConfigurationError signals missing gateway credentials. It is surfaced
// distinctly from GatewayError so operators can tell a setup bug from a
// provider outage.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("payment gateway misconfigured: %s", e.Reason)
}

// GatewayError signals an unreachable provider or a malformed response.
// Retryable by the buyer; the order stays pending.
type GatewayError struct {
	Op     string
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("payment gateway %s failed with status %d", e.Op, e.Status)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Gateway initiates hosted payments with the external provider.
type Gateway interface {
	// InitiatePayment obtains a fresh bearer token, submits the order and
	// returns the redirect URL for the buyer.
	InitiatePayment(ctx context.Context, order *model.Order, email, phone string) (string, error)

	// RegisterIPN registers the notification callback URL with the provider
	// and returns the assigned IPN id. Operator-run setup step.
	RegisterIPN(ctx context.Context, callbackURL string) (string, error)
}

// pesapalGateway implements Gateway against the Pesapal v3 HTTP API.
type pesapalGateway struct {
	cfg    config.PesapalConfig
	client *http.Client
	logger zerolog.Logger
}

// NewPesapalGateway creates a gateway adapter. Credentials are checked at
// call time, not here, so the server still boots for storefront-only use.
func NewPesapalGateway(cfg config.PesapalConfig, logger zerolog.Logger) Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &pesapalGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "pesapal").Logger(),
	}
}

type tokenRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type billingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

type submitOrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         float64        `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id"`
	BillingAddress billingAddress `json:"billing_address"`
}

type submitOrderResponse struct {
	RedirectURL string `json:"redirect_url"`
}

type registerIPNRequest struct {
	URL              string `json:"url"`
	NotificationType string `json:"ipn_notification_type"`
}

type registerIPNResponse struct {
	IPNID string `json:"ipn_id"`
}

// InitiatePayment obtains a bearer token and submits the order as two
// sequential calls. The token is fetched fresh each time; checkout is not
// frequent enough per order to justify caching it.
func (g *pesapalGateway) InitiatePayment(ctx context.Context, order *model.Order, email, phone string) (string, error) {
	token, err := g.requestToken(ctx)
	if err != nil {
		return "", err
	}

	var firstName, lastName string
	if order.ShippingAddress != nil {
		firstName = order.ShippingAddress.FirstName
		lastName = order.ShippingAddress.LastName
	}

	payload := submitOrderRequest{
		ID:             order.ID.String(),
		Currency:       g.cfg.Currency,
		Amount:         order.Total,
		Description:    fmt.Sprintf("Order #%s", order.ID),
		CallbackURL:    g.cfg.CallbackURL,
		NotificationID: order.ID.String(),
		BillingAddress: billingAddress{
			EmailAddress: email,
			PhoneNumber:  phone,
			FirstName:    firstName,
			LastName:     lastName,
		},
	}

	var resp submitOrderResponse
	if err := g.post(ctx, "/api/Transactions/SubmitOrderRequest", token, payload, &resp); err != nil {
		return "", err
	}

	if resp.RedirectURL == "" {
		g.logger.Error().
			Str("order_id", order.ID.String()).
			Msg("gateway response missing redirect_url")
		return "", &GatewayError{Op: "SubmitOrderRequest", Err: fmt.Errorf("response missing redirect_url")}
	}

	g.logger.Info().
		Str("order_id", order.ID.String()).
		Float64("amount", order.Total).
		Msg("payment initiated")

	return resp.RedirectURL, nil
}

// RegisterIPN registers the notification callback URL with the provider.
func (g *pesapalGateway) RegisterIPN(ctx context.Context, callbackURL string) (string, error) {
	token, err := g.requestToken(ctx)
	if err != nil {
		return "", err
	}

	payload := registerIPNRequest{URL: callbackURL, NotificationType: "POST"}

	var resp registerIPNResponse
	if err := g.post(ctx, "/api/URLSetup/RegisterIPN", token, payload, &resp); err != nil {
		return "", err
	}

	if resp.IPNID == "" {
		return "", &GatewayError{Op: "RegisterIPN", Err: fmt.Errorf("response missing ipn_id")}
	}

	return resp.IPNID, nil
}

// requestToken fetches a short-lived bearer token with the configured
// credentials.
func (g *pesapalGateway) requestToken(ctx context.Context) (string, error) {
	if g.cfg.ConsumerKey == "" || g.cfg.ConsumerSecret == "" {
		return "", &ConfigurationError{Reason: "consumer key or secret missing"}
	}

	payload := tokenRequest{
		ConsumerKey:    g.cfg.ConsumerKey,
		ConsumerSecret: g.cfg.ConsumerSecret,
	}

	var resp tokenResponse
	if err := g.post(ctx, "/api/Auth/RequestToken", "", payload, &resp); err != nil {
		return "", err
	}

	if resp.Token == "" {
		g.logger.Error().Msg("gateway token response missing token")
		return "", &GatewayError{Op: "RequestToken", Err: fmt.Errorf("response missing token")}
	}

	return resp.Token, nil
}

// post sends a JSON request to the gateway and decodes a JSON response. A
// non-2xx status or undecodable body becomes a GatewayError.
func (g *pesapalGateway) post(ctx context.Context, path, bearer string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &GatewayError{Op: path, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return &GatewayError{Op: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("path", path).Msg("gateway request failed")
		return &GatewayError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("gateway returned non-success status")
		return &GatewayError{Op: path, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		g.logger.Error().Err(err).Str("path", path).Msg("gateway returned malformed response")
		return &GatewayError{Op: path, Err: fmt.Errorf("malformed response: %w", err)}
	}

	return nil
}
