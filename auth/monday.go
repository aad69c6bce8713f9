// Package auth implements the Monday.com OAuth authorization-code flow used
// to act on a visitor's own Monday account.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"sarahdemo/config"
)

// CallbackPath is where Monday redirects back to after authorization.
const CallbackPath = "/api/auth/callback"

var (
	ErrNoCode = errors.New("no code provided")
	// ErrExchange means the token endpoint did not return an access token.
	ErrExchange = errors.New("failed to get token")
)

// ExchangeError carries the token endpoint's response body.
type ExchangeError struct {
	Status  int
	Details map[string]any
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%v: status %d", ErrExchange, e.Status)
}

func (e *ExchangeError) Unwrap() error { return ErrExchange }

type MondayOAuth struct {
	oauth      *oauth2.Config
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*MondayOAuth)

func WithHTTPClient(c *http.Client) Option {
	return func(m *MondayOAuth) {
		m.httpClient = c
	}
}

// NewMondayOAuth builds the flow for a server reachable at baseURL.
func NewMondayOAuth(cfg config.MondayConfig, baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *MondayOAuth {
	baseURL = strings.TrimSuffix(baseURL, "/")
	m := &MondayOAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  baseURL + CallbackPath,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
				// Monday reads the client credentials from the form body
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL: baseURL,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.httpClient == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		m.httpClient = &http.Client{Timeout: timeout}
	}
	return m
}

func (m *MondayOAuth) RedirectURI() string {
	return m.oauth.RedirectURL
}

// AuthorizeURL is the consent page the visitor is sent to.
func (m *MondayOAuth) AuthorizeURL() string {
	return m.oauth.AuthCodeURL("")
}

// DemoURL is where the visitor lands with their token.
func (m *MondayOAuth) DemoURL(token string) string {
	return m.baseURL + "/demo?token=" + url.QueryEscape(token)
}

// Exchange trades an authorization code for an access token.
func (m *MondayOAuth) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", ErrNoCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			m.logger.Warn("token exchange failed", zap.Int("status", retrieveErr.Response.StatusCode))
			return "", &ExchangeError{Status: retrieveErr.Response.StatusCode, Details: exchangeDetails(retrieveErr.Body)}
		}
		m.logger.Warn("token exchange failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}

	m.logger.Info("monday token obtained")
	return token.AccessToken, nil
}

// exchangeDetails decodes the token endpoint's error body for the callback
// page. Non-JSON bodies are passed through as text.
func exchangeDetails(body []byte) map[string]any {
	details := map[string]any{}
	if len(body) == 0 {
		return details
	}
	if err := json.Unmarshal(body, &details); err != nil {
		return map[string]any{"body": string(body)}
	}
	delete(details, "access_token")
	return details
}
