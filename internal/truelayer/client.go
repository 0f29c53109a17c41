package truelayer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finsight/pkg/config"

	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

// Client wraps the TrueLayer REST API: the OAuth token endpoints plus the
// data API for accounts, balances and transactions. It holds no local
// state and performs no retries; retry policy belongs to the caller.
type Client struct {
	cfg        config.TrueLayerConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.TrueLayerConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// AuthorizationURL builds the URL the user is redirected to for bank
// login, plus the random state token embedded in it. The caller persists
// the state and rejects callbacks that do not echo it back.
func (c *Client) AuthorizationURL() (authURL string, state string) {
	state = generateState()

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", strings.Join(c.cfg.Scopes, " "))
	q.Set("providers", "uk-ob-all uk-oauth-all")
	q.Set("state", state)

	return c.cfg.AuthBaseURL + "/?" + q.Encode(), state
}

// ExchangeCode swaps a single-use authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code", code)

	return c.postToken(ctx, OpExchangeCode, form)
}

// RefreshToken swaps a refresh token for a fresh token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)

	return c.postToken(ctx, OpRefreshToken, form)
}

func (c *Client) postToken(ctx context.Context, op string, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthBaseURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("TrueLayer token request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	return &token, nil
}

// Accounts lists the accounts visible to the access token. Every entry is
// shape-validated; one bad entry fails the whole call.
func (c *Client) Accounts(ctx context.Context, accessToken string) ([]Account, error) {
	var envelope resultsEnvelope[Account]
	if err := c.get(ctx, OpListAccounts, "/data/v1/accounts", accessToken, &envelope); err != nil {
		return nil, err
	}

	for i := range envelope.Results {
		if err := envelope.Results[i].validate(); err != nil {
			return nil, &APIError{Op: OpListAccounts, StatusCode: http.StatusOK, Body: err.Error()}
		}
	}

	return envelope.Results, nil
}

func (c *Client) Balance(ctx context.Context, accessToken, accountID string) (*Balance, error) {
	var envelope resultsEnvelope[Balance]
	path := "/data/v1/accounts/" + url.PathEscape(accountID) + "/balance"
	if err := c.get(ctx, OpGetBalance, path, accessToken, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Results) == 0 {
		return nil, &APIError{Op: OpGetBalance, StatusCode: http.StatusOK, Body: "empty balance results"}
	}
	return &envelope.Results[0], nil
}

// Transactions lists transactions in an optional date window. An empty
// results array is a legitimate response for a quiet account, not an
// error.
func (c *Client) Transactions(ctx context.Context, accessToken, accountID string, from, to time.Time) ([]Transaction, error) {
	path := "/data/v1/accounts/" + url.PathEscape(accountID) + "/transactions"

	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		q.Set("to", to.Format("2006-01-02"))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var envelope resultsEnvelope[Transaction]
	if err := c.get(ctx, OpListTransactions, path, accessToken, &envelope); err != nil {
		return nil, err
	}

	return envelope.Results, nil
}

func (c *Client) get(ctx context.Context, op, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	return nil
}

func generateState() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
