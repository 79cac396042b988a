// Package authclient verifies external identity tokens against the
// provider's introspection endpoint.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var ErrRejected = errors.New("id token rejected by provider")

// TokenInfo is the introspection payload. EmailVerified is nil when the
// provider omitted the claim.
type TokenInfo struct {
	Audience      string
	Email         string
	EmailVerified *bool
	Subject       string
	Picture       string
	Name          string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(tokenInfoURL string, opts ...Option) *Client {
	if tokenInfoURL == "" {
		tokenInfoURL = DefaultTokenInfoURL
	}
	c := &Client{
		baseURL: tokenInfoURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenInfoResponse struct {
	Aud           string          `json:"aud"`
	Email         string          `json:"email"`
	EmailVerified json.RawMessage `json:"email_verified"`
	Sub           string          `json:"sub"`
	Picture       string          `json:"picture"`
	Name          string          `json:"name"`
}

func (c *Client) Introspect(ctx context.Context, idToken string) (*TokenInfo, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse tokeninfo url: %w", err)
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var body tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	verified, err := parseFlag(body.EmailVerified)
	if err != nil {
		return nil, fmt.Errorf("decode email_verified: %w", err)
	}

	return &TokenInfo{
		Audience:      body.Aud,
		Email:         body.Email,
		EmailVerified: verified,
		Subject:       body.Sub,
		Picture:       body.Picture,
		Name:          body.Name,
	}, nil
}

// parseFlag accepts both true and "true".
func parseFlag(raw json.RawMessage) (*bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
