package strava

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	httputil "github.com/fitglue/strava-ingest/pkg/infrastructure/http"
	"github.com/fitglue/strava-ingest/pkg/types"
)

const (
	DefaultBaseURL = "https://www.strava.com"
	apiPrefix      = "/api/v3"
	tokenPath      = "/oauth/token"
)

// Client is a stateless Strava API client. Every call takes the access token explicitly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithBaseURL points the client at a different host (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps API reads to requests per window, e.g. Strava's 100 per 15 minutes.
// A non-positive requests value disables limiting.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(c *Client) {
		if requests <= 0 || window <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
	}
}

// NewClient creates a new Strava API client
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, accessToken, path string, query url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetActivity retrieves a single detailed activity by ID
func (c *Client) GetActivity(ctx context.Context, accessToken string, activityID int64) (*Activity, error) {
	var activity Activity
	if err := c.get(ctx, accessToken, "/activities/"+strconv.FormatInt(activityID, 10), nil, &activity); err != nil {
		return nil, fmt.Errorf("get activity %d: %w", activityID, err)
	}
	return &activity, nil
}

// GetStreams retrieves the watts, heartrate, time and cadence series for an activity.
func (c *Client) GetStreams(ctx context.Context, accessToken string, activityID int64) (*Streams, error) {
	query := url.Values{}
	query.Set("keys", strings.Join(StreamKeys, ","))
	query.Set("key_by_type", "true")

	var streams Streams
	if err := c.get(ctx, accessToken, fmt.Sprintf("/activities/%d/streams", activityID), query, &streams); err != nil {
		return nil, fmt.Errorf("get streams %d: %w", activityID, err)
	}
	return &streams, nil
}

// RefreshToken exchanges a refresh token for a new credential set.
// The returned set has no AthleteID; callers carry it over from the stored set.
func (c *Client) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*types.Credentials, error) {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: c.baseURL + tokenPath,
			// Strava requires client_id/secret in the form body.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return &types.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt(tok),
	}, nil
}

// expiresAt prefers Strava's absolute expires_at over the expires_in derived Expiry.
func expiresAt(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_at").(type) {
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Unix()
	}
	return 0
}
