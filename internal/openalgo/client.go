// Package openalgo provides a client for the OpenAlgo local trading API.
//
// Every call is a POST with a JSON body carrying the API key. Transport
// failures and status != "success" responses are both converted into the
// domain error taxonomy at the call site, so callers always get a single
// success/failure branch and never see a raw HTTP error.
package openalgo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/logging"
)

const apiPrefix = "/api/v1"

// Client is an OpenAlgo API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	strategy   string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// ClientConfig holds configuration for the client.
type ClientConfig struct {
	HostURL  string
	APIKey   string
	Strategy string
	Timeout  time.Duration
	// RatePerSec caps outbound requests to avoid tripping broker-side limits.
	RatePerSec int
	Logger     zerolog.Logger
}

// NewClient creates a new OpenAlgo API client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ratePerSec := cfg.RatePerSec
	if ratePerSec == 0 {
		ratePerSec = 10
	}
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = "Scalper"
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    20,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: timeout,
		},
		baseURL:  cfg.HostURL,
		apiKey:   cfg.APIKey,
		strategy: strategy,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		logger:   cfg.Logger,
	}
}

// Strategy returns the strategy tag sent with order-related requests.
func (c *Client) Strategy() string {
	return c.strategy
}

// call POSTs a JSON body to endpoint with the API key injected and decodes
// the response into out. out must embed or include a Status/Message pair.
func (c *Client) call(ctx context.Context, endpoint string, body map[string]interface{}, out interface{}) error {
	if c.baseURL == "" || c.apiKey == "" {
		return apierrors.ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return apierrors.NewNetworkError(endpoint, err)
	}

	payload := make(map[string]interface{}, len(body)+1)
	payload["apikey"] = c.apiKey
	for k, v := range body {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return apierrors.NewNetworkError(endpoint, err)
	}

	url := c.baseURL + apiPrefix + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return apierrors.NewNetworkError(endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	logging.LogAPICall(c.logger, endpoint, duration, err)
	if err != nil {
		return apierrors.NewNetworkError(endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierrors.NewNetworkError(endpoint, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apierrors.NewNetworkError(endpoint, fmt.Errorf("decoding response: %w", err))
	}

	return nil
}

// statusResponse is the common status/message envelope.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ok converts a non-success envelope into an APIError.
func (c *Client) ok(endpoint string, s statusResponse) error {
	if s.Status != "success" {
		return apierrors.NewAPIError(endpoint, s.Message)
	}
	return nil
}
