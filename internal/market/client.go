package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/riskwise/internal/metrics"
)

// Breaker thresholds for the market-data API. Opening the breaker only
// fails calls fast; nothing is retried.
const (
	BreakerMinRequests     = 5
	BreakerFailureRatio    = 0.6
	BreakerOpenTimeout     = 30 * time.Second
	BreakerHalfOpenMaxReqs = 3
	BreakerCountInterval   = 10 * time.Second
)

// Fetcher performs one market-data request and returns the raw JSON body
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// APIError is a non-200 answer from the market-data API
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market API error on %s (status %d): %s", e.Path, e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// ClientConfig contains configuration for the market-data client
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration // 0 leaves the transport default in place
	RequestsPerSecond float64       // 0 disables pacing
	Burst             int
	BreakerEnabled    bool
	HTTPClient        *http.Client
}

// Client is the HTTP Fetcher for the financialdatasets.ai API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new market-data client
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.financialdatasets.ai"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	c := &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: httpClient,
	}

	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	if config.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "market",
			MaxRequests: BreakerHalfOpenMaxReqs,
			Interval:    BreakerCountInterval,
			Timeout:     BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= BreakerMinRequests && failureRatio >= BreakerFailureRatio
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Market breaker state changed")
			},
		})
	}

	return c
}

// Fetch implements Fetcher
func (c *Client) Fetch(ctx context.Context, req Request) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordGatewayCall(metrics.GatewayMarket, err, float64(time.Since(start).Milliseconds()))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	if c.breaker == nil {
		return c.do(ctx, req)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("market circuit breaker: %w", err)
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	target := c.baseURL + req.Path
	if len(req.Params) > 0 {
		target += "?" + req.Params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	log.Debug().
		Str("path", req.Path).
		Str("query", req.Params.Encode()).
		Msg("Sending market-data request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Path: req.Path, Body: string(body)}
	}

	return body, nil
}
