// Package advisor integrates the external coaching-tip generator. The
// ledger core only supplies derived aggregates; this package owns the
// transport and the bounded retry policy.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/ecoledger/pkg/ecoledger"
)

// Advisor produces free-text coaching advice from derived aggregates.
type Advisor interface {
	Advise(ctx context.Context, coaching ecoledger.CoachingContext) (string, error)
}

// ErrAdviceUnavailable is returned once the retry budget is exhausted.
var ErrAdviceUnavailable = errors.New("advice unavailable")

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 4 * time.Second
)

// Config wires an HTTP advice client.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	HTTPClient  *http.Client
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	SleepFn     func(ctx context.Context, delay time.Duration) error
}

// Client calls a remote text-generation endpoint with capped exponential
// backoff. Transport failures and 5xx responses are retried; 4xx responses
// fail immediately.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleepFn     func(ctx context.Context, delay time.Duration) error
}

// NewClient validates the configuration and applies retry defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("advisor endpoint is required")
	}
	client := &Client{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		httpClient:  cfg.HTTPClient,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		sleepFn:     cfg.SleepFn,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.maxAttempts <= 0 {
		client.maxAttempts = defaultMaxAttempts
	}
	if client.baseDelay <= 0 {
		client.baseDelay = defaultBaseDelay
	}
	if client.maxDelay <= 0 {
		client.maxDelay = defaultMaxDelay
	}
	if client.sleepFn == nil {
		client.sleepFn = sleepWithContext
	}
	return client, nil
}

type adviceRequest struct {
	Model        string  `json:"model,omitempty"`
	Role         string  `json:"role"`
	TopActivity  string  `json:"top_activity"`
	TotalCredits float64 `json:"total_credits"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

// Advise requests one piece of advice, retrying up to the attempt budget.
func (client *Client) Advise(ctx context.Context, coaching ecoledger.CoachingContext) (string, error) {
	payload, err := json.Marshal(adviceRequest{
		Model:        client.model,
		Role:         coaching.Role.Label(),
		TopActivity:  coaching.TopActivity.Label(),
		TotalCredits: coaching.TotalCredits,
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < client.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := client.sleepFn(ctx, client.backoffDelay(attempt)); err != nil {
				return "", err
			}
		}
		advice, retryable, err := client.attempt(ctx, payload)
		if err == nil {
			return advice, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrAdviceUnavailable, client.maxAttempts, lastErr)
}

func (client *Client) attempt(ctx context.Context, payload []byte) (advice string, retryable bool, err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	request.Header.Set("Content-Type", "application/json")
	if client.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+client.apiKey)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", true, err
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", true, err
	}
	if response.StatusCode >= http.StatusInternalServerError {
		return "", true, fmt.Errorf("advice endpoint returned %d", response.StatusCode)
	}
	if response.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("advice endpoint returned %d", response.StatusCode)
	}

	var decoded adviceResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", false, fmt.Errorf("decode advice response: %w", err)
	}
	if strings.TrimSpace(decoded.Advice) == "" {
		return "", false, fmt.Errorf("advice response was empty")
	}
	return decoded.Advice, false, nil
}

func (client *Client) backoffDelay(attempt int) time.Duration {
	delay := client.baseDelay << (attempt - 1)
	if delay > client.maxDelay {
		return client.maxDelay
	}
	return delay
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
