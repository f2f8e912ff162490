// Package llm provides the chat client for the explanation model
// endpoint. All outbound calls go through one resilience path: circuit
// breaking, bounded retries with exponential backoff, and Retry-After
// awareness, so a struggling model server degrades the app instead of
// hanging it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"argus/internal/config"
)

// ErrUnavailable marks failures where the model endpoint could not
// produce a response at all: network errors, exhausted retries, or an
// open circuit breaker.
var ErrUnavailable = errors.New("model endpoint unavailable")

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// RetryPolicy configures the retry behavior for chat calls.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL     string
	token       string
	model       string
	temperature float64
	maxTokens   int

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	retry   RetryPolicy
	logger  *slog.Logger
	sleepFn func(time.Duration)
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithSleepFunc overrides the sleep function used between retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(c *Client) {
		c.sleepFn = fn
	}
}

// WithHTTPClient overrides the underlying HTTP client. This is intended
// for testing with a custom transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New creates a chat client from the generator configuration.
func New(cfg *config.GeneratorConfig, logger *slog.Logger, opts ...Option) *Client {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "generator",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	c := &Client{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: cfg.TimeoutDuration()},
		breaker:     breaker,
		retry: RetryPolicy{
			MaxRetries: cfg.Retries(),
			MinWait:    cfg.RetryMinWaitDuration(),
			MaxWait:    cfg.RetryMaxWaitDuration(),
		},
		logger:  logger.With("system", "llm"),
		sleepFn: time.Sleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Chat sends a system and user prompt pair and returns the assistant
// message content. Retries on 429 and 5xx, respecting Retry-After;
// other failures return immediately. An open circuit breaker fails
// fast with ErrUnavailable.
func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	resp, err := c.send(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, truncate(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("model endpoint error: %s", parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", errors.New("model endpoint returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// send runs the request attempt loop. The request is rebuilt for each
// attempt so the body can be resent. 429 and 5xx responses count as
// breaker failures and trigger a retry; everything else is returned to
// the caller for decoding.
func (c *Client) send(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error

	maxAttempts := 1 + c.retry.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("model endpoint returned %d", r.StatusCode)
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
		}

		// A 429/5xx failure still carries a response whose body must be
		// released on every exit path. Headers stay readable after Close
		// for the backoff calculation.
		if resp != nil {
			resp.Body.Close()
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		}

		if attempt < maxAttempts-1 {
			wait := c.computeBackoff(attempt, resp)
			c.logger.Warn(
				"retrying chat request",
				"attempt", attempt+1,
				"wait", wait,
				"error", err,
			)
			c.sleepFn(wait)
			continue
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

// computeBackoff determines the wait before the next attempt. A
// Retry-After header (seconds or HTTP-date) wins when present,
// otherwise exponential backoff with full jitter clamped to
// [MinWait, MaxWait].
func (c *Client) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if wait, ok := parseRetryAfter(retryAfter); ok {
				return clamp(wait, c.retry.MinWait, c.retry.MaxWait)
			}
		}
	}

	base := c.retry.MinWait << attempt
	if base > c.retry.MaxWait || base < c.retry.MinWait {
		base = c.retry.MaxWait
	}
	if base <= c.retry.MinWait {
		return c.retry.MinWait
	}

	jittered := c.retry.MinWait + rand.N(base-c.retry.MinWait)
	return jittered
}

func parseRetryAfter(value string) (time.Duration, bool) {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		return time.Until(t), true
	}
	return 0, false
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func truncate(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
