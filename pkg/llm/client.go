// Package llm talks to a hosted text-generation model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Generator returns raw generated text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	ErrNotConfigured = errors.New("llm: api key not configured")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Client calls a Hugging Face style inference endpoint: POST {"inputs": prompt}
// answered by [{"generated_text": "..."}]. Calls go through a circuit breaker so a
// failing upstream is not hammered by every chat message.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return c
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type inferenceResult struct {
	GeneratedText string `json:"generated_text"`
}

type inferenceError struct {
	Error string `json:"error"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, prompt)
	})
	if err != nil {
		c.log.Error("llm request failed", zap.Error(err))
		return "", err
	}
	return out.(string), nil
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(inferenceRequest{Inputs: prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		var e inferenceError
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return "", fmt.Errorf("llm: status %d: %s", resp.StatusCode, e.Error)
		}
		return "", fmt.Errorf("llm: status %d", resp.StatusCode)
	}
	var results []inferenceResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(results) == 0 {
		return "", ErrEmptyResponse
	}
	return results[0].GeneratedText, nil
}
