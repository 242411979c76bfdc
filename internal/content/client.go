// Package content talks to the trivia-set content API.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"trivia-client/internal/domain"
)

// APIError is returned for non-2xx responses and for envelopes with success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("content api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("content api: status %d: %s", e.StatusCode, e.Message)
}

// Is maps a 404 onto domain.ErrTriviaSetNotFound.
func (e *APIError) Is(target error) bool {
	return target == domain.ErrTriviaSetNotFound && e.StatusCode == http.StatusNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client talks to the trivia-set content API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client for baseURL, e.g. http://localhost:3001/api.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ListSets returns every trivia set.
func (c *Client) ListSets(ctx context.Context) ([]domain.TriviaSet, error) {
	var sets []domain.TriviaSet
	if err := c.do(ctx, http.MethodGet, "/trivia-sets", nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// GetSet fetches one set by id.
func (c *Client) GetSet(ctx context.Context, id string) (domain.TriviaSet, error) {
	if strings.TrimSpace(id) == "" {
		return domain.TriviaSet{}, domain.ErrTriviaSetNotFound
	}
	var set domain.TriviaSet
	if err := c.do(ctx, http.MethodGet, "/trivia-sets/"+url.PathEscape(id), nil, &set); err != nil {
		return domain.TriviaSet{}, err
	}
	return set, nil
}

// CreateSet validates in and posts it. Invalid input never reaches the network.
func (c *Client) CreateSet(ctx context.Context, in domain.CreateTriviaSet) (domain.TriviaSet, error) {
	if err := in.Validate(); err != nil {
		return domain.TriviaSet{}, err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return domain.TriviaSet{}, fmt.Errorf("marshal trivia set: %w", err)
	}
	var set domain.TriviaSet
	if err := c.do(ctx, http.MethodPost, "/trivia-sets", body, &set); err != nil {
		return domain.TriviaSet{}, err
	}
	return set, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.Error}
		if decodeErr != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		log.Debug().Str("method", method).Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("content api error")
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// IsAPIError reports whether err carries an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
