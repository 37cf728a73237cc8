// Package truelayer reads accounts and transactions from the TrueLayer
// Data API.
package truelayer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/model"
)

// DefaultBaseURL is the production Data API host.
const DefaultBaseURL = "https://api.truelayer.com"

const defaultRetries = 5

// ErrNoToken is returned when no access token is configured.
var ErrNoToken = errors.New("truelayer access token not set")

// Client is a Data API v1 client authenticated with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retries    uint64
	retryDelay time.Duration
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.httpClient = c } }

func WithLogger(l zerolog.Logger) Option { return func(cl *Client) { cl.log = l } }

// WithRetries sets how many times 5xx and 429 replies are retried.
func WithRetries(n uint64, initialDelay time.Duration) Option {
	return func(cl *Client) {
		cl.retries = n
		cl.retryDelay = initialDelay
	}
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retries:    defaultRetries,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Accounts lists the connected accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	body, err := c.get(ctx, "/data/v1/accounts", nil)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	var reply accountsReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("decoding accounts: %w", err)
	}
	return reply.Results, nil
}

// Transactions fetches one account's transactions in [from, to].
func (c *Client) Transactions(ctx context.Context, accountID string, from, to time.Time) ([]model.Transaction, []ingest.ValidationError, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))

	body, err := c.get(ctx, "/data/v1/accounts/"+url.PathEscape(accountID)+"/transactions", q)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching transactions for %s: %w", accountID, err)
	}
	return DecodeTransactions(bytes.NewReader(body))
}

// AllTransactions fetches every account concurrently and concatenates the
// results in account order.
func (c *Client) AllTransactions(ctx context.Context, from, to time.Time) ([]model.Transaction, []ingest.ValidationError, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, nil, err
	}

	type result struct {
		txns    []model.Transaction
		skipped []ingest.ValidationError
		err     error
	}
	results := make([]result, len(accounts))

	var wg sync.WaitGroup
	for i, acc := range accounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txns, skipped, err := c.Transactions(ctx, acc.ID, from, to)
			results[i] = result{txns, skipped, err}
		}()
	}
	wg.Wait()

	var all []model.Transaction
	var skipped []ingest.ValidationError
	for i, r := range results {
		if r.err != nil {
			return nil, nil, r.err
		}
		c.log.Debug().Str("account", accounts[i].ID).Int("transactions", len(r.txns)).Msg("truelayer.fetched")
		all = append(all, r.txns...)
		skipped = append(skipped, r.skipped...)
	}
	return all, skipped, nil
}

// StatusError is a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("got status code: %d (%s)", e.Code, e.Body)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	uri := c.baseURL + path
	if len(q) > 0 {
		uri += "?" + q.Encode()
	}

	eb := backoff.NewExponentialBackOff()
	if c.retryDelay > 0 {
		eb.InitialInterval = c.retryDelay
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.retries), ctx)

	var body []byte
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("truelayer.retry")
			return &StatusError{Code: resp.StatusCode, Body: string(data)}
		default:
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: string(data)})
		}
	}, policy)
	return body, err
}
