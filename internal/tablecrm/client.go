// Package tablecrm talks to the TableCRM REST API.
package tablecrm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"orderdesk/internal/domain"
)

// DefaultBaseURL is the public TableCRM API root.
const DefaultBaseURL = "https://app.tablecrm.com/api/v1"

// RemoteError is a non-2xx answer from the API.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tablecrm returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("tablecrm returned status %d", e.Status)
}

func (e *RemoteError) Unwrap() error {
	return domain.ErrRemoteUnavailable
}

// Options tune the HTTP client.
type Options struct {
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTPClient       *http.Client
}

// Client is shared by every session. It owns the HTTP client and the circuit
// breaker; credentials are supplied per session through Bind.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *log.Logger
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, opts Options, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	threshold := opts.FailureThreshold
	settings := gobreaker.Settings{
		Name:        "tablecrm",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// The remote rejecting a request is not an outage.
		IsSuccessful: func(err error) bool {
			var remoteErr *RemoteError
			if errors.As(err, &remoteErr) {
				return remoteErr.Status < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, domain.ErrNoCredential)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Bind returns a transport that signs every call with creds.
func (c *Client) Bind(creds *Credentials) *Transport {
	return &Transport{client: c, creds: creds}
}

// Transport is a Client bound to one session's credentials.
type Transport struct {
	client *Client
	creds  *Credentials
}

// Get issues GET path?params and returns the raw JSON body.
func (t *Transport) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return t.do(ctx, http.MethodGet, path, params, nil)
}

// Post issues POST path with body encoded as JSON.
func (t *Transport) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return t.do(ctx, http.MethodPost, path, nil, payload)
}

func (t *Transport) do(ctx context.Context, method, path string, params url.Values, body []byte) (json.RawMessage, error) {
	token, err := t.creds.Token()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("token", token)
	endpoint := t.client.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + q.Encode()

	out, err := t.client.breaker.Execute(func() (interface{}, error) {
		return t.client.roundTrip(ctx, method, endpoint, body)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	case err != nil:
		return nil, err
	}
	return out.(json.RawMessage), nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL, token included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, method, redact(endpoint), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrRemoteUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteErr := &RemoteError{Status: resp.StatusCode, Message: errorMessage(data)}
		c.logger.Printf("%s %s: %v", method, redact(endpoint), remoteErr)
		return nil, remoteErr
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("null")
	}
	return json.RawMessage(data), nil
}

// errorMessage extracts the "message" (or FastAPI "detail") of an error body.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		return detail
	}
	return ""
}

// redact hides the token query parameter in logs.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
