package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// ErrMissingToken is returned when no bearer token is available. The request
// is never sent in that case.
var ErrMissingToken = errors.New("no API token available")

// TokenSource supplies the bearer token for every call
type TokenSource interface {
	GetAuthToken(ctx context.Context) (string, error)
}

// IBridge issues authenticated calls against the remote settings service.
//
// The bridge does not interpret the response: status codes (e.g. 404 = absent)
// are the caller's business. The caller must close the response body.
type IBridge interface {
	// Call sends method to path (relative to the endpoint). A non-nil body is
	// encoded as JSON.
	Call(ctx context.Context, method, path string, body any) (*http.Response, error)
	// Endpoint returns the resolved base URL
	Endpoint() string
	// Close releases idle connections
	Close() error
}

// NewBridge creates a bridge for the endpoint resolved from config. Every call
// asks tokens for a bearer token first.
func NewBridge(config common.ClientConfig, tokens TokenSource) IBridge {
	return &httpBridge{
		endpoint: ResolveEndpoint(config),
		tokens:   tokens,
		client: &http.Client{
			Timeout: time.Duration(config.TimeoutSecond) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type httpBridge struct {
	endpoint string
	tokens   TokenSource
	client   *http.Client
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IBridge)
// --------------------------------------------------------------------------

func (b *httpBridge) Call(ctx context.Context, method, path string, body any) (*http.Response, error) {
	token, err := b.token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.endpoint+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	Logger.Debugf("%s %s", method, req.URL.Redacted())
	return b.client.Do(req)
}

func (b *httpBridge) Endpoint() string {
	return b.endpoint
}

func (b *httpBridge) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (b *httpBridge) token(ctx context.Context) (string, error) {
	if b.tokens == nil {
		return "", ErrMissingToken
	}
	token, err := b.tokens.GetAuthToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingToken, err)
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
