package membrane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ValentinKolb/mKV/rpc/client"
)

const settingsPath = "/settings"

// ErrAbsent is returned by FetchSettings when the service answered 404.
var ErrAbsent = errors.New("settings not found")

// StatusError is an unexpected HTTP status of the settings service.
type StatusError struct {
	Method string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("settings service: %s %s returned %d %s", e.Method, settingsPath, e.Status, http.StatusText(e.Status))
}

// FetchSettings reads keys from the settings service. The values are returned
// as the raw JSON the service sent. A 404 is reported as ErrAbsent.
func FetchSettings(ctx context.Context, bridge client.IBridge, keys ...string) (map[string]json.RawMessage, error) {
	query := url.Values{"keys": keys}
	resp, err := bridge.Call(ctx, http.MethodGet, settingsPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAbsent
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Method: http.MethodGet, Status: resp.StatusCode}
	}

	values := make(map[string]json.RawMessage)
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode settings response: %w", err)
	}
	return values, nil
}

// StoreSetting writes value under key. Binary values are sent as text, invalid
// UTF-8 sequences are replaced.
func StoreSetting(ctx context.Context, bridge client.IBridge, key string, value []byte) error {
	body := struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}{
		Key:   key,
		Value: strings.ToValidUTF8(string(value), "\uFFFD"),
	}

	resp, err := bridge.Call(ctx, http.MethodPost, settingsPath, body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: http.MethodPost, Status: resp.StatusCode}
	}
	return nil
}

// DecodeValue turns a JSON value of the service into the bytes a caller of the
// store expects: JSON strings become their text, everything else stays JSON.
func DecodeValue(raw json.RawMessage) []byte {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []byte(text)
	}
	return []byte(raw)
}

// drain reads the rest of the body so the connection can be reused
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		Logger.Errorf("Failed to close response body: %v", err)
	}
}
