package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
)

// HTTPTransport posts every request to the node endpoint and reads the reply
// from the response body. It's thread-safe.
type HTTPTransport struct {
	cli      *http.Client
	endpoint *url.URL
}

// NewHTTPTransport returns a new HTTPTransport for the given endpoint.
func NewHTTPTransport(endpoint string, opts Options) (*HTTPTransport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	opts.applyDefaults()
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}
	return &HTTPTransport{cli: httpClient, endpoint: u}, nil
}

// Submit implements the Transport interface.
func (t *HTTPTransport) Submit(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.cli.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	// The node might send us a proper reply anyway, so look there first and
	// if it parses, it has more relevant data than HTTP error code.
	if !json.Valid(raw) {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: HTTP %d/%s", ErrConnection, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, fmt.Errorf("%w: reply is not JSON", ErrConnection)
	}
	return raw, nil
}

// Close closes unused underlying network connections.
func (t *HTTPTransport) Close() {
	t.cli.CloseIdleConnections()
}

// String returns the node endpoint.
func (t *HTTPTransport) String() string {
	return t.endpoint.String()
}
