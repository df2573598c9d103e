package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"llmhub/gateway/pkg/apierror"
)

// Default per-call timeouts. The total timeout bounds non-streaming calls
// only; once streaming headers have arrived, reads are bounded by client
// cancellation alone.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultTotalTimeout   = 120 * time.Second
)

// Client is the pooled HTTP client each adapter owns. The zero value is not
// usable; construct with NewClient.
type Client struct {
	http         *http.Client
	providerType string
	totalTimeout time.Duration
}

// NewClient builds a client with connection pooling, keep-alives, and the
// default timeout policy for the named provider type.
func NewClient(providerType string) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultConnectTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{
		// No client-level total timeout: it would sever streaming bodies.
		// Non-streaming calls get a per-call context deadline instead.
		http:         &http.Client{Transport: transport},
		providerType: providerType,
		totalTimeout: DefaultTotalTimeout,
	}
}

// DoJSON sends a JSON request and decodes a JSON response. Non-2xx upstream
// statuses and transport failures are classified into the gateway taxonomy.
func (c *Client) DoJSON(ctx context.Context, method, url string, header http.Header, reqBody, respBody any) error {
	ctx, cancel := context.WithTimeout(ctx, c.totalTimeout)
	defer cancel()

	resp, err := c.send(ctx, method, url, header, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return apierror.Wrap(apierror.KindUpstreamServer, err, "decoding %s response", c.providerType)
	}
	return nil
}

// DoStream sends a JSON request and returns the response with its body open
// after the status line has been checked. The caller owns the body; closing
// it aborts the upstream request. No total timeout applies.
func (c *Client) DoStream(ctx context.Context, method, url string, header http.Header, reqBody any) (*http.Response, error) {
	return c.send(ctx, method, url, header, reqBody)
}

func (c *Client) send(ctx context.Context, method, url string, header http.Header, reqBody any) (*http.Response, error) {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, apierror.Wrap(apierror.KindInternal, err, "encoding %s request", c.providerType)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindInternal, err, "building %s request", c.providerType)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" && reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apierror.FromUpstreamStatus(resp.StatusCode, c.providerType, string(b))
	}
	return resp, nil
}

// classifyTransportError maps connect/read failures to the taxonomy. Client
// cancellation is passed through untouched so callers can distinguish a
// disconnected client from an upstream fault.
func (c *Client) classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		e := apierror.Wrap(apierror.KindUpstreamTimeout, err, "%s call timed out", c.providerType)
		e.Provider = c.providerType
		return e
	}
	e := apierror.Wrap(apierror.KindUpstreamServer, err, "%s call failed", c.providerType)
	e.Provider = c.providerType
	return e
}

// Transport exposes the underlying round tripper for adapters that need to
// install a signing wrapper.
func (c *Client) Transport() http.RoundTripper {
	return c.http.Transport
}

// SetTransport replaces the underlying round tripper, preserving the pool
// configuration decision with the caller.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// String implements fmt.Stringer for log output.
func (c *Client) String() string {
	return fmt.Sprintf("providers.Client(%s)", c.providerType)
}
