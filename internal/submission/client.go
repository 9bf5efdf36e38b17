package submission

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

	"github.com/nats-io/nats.go"
)

// Request is the credential-linking payload.
type Request struct {
	AccountID    string `json:"accountId"`
	AccessKey    string `json:"accessKey"`
	AccessSecret string `json:"accessSecret"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Client performs the remote credential-linking call. A nil error means the
// service acknowledged the credentials.
type Client interface {
	Link(ctx context.Context, identity string, req Request) error
}

// IdentityHeader carries the opaque caller identity.
const IdentityHeader = "Caller-Identity"

// reply is the service's response body. An empty object is success.
type reply struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r reply) text() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// HTTPClient posts credentials as JSON.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for endpoint.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) Link(ctx context.Context, identity string, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding link request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building link request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-"+IdentityHeader, identity)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var r reply
	if json.Unmarshal(data, &r) == nil && r.text() != "" {
		return fmt.Errorf("%d: %s", resp.StatusCode, r.text())
	}
	return fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// NATSClient sends credentials as a NATS request.
type NATSClient struct {
	nc      *nats.Conn
	subject string
}

// NewNATSClient creates a client publishing to subject.
func NewNATSClient(nc *nats.Conn, subject string) *NATSClient {
	return &NATSClient{nc: nc, subject: subject}
}

func (c *NATSClient) Link(ctx context.Context, identity string, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding link request: %w", err)
	}

	msg := nats.NewMsg(c.subject)
	msg.Header.Set(IdentityHeader, identity)
	msg.Data = body

	resp, err := c.nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return &transportError{err: err}
	}

	if len(strings.TrimSpace(string(resp.Data))) == 0 {
		return nil
	}
	var r reply
	if err := json.Unmarshal(resp.Data, &r); err != nil {
		return fmt.Errorf("unreadable link reply: %w", err)
	}
	if t := r.text(); t != "" {
		return errors.New(t)
	}
	return nil
}

// transportError is a request that never reached the link service. Its text
// names only the kind of failure, never the endpoint or subject, so it always
// classifies as a network problem. The cause is kept for logs.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	var timeout interface{ Timeout() bool }
	switch {
	case errors.Is(e.err, context.DeadlineExceeded),
		errors.As(e.err, &timeout) && timeout.Timeout():
		return "network request timed out"
	case errors.Is(e.err, nats.ErrNoResponders):
		return "network: no link service is responding"
	default:
		return "network request failed: connection error"
	}
}

func (e *transportError) Unwrap() error {
	return e.err
}
