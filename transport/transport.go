// Package transport issues authenticated Vertex AI requests and turns
// transport-level failures into [vertex.Error] values.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/vertex"
	"github.com/rs/zerolog"
)

const maxErrorBody = 1 << 20

// ErrorBodyFunc extracts a provider error tag and message from a non-2xx
// response body. ok is false when the body is not a recognizable envelope.
type ErrorBodyFunc func(body []byte) (code, message string, ok bool)

// Client posts JSON requests with a bearer token.
type Client struct {
	HTTP      *http.Client
	Tokens    vertex.TokenProvider
	Provider  string
	ErrorBody ErrorBodyFunc
	Logger    zerolog.Logger
}

// Post marshals payload, fetches a token and sends the request. A non-2xx
// status is returned as a [*vertex.Error] and the body is closed; otherwise
// the caller owns resp.Body.
func (c *Client) Post(ctx context.Context, url string, payload any) (*http.Response, error) {
	token, err := c.token(ctx)
	if err != nil {
		c.Logger.Error().Err(err).Str("provider", c.Provider).Msg("failed to get authentication token")
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &vertex.Error{Kind: vertex.KindInvalidArgument, Provider: c.Provider, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &vertex.Error{Kind: vertex.KindInvalidArgument, Provider: c.Provider, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.Logger.Error().Err(err).Str("provider", c.Provider).Str("url", url).Msg("failed to send request")
		return nil, c.requestError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, c.statusError(resp)
	}
	return resp, nil
}

// ReadBody reads and closes a successful response body.
func (c *Client) ReadBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.requestError(ctx, err)
	}
	return data, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.Tokens == nil {
		return "", &vertex.Error{Kind: vertex.KindAuthentication, Provider: c.Provider, Err: vertex.ErrNoTokenProvider}
	}
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return "", &vertex.Error{Kind: vertex.KindAuthentication, Provider: c.Provider, Err: err}
	}
	return token, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) requestError(ctx context.Context, err error) *vertex.Error {
	return ReadError(ctx, c.Provider, err)
}

// ReadError classifies a failed send or body read. A done ctx takes
// precedence over err, since closing the body on cancel surfaces as a read
// failure.
func ReadError(ctx context.Context, provider string, err error) *vertex.Error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &vertex.Error{Kind: vertex.KindDeadlineExceeded, Provider: provider, Err: err}
	case ctx.Err() != nil:
		return &vertex.Error{Kind: vertex.KindCancelled, Provider: provider, Err: err}
	}
	return &vertex.Error{Kind: vertex.KindRequest, Provider: provider, Err: err}
}

func (c *Client) statusError(resp *http.Response) *vertex.Error {
	e := &vertex.Error{
		Kind:     vertex.KindFromStatus(resp.StatusCode),
		Provider: c.Provider,
		Status:   resp.StatusCode,
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		e.Err = fmt.Errorf("failed to read body: %w", err)
		return e
	}
	if c.ErrorBody != nil {
		if code, msg, ok := c.ErrorBody(data); ok {
			e.Code = code
			e.Message = msg
			return e
		}
	}
	e.Message = strings.TrimSpace(string(data))
	return e
}

// CloseOnDone closes body when ctx is cancelled, unblocking a pending Read.
// The returned stop function releases the watcher.
func CloseOnDone(ctx context.Context, body io.Closer) (stop func() bool) {
	return context.AfterFunc(ctx, func() { _ = body.Close() })
}

// DefaultBaseURL returns the regional Vertex AI host for location.
func DefaultBaseURL(location string) string {
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
}

// ModelURL builds a publisher model method URL. baseURL may be empty, in
// which case the regional host for location is used.
func ModelURL(baseURL, project, location, publisher, model, method string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL(location)
	}
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/%s/models/%s:%s",
		strings.TrimRight(baseURL, "/"), project, location, publisher, model, method)
}
