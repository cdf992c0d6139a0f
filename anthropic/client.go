package anthropic

import (
	"context"
	"net/http"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/transport"
	"github.com/rs/zerolog"
)

// Client calls Claude models published on Vertex AI.
type Client struct {
	projectID  string
	location   string
	baseURL    string
	tokens     vertex.TokenProvider
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithLocation sets the Vertex AI region. Default is us-east5.
func WithLocation(location string) Option {
	return func(c *Client) { c.location = location }
}

// WithBaseURL overrides the regional host. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used by the client and its streams.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a [Client] for the given project.
func New(projectID string, tokens vertex.TokenProvider, opts ...Option) *Client {
	c := &Client{
		projectID:  projectID,
		location:   defaultLocation,
		tokens:     tokens,
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RawPredict sends a non-streaming request. req is marshaled unchanged and
// must carry anthropic_version.
func (c *Client) RawPredict(ctx context.Context, model string, req any) (*Message, error) {
	t := c.transport()
	resp, err := t.Post(ctx, c.url(model, "rawPredict"), req)
	if err != nil {
		return nil, err
	}
	data, err := t.ReadBody(ctx, resp)
	if err != nil {
		return nil, err
	}
	msg, err := DecodeMessage(data)
	if err != nil {
		c.logger.Error().Err(err).Str("provider", providerName).Msg("failed to parse response")
		return nil, err
	}
	return msg, nil
}

// StreamRawPredict sends a streaming request and decodes the event stream
// as it arrives. req must set "stream": true.
func (c *Client) StreamRawPredict(ctx context.Context, model string, req any) (*vertex.Stream[Event], error) {
	resp, err := c.transport().Post(ctx, c.url(model, "streamRawPredict")+"?alt=sse", req)
	if err != nil {
		return nil, err
	}
	body := resp.Body
	dec := sseDecoder(c.logger)
	return vertex.NewStream(ctx, func(ctx context.Context, send *vertex.Sender[Event]) {
		defer body.Close()
		defer transport.CloseOnDone(ctx, body)()
		dec.Run(ctx, body, send)
	}), nil
}

func (c *Client) url(model, method string) string {
	return transport.ModelURL(c.baseURL, c.projectID, c.location, publisher, model, method)
}

func (c *Client) transport() *transport.Client {
	return &transport.Client{
		HTTP:      c.httpClient,
		Tokens:    c.tokens,
		Provider:  providerName,
		ErrorBody: errorBody,
		Logger:    c.logger,
	}
}
