package gemini

import (
	"context"
	"io"
	"net/http"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/transport"
	"github.com/rs/zerolog"
)

// Client calls Gemini models published on Vertex AI.
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

// WithLocation sets the Vertex AI region. Default is us-central1.
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

// New creates a [Client] for the given project. tokens is asked for a
// bearer token once per call.
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

// GenerateContent sends a non-streaming request. req is marshaled as the
// request body unchanged.
func (c *Client) GenerateContent(ctx context.Context, model string, req any) (*GenerateContentResponse, error) {
	t := c.transport()
	resp, err := t.Post(ctx, c.url(model, "generateContent"), req)
	if err != nil {
		return nil, err
	}
	data, err := t.ReadBody(ctx, resp)
	if err != nil {
		return nil, err
	}
	out, err := DecodeResponse(data)
	if err != nil {
		c.logger.Error().Err(err).Str("provider", providerName).Msg("failed to parse response")
		return nil, err
	}
	return out, nil
}

// StreamGenerateContent sends a streaming request and decodes the
// JSON-array body as it arrives.
func (c *Client) StreamGenerateContent(ctx context.Context, model string, req any) (*vertex.Stream[*GenerateContentResponse], error) {
	body, err := c.open(ctx, c.url(model, "streamGenerateContent"), req)
	if err != nil {
		return nil, err
	}
	return vertex.NewStream(ctx, func(ctx context.Context, send *vertex.Sender[*GenerateContentResponse]) {
		defer body.Close()
		defer transport.CloseOnDone(ctx, body)()
		ReadArray(ctx, body, send, c.logger)
	}), nil
}

// StreamGenerateContentSSE sends a streaming request with alt=sse and
// decodes the event stream as it arrives.
func (c *Client) StreamGenerateContentSSE(ctx context.Context, model string, req any) (*vertex.Stream[*GenerateContentResponse], error) {
	body, err := c.open(ctx, c.url(model, "streamGenerateContent")+"?alt=sse", req)
	if err != nil {
		return nil, err
	}
	dec := sseDecoder(c.logger)
	return vertex.NewStream(ctx, func(ctx context.Context, send *vertex.Sender[*GenerateContentResponse]) {
		defer body.Close()
		defer transport.CloseOnDone(ctx, body)()
		dec.Run(ctx, body, send)
	}), nil
}

func (c *Client) open(ctx context.Context, url string, req any) (io.ReadCloser, error) {
	resp, err := c.transport().Post(ctx, url, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
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
