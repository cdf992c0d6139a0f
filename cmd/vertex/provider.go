package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/anthropic"
	"github.com/fwojciec/vertex/config"
	"github.com/fwojciec/vertex/gemini"
	"github.com/fwojciec/vertex/render"
	"github.com/rs/zerolog"
)

const (
	providerGemini    = "gemini"
	providerAnthropic = "anthropic"

	defaultGeminiModel    = "gemini-2.0-flash-001"
	defaultAnthropicModel = "claude-3-5-sonnet-v2@20241022"
)

// request is one prompt as the CLI sends it.
type request struct {
	Model     string
	Prompt    string
	MaxTokens int
	Stream    bool
	SSE       bool

	// Thoughts receives styled thought summaries; nil drops them.
	Thoughts io.Writer
	Theme    render.Theme
}

func (req request) thought(text string) {
	if req.Thoughts == nil || text == "" {
		return
	}
	fmt.Fprint(req.Thoughts, render.Thinking(text, req.Theme))
}

// runner sends a request, writes reply text to w as it arrives and returns
// the usage summary together with the full text.
type runner interface {
	Run(ctx context.Context, w io.Writer, req request) (render.Summary, string, error)
}

// resolveProvider builds the runner for name. Env values arrive through cfg;
// env is only read in main().
func resolveProvider(name string, cfg *config.Config, tokens vertex.TokenProvider, logger zerolog.Logger, baseURL string) (runner, error) {
	switch name {
	case providerGemini:
		opts := []gemini.Option{gemini.WithLocation(cfg.Location), gemini.WithLogger(logger)}
		if baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(baseURL))
		}
		return &geminiRunner{client: gemini.New(cfg.ProjectID, tokens, opts...)}, nil
	case providerAnthropic:
		opts := []anthropic.Option{anthropic.WithLocation(cfg.ClaudeLocation), anthropic.WithLogger(logger)}
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		return &anthropicRunner{client: anthropic.New(cfg.ProjectID, tokens, opts...)}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be %q or %q", name, providerGemini, providerAnthropic)
	}
}

func resolveModel(provider, model string) string {
	if model != "" {
		return model
	}
	if provider == providerAnthropic {
		return defaultAnthropicModel
	}
	return defaultGeminiModel
}

type geminiRunner struct {
	client *gemini.Client
}

type geminiRequest struct {
	Contents         []*gemini.Content       `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

func (r *geminiRunner) Run(ctx context.Context, w io.Writer, req request) (render.Summary, string, error) {
	body := geminiRequest{
		Contents: []*gemini.Content{{
			Role:  "user",
			Parts: []*gemini.Part{{Text: req.Prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{MaxOutputTokens: req.MaxTokens},
	}
	summary := render.Summary{Provider: providerGemini, Model: req.Model}
	var text strings.Builder

	if !req.Stream {
		resp, err := r.client.GenerateContent(ctx, req.Model, body)
		if err != nil {
			return summary, "", err
		}
		r.add(&summary, &text, w, req, resp)
		return summary, text.String(), nil
	}

	var (
		s   *vertex.Stream[*gemini.GenerateContentResponse]
		err error
	)
	if req.SSE {
		s, err = r.client.StreamGenerateContentSSE(ctx, req.Model, body)
	} else {
		s, err = r.client.StreamGenerateContent(ctx, req.Model, body)
	}
	if err != nil {
		return summary, "", err
	}
	defer s.Close()

	for resp, err := range s.All() {
		if err != nil {
			return summary, text.String(), err
		}
		r.add(&summary, &text, w, req, resp)
	}
	return summary, text.String(), nil
}

func (r *geminiRunner) add(summary *render.Summary, text *strings.Builder, w io.Writer, req request, resp *gemini.GenerateContentResponse) {
	req.thought(resp.Thoughts())
	if t := resp.Text(); t != "" {
		fmt.Fprint(w, t)
		text.WriteString(t)
	}
	if u := resp.UsageMetadata; u != nil {
		summary.InputTokens = u.PromptTokenCount
		summary.OutputTokens = u.CandidatesTokenCount
	}
	if fr := resp.FinishReason(); fr != "" {
		summary.StopReason = string(fr)
	}
	if resp.ModelVersion != "" {
		summary.Model = resp.ModelVersion
	}
}

type anthropicRunner struct {
	client *anthropic.Client
}

func (r *anthropicRunner) Run(ctx context.Context, w io.Writer, req request) (render.Summary, string, error) {
	body := anthropic.Request{
		AnthropicVersion: anthropic.Version,
		Messages: []anthropic.MessageParam{{
			Role:    "user",
			Content: []anthropic.ContentBlock{{Type: anthropic.BlockText, Text: req.Prompt}},
		}},
		MaxTokens: req.MaxTokens,
		Stream:    req.Stream,
	}
	summary := render.Summary{Provider: providerAnthropic, Model: req.Model}

	if !req.Stream {
		msg, err := r.client.RawPredict(ctx, req.Model, body)
		if err != nil {
			return summary, "", err
		}
		text := msg.Text()
		fmt.Fprint(w, text)
		fillSummary(&summary, msg)
		return summary, text, nil
	}

	s, err := r.client.StreamRawPredict(ctx, req.Model, body)
	if err != nil {
		return summary, "", err
	}
	defer s.Close()

	var (
		acc  anthropic.Accumulator
		text strings.Builder
	)
	for ev, err := range s.All() {
		if err != nil {
			return summary, text.String(), err
		}
		if err := acc.Add(ev); err != nil {
			return summary, text.String(), err
		}
		d, ok := ev.(anthropic.ContentBlockDelta)
		if !ok {
			continue
		}
		switch d.Delta.Type {
		case anthropic.DeltaText:
			fmt.Fprint(w, d.Delta.Text)
			text.WriteString(d.Delta.Text)
		case anthropic.DeltaThinking:
			req.thought(d.Delta.Thinking)
		}
	}
	msg := acc.Message()
	fillSummary(&summary, &msg)
	return summary, text.String(), nil
}

func fillSummary(summary *render.Summary, msg *anthropic.Message) {
	if msg.Model != "" {
		summary.Model = msg.Model
	}
	summary.InputTokens = msg.Usage.InputTokens
	summary.OutputTokens = msg.Usage.OutputTokens
	summary.StopReason = string(msg.StopReason)
}
