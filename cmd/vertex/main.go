// Command vertex sends one prompt to a model on Vertex AI and streams the
// reply to stdout.
//
// Usage:
//
//	GCP_PROJECT_ID=my-project vertex [flags] -prompt "Write me a poem about crabs"
//	echo "Write me a poem about crabs" | vertex -provider anthropic
//
// Flags:
//
//	-provider string    Provider: gemini, anthropic (default gemini)
//	-model string       Model ID (default: provider default)
//	-prompt string      Prompt text (default: read from stdin)
//	-sse                Use alt=sse instead of the JSON array stream (gemini only)
//	-stream             Stream the reply (default true)
//	-render             Render the finished reply as markdown instead of raw deltas
//	-thinking           Print thought summaries to stderr
//	-max-tokens int     Maximum output tokens (default 1024)
//	-env-file string    Optional .env file (default .env)
//	-base-url string    Override the regional Vertex AI host
//
// Credentials come from GCP_TOKEN, GCP_SERVICE_ACCOUNT,
// GCP_SERVICE_ACCOUNT_FILE or application default credentials, in that
// order.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fwojciec/vertex/config"
	"github.com/fwojciec/vertex/render"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, render.Error(err, render.DefaultTheme()))
		os.Exit(1)
	}
}

func run() error {
	var (
		providerFlag = flag.String("provider", providerGemini, "Provider: gemini, anthropic")
		model        = flag.String("model", "", "Model ID (provider-specific)")
		promptFlag   = flag.String("prompt", "", "Prompt text (default: read from stdin)")
		useSSE       = flag.Bool("sse", false, "Use alt=sse instead of the JSON array stream (gemini only)")
		stream       = flag.Bool("stream", true, "Stream the reply")
		renderFlag   = flag.Bool("render", false, "Render the finished reply as markdown")
		thinking     = flag.Bool("thinking", false, "Print thought summaries to stderr")
		maxTokens    = flag.Int("max-tokens", 1024, "Maximum output tokens")
		envFile      = flag.String("env-file", ".env", "Optional .env file")
		baseURL      = flag.String("base-url", "", "Override the regional Vertex AI host")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(config.Options{EnvFile: *envFile})
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	prompt, err := resolvePrompt(*promptFlag, os.Stdin)
	if err != nil {
		return err
	}

	tokens, err := cfg.TokenProvider()
	if err != nil {
		return err
	}
	r, err := resolveProvider(*providerFlag, cfg, tokens, logger, *baseURL)
	if err != nil {
		return err
	}

	theme := render.DefaultTheme()
	req := request{
		Model:     resolveModel(*providerFlag, *model),
		Prompt:    prompt,
		MaxTokens: *maxTokens,
		Stream:    *stream,
		SSE:       *useSSE,
		Theme:     theme,
	}
	if *thinking {
		req.Thoughts = os.Stderr
	}
	logger.Debug().Str("provider", *providerFlag).Str("model", req.Model).Bool("stream", req.Stream).Msg("sending prompt")

	out := io.Writer(os.Stdout)
	if *renderFlag {
		out = io.Discard
	}
	start := time.Now()
	summary, text, err := r.Run(ctx, out, req)
	if *renderFlag && text != "" {
		fmt.Fprintln(os.Stdout, render.Markdown(text, 80, theme))
	} else if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(os.Stdout)
	}
	if err != nil {
		return err
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("reply complete")
	if footer := render.Footer(summary, theme); footer != "" {
		fmt.Fprintln(os.Stderr, footer)
	}
	return nil
}

// resolvePrompt returns the flag value, or stdin when the flag is empty.
func resolvePrompt(flagValue string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt: use -prompt or pipe text on stdin")
	}
	return prompt, nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}
