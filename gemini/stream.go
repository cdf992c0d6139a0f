package gemini

import (
	"context"
	"errors"
	"io"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/sse"
	"github.com/fwojciec/vertex/transport"
	"github.com/rs/zerolog"
)

const chunkSize = 32 * 1024

// ReadArray runs the array-framing loop: every Read of r is one chunk. It
// returns after the closing bracket, the first error, the end of r, or once
// the consumer closed the stream.
func ReadArray(ctx context.Context, r io.Reader, send *vertex.Sender[*GenerateContentResponse], logger zerolog.Logger) {
	var dec ArrayDecoder
	buf := make([]byte, chunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			out, done, err := dec.Decode(buf[:n])
			for _, resp := range out {
				if !send.Send(resp) {
					logger.Debug().Str("provider", providerName).Msg("consumer closed stream")
					return
				}
			}
			if err != nil {
				fail(send, logger, err)
				return
			}
			if done {
				return
			}
		}

		switch {
		case errors.Is(readErr, io.EOF):
			if err := dec.Finish(); err != nil {
				fail(send, logger, err)
			}
			return
		case readErr != nil:
			fail(send, logger, transport.ReadError(ctx, providerName, readErr))
			return
		}
	}
}

// sseDecoder decodes alt=sse bodies. Gemini has no terminal event; the
// stream ends with the body.
func sseDecoder(logger zerolog.Logger) *sse.Decoder[*GenerateContentResponse] {
	return &sse.Decoder[*GenerateContentResponse]{
		Provider: providerName,
		Decode: func(data string) (*GenerateContentResponse, bool, error) {
			resp, err := DecodeResponse([]byte(data))
			return resp, false, err
		},
		Logger: logger,
	}
}

func fail(send *vertex.Sender[*GenerateContentResponse], logger zerolog.Logger, err error) {
	logger.Error().Err(err).Str("provider", providerName).Msg("stream failed")
	if !send.Fail(err) {
		logger.Debug().Str("provider", providerName).Msg("consumer closed stream")
	}
}
