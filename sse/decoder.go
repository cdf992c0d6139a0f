package sse

import (
	"bufio"
	"context"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/transport"
	"github.com/rs/zerolog"
)

// ErrInvalidUTF8 is wrapped by the parse error reported for a message that
// is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("event is not valid UTF-8")

// DecodeFunc turns one message payload into a value. terminal reports that
// the value ends the logical stream. A non-nil err must already be typed (a
// mapped provider error or a [vertex.KindParse] error); it ends the stream.
type DecodeFunc[T any] func(data string) (v T, terminal bool, err error)

// Decoder runs the event-framing state machine: Open is skipped, every
// message is decoded and forwarded, and the loop stops after a terminal
// value, the first error, or the end of the body.
type Decoder[T any] struct {
	Provider string
	Decode   DecodeFunc[T]

	// RequireTerminal reports an error when the body ends before a terminal
	// value was decoded.
	RequireTerminal bool

	Logger zerolog.Logger
}

// Run reads records from body and pushes results through send until the
// stream stops. It does not close body.
func (d *Decoder[T]) Run(ctx context.Context, body io.Reader, send *vertex.Sender[T]) {
	r := NewReader(body)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			if d.RequireTerminal {
				d.fail(send, vertex.ParseError(d.Provider, io.ErrUnexpectedEOF))
			}
			return
		}
		if errors.Is(err, bufio.ErrTooLong) {
			d.fail(send, vertex.ParseError(d.Provider, err))
			return
		}
		if err != nil {
			d.fail(send, transport.ReadError(ctx, d.Provider, err))
			return
		}

		switch rec := rec.(type) {
		case Open:
			d.Logger.Trace().Str("provider", d.Provider).Msg("received open event")
		case Message:
			if !utf8.ValidString(rec.Data) || !utf8.ValidString(rec.Event) {
				d.fail(send, vertex.ParseError(d.Provider, ErrInvalidUTF8))
				return
			}
			v, terminal, err := d.Decode(rec.Data)
			if err != nil {
				d.fail(send, err)
				return
			}
			if !send.Send(v) {
				d.Logger.Debug().Str("provider", d.Provider).Msg("consumer closed stream")
				return
			}
			if terminal {
				return
			}
		}
	}
}

func (d *Decoder[T]) fail(send *vertex.Sender[T], err error) {
	d.Logger.Error().Err(err).Str("provider", d.Provider).Msg("stream failed")
	if !send.Fail(err) {
		d.Logger.Debug().Str("provider", d.Provider).Msg("consumer closed stream")
	}
}
