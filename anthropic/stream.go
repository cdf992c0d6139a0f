package anthropic

import (
	"github.com/fwojciec/vertex/sse"
	"github.com/rs/zerolog"
)

// sseDecoder decodes streamRawPredict bodies. message_stop is terminal and a
// body that ends without it is an error.
func sseDecoder(logger zerolog.Logger) *sse.Decoder[Event] {
	return &sse.Decoder[Event]{
		Provider: providerName,
		Decode: func(data string) (Event, bool, error) {
			ev, err := DecodeEvent([]byte(data))
			if err != nil {
				return nil, false, err
			}
			_, terminal := ev.(MessageStop)
			return ev, terminal, nil
		},
		RequireTerminal: true,
		Logger:          logger,
	}
}
