package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/vertex"
	"google.golang.org/genai"
)

var errNotMessage = errors.New("object is not a message")

// tagKinds maps error envelope tags to error kinds. Unknown tags are
// KindInternal.
var tagKinds = map[string]vertex.ErrorKind{
	"invalid_request_error": vertex.KindInvalidRequest,
	"request_too_large":     vertex.KindInvalidRequest,
	"authentication_error":  vertex.KindAuthentication,
	"permission_error":      vertex.KindPermissionDenied,
	"not_found_error":       vertex.KindNotFound,
	"rate_limit_error":      vertex.KindRateLimit,
	"api_error":             vertex.KindInternal,
	"overloaded_error":      vertex.KindOverloaded,
}

// KindFromTag returns the error kind for an error envelope tag.
func KindFromTag(tag string) vertex.ErrorKind {
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	return vertex.KindInternal
}

// DecodeEvent decodes one event payload. It tries the event shapes first and
// only then the error envelope; a payload matching neither yields a
// [vertex.KindParse] error.
func DecodeEvent(data []byte) (Event, error) {
	ev, err := decodeEvent(data)
	if err == nil {
		return ev, nil
	}
	if envErr, ok := decodeErrorEnvelope(data); ok {
		return nil, envErr
	}
	return nil, vertex.ParseError(providerName, err)
}

func decodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	switch w.Type {
	case "message_start":
		if w.Message == nil {
			return nil, missing(w.Type, "message")
		}
		return MessageStart{Message: *w.Message}, nil
	case "content_block_start":
		if w.Index == nil {
			return nil, missing(w.Type, "index")
		}
		if w.ContentBlock == nil {
			return nil, missing(w.Type, "content_block")
		}
		return ContentBlockStart{Index: *w.Index, ContentBlock: *w.ContentBlock}, nil
	case "content_block_delta":
		if w.Index == nil {
			return nil, missing(w.Type, "index")
		}
		if w.Delta == nil {
			return nil, missing(w.Type, "delta")
		}
		var d Delta
		if err := json.Unmarshal(w.Delta, &d); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", w.Type, err)
		}
		return ContentBlockDelta{Index: *w.Index, Delta: d}, nil
	case "content_block_stop":
		if w.Index == nil {
			return nil, missing(w.Type, "index")
		}
		return ContentBlockStop{Index: *w.Index}, nil
	case "message_delta":
		if w.Delta == nil {
			return nil, missing(w.Type, "delta")
		}
		var d wireMessageDelta
		if err := json.Unmarshal(w.Delta, &d); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", w.Type, err)
		}
		ev := MessageDelta{StopReason: d.StopReason, StopSequence: d.StopSequence}
		if w.Usage != nil {
			ev.Usage = *w.Usage
		}
		return ev, nil
	case "message_stop":
		return MessageStop{}, nil
	case "ping":
		return Ping{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", w.Type)
	}
}

func missing(eventType, member string) error {
	return fmt.Errorf("%s: missing %q", eventType, member)
}

// DecodeMessage decodes a non-streaming response body, falling back to the
// error envelope.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	if err == nil && m.Type != "message" {
		err = errNotMessage
	}
	if err == nil {
		return &m, nil
	}
	if envErr, ok := decodeErrorEnvelope(data); ok {
		return nil, envErr
	}
	return nil, vertex.ParseError(providerName, err)
}

// decodeErrorEnvelope maps {"type":"error","error":{...}} to a typed error.
func decodeErrorEnvelope(data []byte) (*vertex.Error, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != "error" || env.Error == nil {
		return nil, false
	}
	return &vertex.Error{
		Kind:     KindFromTag(env.Error.Type),
		Provider: providerName,
		Code:     env.Error.Type,
		Message:  env.Error.Message,
	}, true
}

// errorBody extracts the tag and message of an HTTP error body. Vertex
// answers either with the Anthropic envelope or, for failures in front of
// the model, with a Google API error.
func errorBody(data []byte) (code, message string, ok bool) {
	if e, ok := decodeErrorEnvelope(data); ok {
		return e.Code, e.Message, true
	}
	var google struct {
		Error *genai.APIError `json:"error"`
	}
	if err := json.Unmarshal(data, &google); err != nil || google.Error == nil {
		return "", "", false
	}
	return google.Error.Status, strings.TrimSpace(google.Error.Message), true
}
