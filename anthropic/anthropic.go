// Package anthropic streams Claude responses from Vertex AI.
//
// streamRawPredict answers with Server-Sent Events whose payloads carry a
// "type" discriminator. Each payload is decoded into one of the sealed
// [Event] variants; [MessageStop] ends the stream even if the connection
// stays open. Error envelopes are mapped to [vertex.Error] kinds by their
// tag.
package anthropic

import (
	"encoding/json"
	"strings"
)

const (
	providerName    = "anthropic"
	publisher       = "anthropic"
	defaultLocation = "us-east5"

	// Version is the anthropic_version Vertex AI expects in request bodies.
	Version = "vertex-2023-10-16"
)

// Request is a convenience body for rawPredict and streamRawPredict. The
// client marshals any value, so callers may send their own type instead.
type Request struct {
	AnthropicVersion string         `json:"anthropic_version"`
	Messages         []MessageParam `json:"messages"`
	MaxTokens        int            `json:"max_tokens"`
	System           string         `json:"system,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty"`
	Stream           bool           `json:"stream,omitempty"`
}

type MessageParam struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// StopReason is the raw stop_reason string.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopSequence  StopReason = "stop_sequence"
	StopToolUse   StopReason = "tool_use"
	StopPauseTurn StopReason = "pause_turn"
	StopRefusal   StopReason = "refusal"
)

// Message is a complete response, or the skeleton sent in message_start.
type Message struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   StopReason     `json:"stop_reason,omitempty"`
	StopSequence *string        `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// Text concatenates the text blocks of m.
func (m *Message) Text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == BlockText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// Content block types.
const (
	BlockText     = "text"
	BlockThinking = "thinking"
	BlockToolUse  = "tool_use"
)

// ContentBlock holds one block. Different fields are populated depending on
// Type.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Usage is reported in message_start and in non-streaming responses. Cache
// fields are nullable.
type Usage struct {
	InputTokens              uint32  `json:"input_tokens"`
	OutputTokens             uint32  `json:"output_tokens"`
	CacheCreationInputTokens *uint32 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *uint32 `json:"cache_read_input_tokens,omitempty"`
}

// DeltaUsage is the cumulative usage carried by message_delta. All fields
// except OutputTokens may be absent.
type DeltaUsage struct {
	OutputTokens             uint32  `json:"output_tokens"`
	InputTokens              *uint32 `json:"input_tokens,omitempty"`
	CacheCreationInputTokens *uint32 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *uint32 `json:"cache_read_input_tokens,omitempty"`
}

// Event is a decoded stream event. The concrete types are the ones listed
// in this file; the set is closed.
type Event interface {
	event()
}

type MessageStart struct {
	Message Message
}

type ContentBlockStart struct {
	Index        int
	ContentBlock ContentBlock
}

// Delta types.
const (
	DeltaText      = "text_delta"
	DeltaInputJSON = "input_json_delta"
	DeltaThinking  = "thinking_delta"
	DeltaSignature = "signature_delta"
)

type ContentBlockDelta struct {
	Index int
	Delta Delta
}

type Delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	Signature   string `json:"signature,omitempty"`
}

type ContentBlockStop struct {
	Index int
}

type MessageDelta struct {
	StopReason   StopReason
	StopSequence *string
	Usage        DeltaUsage
}

// MessageStop ends the stream.
type MessageStop struct{}

type Ping struct{}

func (MessageStart) event()      {}
func (ContentBlockStart) event() {}
func (ContentBlockDelta) event() {}
func (ContentBlockStop) event()  {}
func (MessageDelta) event()      {}
func (MessageStop) event()       {}
func (Ping) event()              {}

// Interface compliance checks.
var (
	_ Event = MessageStart{}
	_ Event = ContentBlockStart{}
	_ Event = ContentBlockDelta{}
	_ Event = ContentBlockStop{}
	_ Event = MessageDelta{}
	_ Event = MessageStop{}
	_ Event = Ping{}
)

// Wire shapes.

type wireEvent struct {
	Type         string          `json:"type"`
	Index        *int            `json:"index"`
	Message      *Message        `json:"message"`
	ContentBlock *ContentBlock   `json:"content_block"`
	Delta        json.RawMessage `json:"delta"`
	Usage        *DeltaUsage     `json:"usage"`
}

type wireMessageDelta struct {
	StopReason   StopReason `json:"stop_reason"`
	StopSequence *string    `json:"stop_sequence"`
}

type errorEnvelope struct {
	Type  string       `json:"type"`
	Error *errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
