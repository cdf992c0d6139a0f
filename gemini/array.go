package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/vertex"
)

var (
	errInvalidUTF8      = errors.New("chunk is not valid UTF-8")
	errIncompleteObject = errors.New("stream ended inside an object")
	errTrailingData     = errors.New("data after closing bracket")
)

// frameToken classifies the first line of a chunk.
type frameToken int

const (
	tokenUnrecognized frameToken = iota // Mid-object data, kept verbatim.
	tokenStart                          // "[{": opens the array.
	tokenContinuation                   // ",": separates two elements.
	tokenEnd                            // "]": closes the array.
)

func classify(line string) frameToken {
	switch t := strings.TrimSpace(line); {
	case t == "]":
		return tokenEnd
	case strings.HasPrefix(t, "["):
		return tokenStart
	case strings.HasPrefix(t, ","):
		return tokenContinuation
	default:
		return tokenUnrecognized
	}
}

type arrayState int

const (
	stateAwaitingFirstToken arrayState = iota
	stateStreaming
	stateEnded
)

// ArrayDecoder reassembles the elements of a streamed JSON array from
// arbitrarily split chunks. The zero value is ready to use. An ArrayDecoder
// belongs to one stream and is not safe for concurrent use.
type ArrayDecoder struct {
	state   arrayState
	pending strings.Builder
	partial []byte // incomplete trailing UTF-8 sequence
}

// Decode consumes one chunk and returns the elements it completed. done is
// true once the array was closed or a fatal error occurred; err is that
// error. After done, Decode ignores its input.
func (d *ArrayDecoder) Decode(chunk []byte) (out []*GenerateContentResponse, done bool, err error) {
	if d.state == stateEnded {
		return nil, true, nil
	}
	data, partial := splitIncomplete(append(d.partial, chunk...))
	d.partial = partial
	if !utf8.Valid(data) {
		return d.fail(vertex.ParseError(providerName, errInvalidUTF8))
	}

	// Some servers send "[{" as a bare start marker and repeat the brace at
	// the start of the first element. "{{" is never valid JSON.
	if strings.TrimSpace(d.pending.String()) == "{" && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		d.pending.Reset()
	}
	text := d.pending.String() + string(data)
	d.pending.Reset()

	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, false, nil
	}

	// A chunk that is a whole array on its own is almost always an error
	// envelope. Anything else falls through to element-wise decoding.
	if selfContained(lines, text) {
		inner := strings.TrimSpace(text)
		inner = strings.TrimSpace(inner[1 : len(inner)-1])
		if envErr, ok := decodeErrorEnvelope([]byte(inner)); ok {
			return d.fail(envErr)
		}
	}

	var content []string
	switch classify(lines[0]) {
	case tokenStart:
		first := strings.TrimPrefix(strings.TrimSpace(lines[0]), "[")
		content = append([]string{first}, lines[1:]...)
	case tokenContinuation:
		first := strings.TrimPrefix(strings.TrimSpace(lines[0]), ",")
		content = append([]string{first}, lines[1:]...)
	case tokenEnd:
		d.end()
		return nil, true, nil
	case tokenUnrecognized:
		content = lines
	}
	d.state = stateStreaming

	values, rest, closed, err := splitValues(strings.Join(content, "\n"))
	for _, v := range values {
		resp, derr := DecodeResponse([]byte(v))
		if derr != nil {
			return d.failAfter(out, derr)
		}
		out = append(out, resp)
	}
	if err != nil {
		return d.failAfter(out, vertex.ParseError(providerName, err))
	}
	if closed {
		d.end()
		return out, true, nil
	}
	d.pending.WriteString(rest)
	return out, false, nil
}

// Finish reports an error when the body ended with an incomplete element
// buffered. It ends the decoder.
func (d *ArrayDecoder) Finish() error {
	ended := d.state == stateEnded
	incomplete := strings.TrimSpace(d.pending.String()) != ""
	truncated := len(d.partial) > 0
	d.end()
	switch {
	case ended:
		return nil
	case truncated:
		return vertex.ParseError(providerName, errInvalidUTF8)
	case incomplete:
		return vertex.ParseError(providerName, errIncompleteObject)
	}
	return nil
}

// Pending returns the buffered fragment awaiting more bytes.
func (d *ArrayDecoder) Pending() string {
	return d.pending.String()
}

func (d *ArrayDecoder) end() {
	d.state = stateEnded
	d.pending.Reset()
	d.partial = nil
}

func (d *ArrayDecoder) fail(err error) ([]*GenerateContentResponse, bool, error) {
	d.end()
	return nil, true, err
}

func (d *ArrayDecoder) failAfter(out []*GenerateContentResponse, err error) ([]*GenerateContentResponse, bool, error) {
	d.end()
	return out, true, err
}

// splitIncomplete separates a multi-byte sequence cut off at the end of b,
// which is completed by the next chunk.
func splitIncomplete(b []byte) (data, rest []byte) {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if !utf8.FullRune(b[start:]) {
			return b[:start], bytes.Clone(b[start:])
		}
		break
	}
	return b, nil
}

// splitLines splits on "\n", strips a trailing "\r" from each line and drops
// leading and trailing blank lines.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// selfContained reports whether the chunk opens and closes the array and is
// complete JSON.
func selfContained(lines []string, text string) bool {
	first := strings.TrimSpace(lines[0])
	last := strings.TrimSpace(lines[len(lines)-1])
	return strings.HasPrefix(first, "[") && strings.HasSuffix(last, "]") &&
		json.Valid([]byte(strings.TrimSpace(text)))
}

// splitValues extracts the complete JSON values from content. Values may be
// separated by "," and the content may end with the closing "]". rest holds
// an incomplete trailing value.
func splitValues(content string) (values []string, rest string, closed bool, err error) {
	i := 0
	for {
		i = skipSpace(content, i)
		if i == len(content) {
			return values, "", false, nil
		}
		switch content[i] {
		case ',':
			i++
			continue
		case ']':
			if skipSpace(content, i+1) != len(content) {
				return values, "", true, errTrailingData
			}
			return values, "", true, nil
		}

		dec := json.NewDecoder(strings.NewReader(content[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return values, content[i:], false, nil
			}
			return values, "", false, err
		}
		values = append(values, string(raw))
		i += int(dec.InputOffset())
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}
