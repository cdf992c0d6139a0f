// Package sse reads Server-Sent Events records and drives the
// event-framing decode loop shared by the streaming clients.
package sse

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 4 << 20

// Record is a sealed interface over the records a [Reader] produces.
// The unexported marker method prevents external implementations.
type Record interface {
	record()
}

// Open signals that the stream is established. It carries no payload and is
// always the first record.
type Open struct{}

func (Open) record() {}

// Message is one dispatched event.
type Message struct {
	Event string // "event:" field; empty for data-only events.
	Data  string // "data:" lines joined with "\n".
	ID    string
}

func (Message) record() {}

// Interface compliance checks.
var (
	_ Record = Open{}
	_ Record = Message{}
)

// Reader reads SSE records from a byte stream.
type Reader struct {
	scanner *bufio.Scanner
	opened  bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: sc}
}

// Next returns the next record. The first call returns [Open]. Returns io.EOF
// when the stream ends.
func (r *Reader) Next() (Record, error) {
	if !r.opened {
		r.opened = true
		return Open{}, nil
	}

	var msg Message
	var data strings.Builder
	hasData := false

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if hasData {
				msg.Data = data.String()
				return msg, nil
			}
			// Dispatch of an event without data is a no-op.
			msg = Message{}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			msg.Event = value
		case "id":
			msg.ID = value
		}
		// "retry" and unknown fields are ignored.
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if hasData {
		msg.Data = data.String()
		return msg, nil
	}
	return nil, io.EOF
}

// parseLine splits a line into field and value, dropping one space after
// the colon.
func parseLine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = strings.TrimPrefix(line[idx+1:], " ")
	return field, value
}
