package gemini_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/gemini"
	"github.com/fwojciec/vertex/mock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const (
	elemHello = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello"}]},"index":0}],"modelVersion":"gemini-2.0-flash-001"}`
	elemWorld = `{"candidates":[{"content":{"role":"model","parts":[{"text":" wörld 🦀"}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":3,"totalTokenCount":7}}`
)

// streamBody is a two-element array body as Vertex AI frames it.
var streamBody = "[" + elemHello + "\n,\r\n" + elemWorld + "\n]"

// decodeChunks feeds chunks through a fresh decoder, then Finish.
func decodeChunks(chunks ...string) ([]*gemini.GenerateContentResponse, error) {
	var (
		d   gemini.ArrayDecoder
		out []*gemini.GenerateContentResponse
	)
	for _, c := range chunks {
		resps, done, err := d.Decode([]byte(c))
		out = append(out, resps...)
		if err != nil {
			return out, err
		}
		if done {
			return out, nil
		}
	}
	return out, d.Finish()
}

func texts(resps []*gemini.GenerateContentResponse) []string {
	var out []string
	for _, r := range resps {
		out = append(out, r.Text())
	}
	return out
}

func TestArrayDecoder_Decode(t *testing.T) {
	t.Parallel()

	t.Run("one element per chunk", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("["+elemHello, ",", elemWorld, "]")
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello", " wörld 🦀"}, texts(got))
	})

	t.Run("bare start marker", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("[{", elemHello, ",", elemWorld, "]")
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello", " wörld 🦀"}, texts(got))
	})

	t.Run("whole body in one chunk", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks(streamBody)
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello", " wörld 🦀"}, texts(got))
	})

	t.Run("continuation line carries the next element", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("["+elemHello+"\n", ",\r\n"+elemWorld+"\n", "]")
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello", " wörld 🦀"}, texts(got))
	})

	t.Run("object split mid-key is buffered", func(t *testing.T) {
		t.Parallel()
		var d gemini.ArrayDecoder
		out, done, err := d.Decode([]byte(`[{"candida`))
		require.NoError(t, err)
		assert.False(t, done)
		assert.Empty(t, out)
		assert.Equal(t, `{"candida`, d.Pending())

		out, done, err = d.Decode([]byte(`tes":[{"content":{"parts":[{"text":"hi"}]}}]}`))
		require.NoError(t, err)
		assert.False(t, done)
		require.Len(t, out, 1)
		assert.Equal(t, "hi", out[0].Text())
		assert.Empty(t, d.Pending())
	})

	t.Run("split at every byte offset", func(t *testing.T) {
		t.Parallel()
		want, err := decodeChunks(streamBody)
		require.NoError(t, err)
		for i := 1; i < len(streamBody); i++ {
			got, err := decodeChunks(streamBody[:i], streamBody[i:])
			require.NoError(t, err, "split at %d", i)
			assert.Equal(t, want, got, "split at %d", i)
		}
	})

	t.Run("byte at a time", func(t *testing.T) {
		t.Parallel()
		var chunks []string
		for i := range len(streamBody) {
			chunks = append(chunks, streamBody[i:i+1])
		}
		got, err := decodeChunks(chunks...)
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello", " wörld 🦀"}, texts(got))
	})

	t.Run("preserves order", func(t *testing.T) {
		t.Parallel()
		chunks := []string{"["}
		for i := range 50 {
			if i > 0 {
				chunks = append(chunks, ",")
			}
			chunks = append(chunks, fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":"%d"}]}}]}`, i))
		}
		chunks = append(chunks, "]")
		got, err := decodeChunks(chunks...)
		require.NoError(t, err)
		require.Len(t, got, 50)
		for i, r := range got {
			assert.Equal(t, fmt.Sprint(i), r.Text())
		}
	})

	t.Run("ignores input after end", func(t *testing.T) {
		t.Parallel()
		var d gemini.ArrayDecoder
		_, _, err := d.Decode([]byte("[" + elemHello))
		require.NoError(t, err)
		out, done, err := d.Decode([]byte("]"))
		require.NoError(t, err)
		assert.True(t, done)
		assert.Empty(t, out)

		out, done, err = d.Decode([]byte("," + elemWorld))
		require.NoError(t, err)
		assert.True(t, done)
		assert.Empty(t, out)
		assert.NoError(t, d.Finish())
	})

	t.Run("closing bracket after content ends the array", func(t *testing.T) {
		t.Parallel()
		var d gemini.ArrayDecoder
		_, _, err := d.Decode([]byte("[" + elemHello))
		require.NoError(t, err)
		out, done, err := d.Decode([]byte("," + elemWorld + "\n]"))
		require.NoError(t, err)
		assert.True(t, done)
		assert.Len(t, out, 1)
	})

	t.Run("blank chunks are ignored", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("\n", "["+elemHello, "\r\n", ",", "  ", elemWorld, "]")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("rune split across chunks", func(t *testing.T) {
		t.Parallel()
		idx := strings.Index(streamBody, "🦀")
		got, err := decodeChunks(streamBody[:idx+2], streamBody[idx+2:])
		require.NoError(t, err)
		assert.Equal(t, " wörld 🦀", got[1].Text())
	})
}

func TestArrayDecoder_Errors(t *testing.T) {
	t.Parallel()

	t.Run("self-contained error chunk", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks(`[{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}]`)
		assert.Empty(t, got)

		var verr *vertex.Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, vertex.KindResourceExhausted, verr.Kind)
		assert.Equal(t, "gemini", verr.Provider)
		assert.Equal(t, 429, verr.Status)
		assert.Equal(t, "RESOURCE_EXHAUSTED", verr.Code)
		assert.Equal(t, "quota", verr.Message)

		var apiErr genai.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 429, apiErr.Code)
	})

	t.Run("self-contained error without status", func(t *testing.T) {
		t.Parallel()
		_, err := decodeChunks("[{\n  \"error\": {\n    \"code\": 429,\n    \"message\": \"quota\"\n  }\n}\n]")
		assert.Equal(t, vertex.KindResourceExhausted, vertex.KindOf(err))
	})

	t.Run("error chunk ends the stream", func(t *testing.T) {
		t.Parallel()
		var d gemini.ArrayDecoder
		_, done, err := d.Decode([]byte(`[{"error":{"code":503,"message":"down","status":"UNAVAILABLE"}}]`))
		assert.True(t, done)
		assert.Equal(t, vertex.KindUnavailable, vertex.KindOf(err))

		out, done, err := d.Decode([]byte(elemHello))
		assert.True(t, done)
		assert.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("single-element success array in one chunk", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("[" + elemHello + "]")
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello"}, texts(got))
	})

	t.Run("mid-stream error element", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("["+elemHello, ",", `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`, "]")
		assert.Equal(t, []string{"Hello"}, texts(got))
		assert.Equal(t, vertex.KindInternal, vertex.KindOf(err))
	})

	t.Run("type mismatch is a parse error", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("["+elemHello, ",", `{"candidates":"nope"}`, "]")
		assert.Len(t, got, 1)
		assert.Equal(t, vertex.KindParse, vertex.KindOf(err))
	})

	t.Run("malformed JSON is a parse error", func(t *testing.T) {
		t.Parallel()
		_, err := decodeChunks(`[{"candidates":]}`)
		assert.Equal(t, vertex.KindParse, vertex.KindOf(err))
	})

	t.Run("invalid UTF-8", func(t *testing.T) {
		t.Parallel()
		_, err := decodeChunks("[{\"candidates\":[]}", "\xff\xfe")
		assert.Equal(t, vertex.KindParse, vertex.KindOf(err))
	})

	t.Run("body ends inside an object", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("["+elemHello, `,{"candidates":[`)
		assert.Len(t, got, 1)
		assert.Equal(t, vertex.KindParse, vertex.KindOf(err))
	})

	t.Run("body ends without closing bracket", func(t *testing.T) {
		t.Parallel()
		got, err := decodeChunks("[" + elemHello)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("data after closing bracket", func(t *testing.T) {
		t.Parallel()
		_, err := decodeChunks("["+elemHello, "] trailing")
		assert.Equal(t, vertex.KindParse, vertex.KindOf(err))
	})
}

func TestReadArray(t *testing.T) {
	t.Parallel()

	collect := func(body *mock.ChunkedBody) ([]*gemini.GenerateContentResponse, error) {
		s := vertex.NewStream(context.Background(), func(ctx context.Context, send *vertex.Sender[*gemini.GenerateContentResponse]) {
			gemini.ReadArray(ctx, body, send, zerolog.Nop())
		})
		return vertex.Collect(s)
	}

	t.Run("emits responses then ends", func(t *testing.T) {
		t.Parallel()
		got, err := collect(mock.Chunks("["+elemHello, ",", elemWorld, "]", "[garbage after end"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello", " wörld 🦀"}, texts(got))
		assert.Equal(t, genai.FinishReasonStop, got[1].FinishReason())
	})

	t.Run("read failure is a request error", func(t *testing.T) {
		t.Parallel()
		body := mock.Chunks("[" + elemHello)
		body.Err = errors.New("connection reset")
		got, err := collect(body)
		assert.Len(t, got, 1)
		assert.Equal(t, vertex.KindRequest, vertex.KindOf(err))
	})

	t.Run("truncated body is a parse error", func(t *testing.T) {
		t.Parallel()
		got, err := collect(mock.Chunks("["+elemHello, `,{"cand`))
		assert.Len(t, got, 1)
		assert.Equal(t, vertex.KindParse, vertex.KindOf(err))
	})
}
