package vertex

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrNoTokenProvider indicates a client was built without credentials.
	ErrNoTokenProvider = errors.New("no token provider configured")
)

// ErrorKind classifies a failure into a closed taxonomy. HTTP statuses and
// provider error tags are both mapped onto it.
type ErrorKind int

const (
	KindInternal          ErrorKind = iota // 500, unrecognized status or tag.
	KindInvalidArgument                    // 400, malformed request.
	KindPermissionDenied                   // 403.
	KindNotFound                           // 404.
	KindResourceExhausted                  // 429.
	KindCancelled                          // 499.
	KindUnavailable                        // 503.
	KindDeadlineExceeded                   // 504.
	KindAuthentication                     // Token acquisition failed.
	KindParse                              // Any decode failure.
	KindInvalidRequest                     // Provider tag: invalid request.
	KindRateLimit                          // Provider tag: rate limited.
	KindOverloaded                         // Provider tag: overloaded.
	KindRequest                            // Sending the request or reading the body failed.
)

var kindNames = map[ErrorKind]string{
	KindInternal:          "internal",
	KindInvalidArgument:   "invalid argument",
	KindPermissionDenied:  "permission denied",
	KindNotFound:          "not found",
	KindResourceExhausted: "resource exhausted",
	KindCancelled:         "cancelled",
	KindUnavailable:       "unavailable",
	KindDeadlineExceeded:  "deadline exceeded",
	KindAuthentication:    "authentication error",
	KindParse:             "parse error",
	KindInvalidRequest:    "invalid request",
	KindRateLimit:         "rate limited",
	KindOverloaded:        "overloaded",
	KindRequest:           "request error",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

var statusKinds = map[int]ErrorKind{
	http.StatusBadRequest:          KindInvalidArgument,
	http.StatusForbidden:           KindPermissionDenied,
	http.StatusNotFound:            KindNotFound,
	http.StatusTooManyRequests:     KindResourceExhausted,
	499:                            KindCancelled, // client closed request
	http.StatusInternalServerError: KindInternal,
	http.StatusServiceUnavailable:  KindUnavailable,
	http.StatusGatewayTimeout:      KindDeadlineExceeded,
}

// KindFromStatus maps an HTTP status code to an [ErrorKind]. Unrecognized
// statuses map to [KindInternal].
func KindFromStatus(status int) ErrorKind {
	if k, ok := statusKinds[status]; ok {
		return k
	}
	return KindInternal
}

// Canonical status names as they appear in Google API error bodies.
var statusNameKinds = map[string]ErrorKind{
	"INVALID_ARGUMENT":    KindInvalidArgument,
	"FAILED_PRECONDITION": KindInvalidArgument,
	"OUT_OF_RANGE":        KindInvalidArgument,
	"PERMISSION_DENIED":   KindPermissionDenied,
	"NOT_FOUND":           KindNotFound,
	"RESOURCE_EXHAUSTED":  KindResourceExhausted,
	"CANCELLED":           KindCancelled,
	"INTERNAL":            KindInternal,
	"UNAVAILABLE":         KindUnavailable,
	"DEADLINE_EXCEEDED":   KindDeadlineExceeded,
	"UNAUTHENTICATED":     KindAuthentication,
}

// KindFromStatusName maps a canonical Google status name such as
// "RESOURCE_EXHAUSTED" to an [ErrorKind]. Matching is case-insensitive;
// unknown names map to [KindInternal].
func KindFromStatusName(name string) ErrorKind {
	if k, ok := statusNameKinds[strings.ToUpper(name)]; ok {
		return k
	}
	return KindInternal
}

// Error is the typed failure delivered by clients and streams.
type Error struct {
	Kind     ErrorKind
	Provider string // "gemini" or "anthropic"; empty for provider-independent failures.
	Status   int    // HTTP status or provider error code, 0 when unknown.
	Code     string // Provider error tag, e.g. "overloaded_error" or "RESOURCE_EXHAUSTED".
	Message  string
	Err      error // Underlying cause, if any.
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the [ErrorKind] of the first [*Error] in err's chain, or
// [KindInternal] when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ParseError builds a [KindParse] error for the given provider.
func ParseError(provider string, err error) *Error {
	return &Error{Kind: KindParse, Provider: provider, Err: err}
}
