package gemini

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/fwojciec/vertex"
)

var errErrorMember = errors.New("object carries an error member")

// DecodeResponse decodes one complete JSON object. It tries the response
// schema first and only then the error envelope; an object matching neither
// yields a [vertex.KindParse] error.
func DecodeResponse(data []byte) (*GenerateContentResponse, error) {
	resp, err := decodeSuccess(data)
	if err == nil {
		return resp, nil
	}
	if envErr, ok := decodeErrorEnvelope(data); ok {
		return nil, envErr
	}
	return nil, vertex.ParseError(providerName, err)
}

// decodeSuccess rejects objects that carry an "error" member: every field
// of the response is optional, so an envelope would otherwise decode as an
// empty response.
func decodeSuccess(data []byte) (*GenerateContentResponse, error) {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if probe.Error != nil {
		return nil, errErrorMember
	}
	var resp GenerateContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// decodeErrorEnvelope maps an error envelope to a typed error. ok is false
// when data is not an envelope.
func decodeErrorEnvelope(data []byte) (*vertex.Error, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Error == nil {
		return nil, false
	}
	apiErr := *env.Error
	kind := vertex.KindFromStatusName(apiErr.Status)
	if apiErr.Code != 0 {
		kind = vertex.KindFromStatus(apiErr.Code)
	}
	return &vertex.Error{
		Kind:     kind,
		Provider: providerName,
		Status:   apiErr.Code,
		Code:     apiErr.Status,
		Message:  apiErr.Message,
		Err:      apiErr,
	}, true
}

// errorBody extracts the tag and message of an HTTP error body, which
// Vertex sends either bare or wrapped in a one-element array.
func errorBody(data []byte) (code, message string, ok bool) {
	data = bytes.TrimSpace(data)
	if e, ok := decodeErrorEnvelope(data); ok {
		return e.Code, e.Message, true
	}
	var wrapped []json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil || len(wrapped) == 0 {
		return "", "", false
	}
	if e, ok := decodeErrorEnvelope(wrapped[0]); ok {
		return e.Code, e.Message, true
	}
	return "", "", false
}
