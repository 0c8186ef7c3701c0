package client

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedEnvelope is returned when a response body is not a JSON object
var ErrMalformedEnvelope = errors.New("malformed response envelope")

// Envelope is the {code, message, data} wrapper every endpoint responds with
type Envelope struct {
	Code    string
	Message string
	Data    json.RawMessage
}

// successCodes are the envelope codes that mean the call succeeded
var successCodes = map[string]bool{"": true, "0": true, "20000": true}

// DecodeEnvelope reads an envelope from a response body. Numeric and string
// codes are both accepted.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedEnvelope
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrMalformedEnvelope
	}

	env := &Envelope{
		Code:    root.Get("code").String(),
		Message: root.Get("message").String(),
	}
	if data := root.Get("data"); data.Exists() {
		env.Data = json.RawMessage(data.Raw)
	}
	return env, nil
}

// OK reports whether the envelope code is a success code
func (e *Envelope) OK() bool {
	return successCodes[e.Code]
}

// Err returns an *APIError for non-success codes and nil otherwise
func (e *Envelope) Err() error {
	if e.OK() {
		return nil
	}
	return &APIError{Code: e.Code, Message: e.Message}
}

// HasData reports whether the envelope carries a non-empty payload. Absent
// data, null, false, 0, "", and empty objects or arrays count as empty.
func (e *Envelope) HasData() bool {
	raw := strings.TrimSpace(string(e.Data))
	if raw == "" || raw == "null" {
		return false
	}
	parsed := gjson.Parse(raw)
	switch {
	case parsed.IsObject():
		return len(parsed.Map()) > 0
	case parsed.IsArray():
		return len(parsed.Array()) > 0
	}
	switch parsed.Type {
	case gjson.False:
		return false
	case gjson.Number:
		return parsed.Num != 0
	case gjson.String:
		return parsed.Str != ""
	}
	return true
}

// DecodeData unmarshals the payload into v
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return errors.New("response has no data")
	}
	return json.Unmarshal(e.Data, v)
}
