// Package envelope defines the binary wire format exchanged between a guest
// module and its host: the request descriptor, the per-capability payload
// envelopes, and the codecs that turn them into bytes.
//
// These types define the ABI contract. Field names, not positions, are what
// the two sides agree on, so fields may be reordered in Go without breaking
// a deployed host.
package envelope

import "fmt"

// Method is an HTTP method token as it appears on the wire.
type Method string

// The only method tokens a host is required to understand.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodDelete Method = "DELETE"
	MethodHead   Method = "HEAD"
	MethodPatch  Method = "PATCH"
	MethodPut    Method = "PUT"
)

// Methods lists every valid method token in wire order.
var Methods = []Method{MethodGet, MethodPost, MethodDelete, MethodHead, MethodPatch, MethodPut}

// ParseMethod returns the Method for a wire token. Matching is case-sensitive.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("envelope: unknown method %q", s)
}

// Valid reports whether m is one of the wire tokens.
func (m Method) Valid() bool {
	_, err := ParseMethod(string(m))
	return err == nil
}

// RequestData describes an outbound HTTP request.
// Headers and Queries are flattened key/value sequences and always have
// even length. Order is preserved; duplicate keys are passed through for
// the host to resolve.
type RequestData struct {
	URL     string   `json:"url" cbor:"url" msgpack:"url" validate:"required,url"`
	Headers []string `json:"headers" cbor:"headers" msgpack:"headers" validate:"pairs"`
	Queries []string `json:"queries" cbor:"queries" msgpack:"queries" validate:"pairs"`
	Method  Method   `json:"method" cbor:"method" msgpack:"method" validate:"required,oneof=GET POST DELETE HEAD PATCH PUT" jsonschema:"enum=GET,enum=POST,enum=DELETE,enum=HEAD,enum=PATCH,enum=PUT"`
}

// NewRequest returns a RequestData with empty header and query sequences.
func NewRequest(url string, method Method) RequestData {
	return RequestData{
		URL:     url,
		Method:  method,
		Headers: []string{},
		Queries: []string{},
	}
}

// AddHeader appends a header pair.
func (r *RequestData) AddHeader(key, value string) {
	r.Headers = append(r.Headers, key, value)
}

// AddQuery appends a query parameter pair.
func (r *RequestData) AddQuery(key, value string) {
	r.Queries = append(r.Queries, key, value)
}

// HeaderPairs returns the headers as key/value pairs.
// A trailing unpaired element is dropped.
func (r RequestData) HeaderPairs() []FormField {
	return pairs(r.Headers)
}

// QueryPairs returns the query parameters as key/value pairs.
func (r RequestData) QueryPairs() []FormField {
	return pairs(r.Queries)
}

// Validate checks the descriptor invariants.
func (r RequestData) Validate() error {
	return Validate(r)
}

func pairs(flat []string) []FormField {
	out := make([]FormField, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, FormField{flat[i], flat[i+1]})
	}
	return out
}

// FormField is one (name, value) pair of a form body.
// It is encoded as a two-element array.
type FormField [2]string

// Field builds a FormField.
func Field(name, value string) FormField {
	return FormField{name, value}
}

// Name returns the field name.
func (f FormField) Name() string { return f[0] }

// Value returns the field value.
func (f FormField) Value() string { return f[1] }

// SendBytes carries a raw byte body.
type SendBytes struct {
	Request RequestData `json:"request_data" cbor:"request_data" msgpack:"request_data" validate:"required"`
	Data    []byte      `json:"data" cbor:"data" msgpack:"data"`
}

// SendString carries a text body.
type SendString struct {
	Request RequestData `json:"request_data" cbor:"request_data" msgpack:"request_data" validate:"required"`
	Data    string      `json:"data" cbor:"data" msgpack:"data"`
}

// SendForm carries an url-encoded form body as ordered pairs.
type SendForm struct {
	Request RequestData `json:"request_data" cbor:"request_data" msgpack:"request_data" validate:"required"`
	Data    []FormField `json:"data" cbor:"data" msgpack:"data"`
}

// SendJSON carries a JSON document that the guest already serialized.
type SendJSON struct {
	Request RequestData `json:"request_data" cbor:"request_data" msgpack:"request_data" validate:"required"`
	Data    string      `json:"data" cbor:"data" msgpack:"data"`
}

// Outcome is the wire shape of a fallible handler result: exactly one of
// Ok or Err is set.
type Outcome[T any] struct {
	Ok  *T      `json:"Ok,omitempty" cbor:"Ok,omitempty" msgpack:"Ok,omitempty"`
	Err *string `json:"Err,omitempty" cbor:"Err,omitempty" msgpack:"Err,omitempty"`
}

// OK wraps a successful value.
func OK[T any](v T) Outcome[T] {
	return Outcome[T]{Ok: &v}
}

// Failed wraps an error message.
func Failed[T any](err error) Outcome[T] {
	msg := err.Error()
	return Outcome[T]{Err: &msg}
}

// Unwrap returns the value, or the carried error message as an error.
func (o Outcome[T]) Unwrap() (T, error) {
	var zero T
	switch {
	case o.Err != nil:
		return zero, &RemoteError{Message: *o.Err}
	case o.Ok != nil:
		return *o.Ok, nil
	default:
		return zero, &RemoteError{Message: "empty outcome"}
	}
}

// RemoteError is an error reported by the other side of the boundary.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}
