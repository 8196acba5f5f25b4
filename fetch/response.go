package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Response is the body returned by the host. The host passes non-2xx
// responses through, so the body is returned whatever the status was.
type Response struct {
	body []byte
}

// NewResponse wraps a body.
func NewResponse(body []byte) *Response {
	return &Response{body: body}
}

// Bytes returns the raw body.
func (r *Response) Bytes() []byte {
	return r.body
}

// Len returns the body length.
func (r *Response) Len() int {
	return len(r.body)
}

// String returns the body as text. A body that is not valid UTF-8 fails
// with a *DecodeError.
func (r *Response) String() (string, error) {
	if !utf8.Valid(r.body) {
		return "", &DecodeError{Format: "utf-8", Err: errInvalidUTF8(r.body)}
	}
	return string(r.body), nil
}

// JSON decodes the body into v. The body must be valid UTF-8 and valid JSON.
func (r *Response) JSON(v any) error {
	if !utf8.Valid(r.body) {
		return &DecodeError{Format: "utf-8", Err: errInvalidUTF8(r.body)}
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return &DecodeError{Format: "json", Err: err}
	}
	return nil
}

// Decode decodes a JSON response body into a T.
func Decode[T any](r *Response) (T, error) {
	var v T
	err := r.JSON(&v)
	return v, err
}

// DecodeError reports a response body that could not be decoded.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func errInvalidUTF8(b []byte) error {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return fmt.Errorf("invalid byte at offset %d", i)
		}
		i += size
	}
	return errors.New("invalid utf-8")
}
