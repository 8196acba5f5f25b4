// Package status implements the status word returned by every host call.
//
// A status word is a u64. The high 32 bits hold the category: 0 means
// success, anything else names a failure. The low 32 bits hold the payload,
// which is only meaningful on success; whether it is a byte length or a
// guest memory offset is fixed per host function, not encoded in the word.
package status

import (
	"errors"
	"fmt"
)

// PayloadMask selects the payload half of a status word.
const PayloadMask = 0xFFFFFFFF

// Kind is a status category. Every non-zero Kind is an error value, so a
// decoded failure can be matched with errors.Is.
type Kind uint32

// Failure categories. The numeric values are part of the host ABI.
const (
	OK              Kind = 0
	ReadBytes       Kind = 1  // host could not read the request bytes from guest memory
	Deserialize     Kind = 2  // host could not decode the request envelope
	CallHTTPRequest Kind = 3  // the HTTP call itself failed
	ReadResponse    Kind = 4  // the response body could not be read
	AccessMemory    Kind = 5  // guest memory could not be accessed
	SendWithBody    Kind = 6  // a request carrying a body failed
	SerializeData   Kind = 7  // data could not be serialized
	GrowMemory      Kind = 8  // guest memory could not be grown for the result
	WriteMemory     Kind = 9  // the result could not be written into guest memory
	CallFailed      Kind = 10 // any other failure, including unknown categories
)

var kindNames = map[Kind]string{
	OK:              "ok",
	ReadBytes:       "read bytes",
	Deserialize:     "deserialize",
	CallHTTPRequest: "call http request",
	ReadResponse:    "read response",
	AccessMemory:    "access memory",
	SendWithBody:    "send with body",
	SerializeData:   "serialize data",
	GrowMemory:      "grow memory",
	WriteMemory:     "write memory",
	CallFailed:      "call failed",
}

// Known reports whether k is one of the defined categories.
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// String returns the category name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// Error implements error.
func (k Kind) Error() string {
	return "host call failed: " + k.String()
}

// Category returns the category half of a status word.
func Category(word uint64) Kind {
	return Kind(word >> 32)
}

// Decode splits a status word. On success it returns the payload. On failure
// it returns the failure Kind and the payload must be ignored; unknown
// categories decode to CallFailed.
func Decode(word uint64) (uint32, error) {
	kind := Category(word)
	switch {
	case kind == OK:
		return uint32(word & PayloadMask), nil
	case kind.Known():
		return 0, kind
	default:
		return 0, CallFailed
	}
}

// Encode builds a status word.
func Encode(kind Kind, payload uint32) uint64 {
	return uint64(kind)<<32 | uint64(payload)
}

// Success builds a success word carrying payload.
func Success(payload uint32) uint64 {
	return Encode(OK, payload)
}

// Failure builds a failure word with a zero payload.
// Passing OK yields CallFailed so that a failure can never read as success.
func Failure(kind Kind) uint64 {
	if kind == OK {
		kind = CallFailed
	}
	return Encode(kind, 0)
}

// KindOf maps an error to the category reported to the guest.
// nil maps to OK; errors that carry no Kind map to CallFailed.
func KindOf(err error) Kind {
	if err == nil {
		return OK
	}
	var k Kind
	if errors.As(err, &k) && k != OK {
		return k
	}
	return CallFailed
}

// Wrap attaches a Kind to err so that KindOf and errors.Is see it.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}
