package envelope

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes values into envelope bytes and back.
type Codec interface {
	// Name identifies the codec in errors and configuration.
	Name() string

	// Marshal encodes v. It fails with *SerializationError.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v, which must be a non-nil pointer.
	// It fails with *DeserializationError on truncated input, a shape
	// mismatch, unknown fields, or trailing bytes.
	Unmarshal(data []byte, v any) error
}

// Codec names accepted by Lookup.
const (
	CodecCBOR        = "cbor"
	CodecMessagePack = "msgpack"
)

var (
	// CBOR is the canonical codec: named fields, deterministic key order,
	// strict decoding. Nil slices and maps are written as empty containers,
	// so they decode as empty, never nil.
	CBOR Codec = newCBORCodec()

	// MessagePack encodes structs as named-field maps. It exists for hosts
	// that speak the MessagePack wire. Nil slices are written as nil and
	// decode as nil.
	MessagePack Codec = msgpackCodec{}
)

// Default returns the codec used when none is configured.
func Default() Codec {
	return CBOR
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	switch name {
	case "", CodecCBOR:
		return CBOR, nil
	case CodecMessagePack:
		return MessagePack, nil
	default:
		return nil, fmt.Errorf("envelope: unknown codec %q", name)
	}
}

// Marshal encodes v with the default codec.
func Marshal(v any) ([]byte, error) {
	return Default().Marshal(v)
}

// Unmarshal decodes data into v with the default codec.
func Unmarshal(data []byte, v any) error {
	return Default().Unmarshal(data, v)
}

// Decode is a typed wrapper around Codec.Unmarshal.
func Decode[T any](c Codec, data []byte) (T, error) {
	var v T
	err := c.Unmarshal(data, &v)
	return v, err
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.NaNConvert = cbor.NaNConvertReject
	encOpts.InfConvert = cbor.InfConvertReject
	encOpts.NilContainers = cbor.NilContainerAsEmpty
	enc, err := encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("envelope: invalid cbor encode options: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
	}
	dec, err := decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("envelope: invalid cbor decode options: %v", err))
	}

	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) Name() string { return CodecCBOR }

func (c cborCodec) Marshal(v any) ([]byte, error) {
	data, err := c.enc.Marshal(v)
	if err != nil {
		return nil, &SerializationError{Codec: CodecCBOR, Type: typeName(v), Err: err}
	}
	return data, nil
}

func (c cborCodec) Unmarshal(data []byte, v any) error {
	// Unmarshal already reports trailing bytes as ExtraneousDataError.
	if err := c.dec.Unmarshal(data, v); err != nil {
		return &DeserializationError{Codec: CodecCBOR, Type: typeName(v), Err: err}
	}
	return nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return CodecMessagePack }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, &SerializationError{Codec: CodecMessagePack, Type: typeName(v), Err: err}
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(v); err != nil {
		return &DeserializationError{Codec: CodecMessagePack, Type: typeName(v), Err: err}
	}
	if r.Len() > 0 {
		return &DeserializationError{
			Codec: CodecMessagePack,
			Type:  typeName(v),
			Err:   fmt.Errorf("%d trailing bytes", r.Len()),
		}
	}
	return nil
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// SerializationError reports a value that cannot be represented on the wire.
type SerializationError struct {
	Err   error
	Codec string
	Type  string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("envelope: %s encode %s: %v", e.Codec, e.Type, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// DeserializationError reports bytes that do not decode into the expected shape.
type DeserializationError struct {
	Err   error
	Codec string
	Type  string
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("envelope: %s decode %s: %v", e.Codec, e.Type, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
