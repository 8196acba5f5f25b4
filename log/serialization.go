package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/space-operator/space-go/envelope"
)

// LogMessageWire is the wire format of a log record sent from guest to host.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp" cbor:"timestamp" msgpack:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty" cbor:"attrs,omitempty" msgpack:"attrs,omitempty"`
	Level     string        `json:"level" cbor:"level" msgpack:"level"`
	Message   string        `json:"message" cbor:"message" msgpack:"message"`
	Source    string        `json:"source,omitempty" cbor:"source,omitempty" msgpack:"source,omitempty"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
// Group attributes are flattened into dotted keys.
type LogAttrWire struct {
	Key   string `json:"key" cbor:"key" msgpack:"key"`
	Type  string `json:"type" cbor:"type" msgpack:"type"`    // "string", "int64", "bool", "float64", "time", "error", "json", "any"
	Value string `json:"value" cbor:"value" msgpack:"value"` // String representation of the value
}

// Encode serializes a record.
func Encode(codec envelope.Codec, msg LogMessageWire) ([]byte, error) {
	return codec.Marshal(msg)
}

// Decode parses a record produced by Encode.
func Decode(codec envelope.Codec, payload []byte) (LogMessageWire, error) {
	return envelope.Decode[LogMessageWire](codec, payload)
}

// ParseLevel maps a wire level back to a slog.Level. Unknown levels map to Info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SlogAttrs converts wire attributes into slog key/value arguments.
func (m LogMessageWire) SlogAttrs() []any {
	out := make([]any, 0, len(m.Attrs)+1)
	for _, a := range m.Attrs {
		out = append(out, slog.String(a.Key, a.Value))
	}
	if m.Source != "" {
		out = append(out, slog.String("guest_source", m.Source))
	}
	return out
}

func appendAttr(dst []LogAttrWire, groups []string, attr slog.Attr) []LogAttrWire {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		sub := groups
		if attr.Key != "" {
			sub = append(append([]string(nil), groups...), attr.Key)
		}
		for _, a := range attr.Value.Group() {
			dst = appendAttr(dst, sub, a)
		}
		return dst
	}
	wire := toLogAttrWire(attr)
	if len(groups) > 0 {
		wire.Key = strings.Join(groups, ".") + "." + wire.Key
	}
	return append(dst, wire)
}

// toLogAttrWire converts a slog.Attr to LogAttrWire.
func toLogAttrWire(attr slog.Attr) LogAttrWire {
	wire := LogAttrWire{
		Key: attr.Key,
	}
	attr.Value = attr.Value.Resolve()

	switch attr.Value.Kind() {
	case slog.KindString:
		wire.Type = "string"
		wire.Value = attr.Value.String()
	case slog.KindInt64:
		wire.Type = "int64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Int64())
	case slog.KindUint64:
		wire.Type = "uint64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Uint64())
	case slog.KindBool:
		wire.Type = "bool"
		wire.Value = fmt.Sprintf("%t", attr.Value.Bool())
	case slog.KindFloat64:
		wire.Type = "float64"
		wire.Value = fmt.Sprintf("%f", attr.Value.Float64())
	case slog.KindTime:
		wire.Type = "time"
		wire.Value = attr.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type = "duration"
		wire.Value = attr.Value.Duration().String()
	case slog.KindAny:
		v := attr.Value.Any()
		switch {
		case v == nil:
			wire.Type = "any"
			wire.Value = "<nil>"
		case isError(v):
			wire.Type = "error"
			wire.Value = v.(error).Error()
		default:
			if data, err := json.Marshal(v); err == nil {
				wire.Type = "json"
				wire.Value = string(data)
			} else {
				wire.Type = "any"
				wire.Value = fmt.Sprintf("%v", v)
			}
		}
	default:
		wire.Type = "any"
		wire.Value = fmt.Sprintf("%v", attr.Value.Any())
	}
	return wire
}

func isError(v any) bool {
	_, ok := v.(error)
	return ok
}
