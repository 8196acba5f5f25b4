package log

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/space-operator/space-go/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLogAttrWire(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		wantType string
		wantVal  string
	}{
		{
			name:     "string",
			attr:     slog.String("key", "value"),
			wantType: "string",
			wantVal:  "value",
		},
		{
			name:     "int64",
			attr:     slog.Int64("key", 123),
			wantType: "int64",
			wantVal:  "123",
		},
		{
			name:     "bool",
			attr:     slog.Bool("key", true),
			wantType: "bool",
			wantVal:  "true",
		},
		{
			name:     "float64",
			attr:     slog.Float64("key", 1.23),
			wantType: "float64",
			wantVal:  "1.230000",
		},
		{
			name:     "time",
			attr:     slog.Time("key", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			wantType: "time",
			wantVal:  "2024-01-01T00:00:00Z",
		},
		{
			name:     "duration",
			attr:     slog.Duration("key", 1*time.Hour),
			wantType: "duration",
			wantVal:  "1h0m0s",
		},
		{
			name:     "error",
			attr:     slog.Any("key", errors.New("test error")),
			wantType: "error",
			wantVal:  "test error",
		},
		{
			name:     "nil",
			attr:     slog.Any("key", nil),
			wantType: "any",
			wantVal:  "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := toLogAttrWire(tt.attr)
			assert.Equal(t, tt.attr.Key, wire.Key)
			assert.Equal(t, tt.wantType, wire.Type)
			assert.Equal(t, tt.wantVal, wire.Value)
		})
	}
}

func TestToLogAttrWire_JSON(t *testing.T) {
	// Test structured object that should be serialized as JSON
	type MyStruct struct {
		Field string `json:"field"`
	}
	obj := MyStruct{Field: "data"}
	attr := slog.Any("key", obj)

	wire := toLogAttrWire(attr)
	assert.Equal(t, "key", wire.Key)
	assert.Equal(t, "json", wire.Type)

	var decoded MyStruct
	err := json.Unmarshal([]byte(wire.Value), &decoded)
	require.NoError(t, err)
	assert.Equal(t, obj, decoded)
}

func TestToLogAttrWire_LogValuer(t *testing.T) {
	// Test types that implement LogValuer
	attr := slog.Any("key", logValuer{val: "resolved"})
	wire := toLogAttrWire(attr)

	assert.Equal(t, "key", wire.Key)
	assert.Equal(t, "string", wire.Type)
	assert.Equal(t, "resolved", wire.Value)
}

type logValuer struct {
	val string
}

func (l logValuer) LogValue() slog.Value {
	return slog.StringValue(l.val)
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler()
	assert.NotNil(t, h)
	assert.True(t, h.Enabled(context.TODO(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.TODO(), slog.LevelDebug))
}

func TestNewHandler_Options(t *testing.T) {
	h := NewHandler(
		WithLevel(slog.LevelDebug),
		WithSource(true),
	)
	assert.True(t, h.Enabled(context.TODO(), slog.LevelDebug))
	assert.True(t, h.opts.addSource)
}

func TestNewHandler_WithCodec(t *testing.T) {
	var payloads [][]byte
	logger := slog.New(NewHandler(
		WithCodec(envelope.MessagePack),
		WithSink(func(payload []byte) { payloads = append(payloads, payload) }),
	))
	logger.Info("quote fetched", "slot", 42)

	require.Len(t, payloads, 1)
	msg, err := Decode(envelope.MessagePack, payloads[0])
	require.NoError(t, err)
	assert.Equal(t, "quote fetched", msg.Message)

	_, err = Decode(envelope.CBOR, payloads[0])
	assert.Error(t, err)
}

// capture collects decoded records from a handler sink.
func capture(t *testing.T, opts ...HandlerOption) (*slog.Logger, *[]LogMessageWire) {
	t.Helper()
	var records []LogMessageWire
	sink := func(payload []byte) {
		msg, err := Decode(envelope.CBOR, payload)
		require.NoError(t, err)
		records = append(records, msg)
	}
	return slog.New(NewHandler(append(opts, WithSink(sink))...)), &records
}

func TestHandler_Handle(t *testing.T) {
	logger, records := capture(t)

	logger.Info("fetched", "url", "https://x", "status", 200)
	logger.Debug("filtered out")

	require.Len(t, *records, 1)
	msg := (*records)[0]
	assert.Equal(t, "INFO", msg.Level)
	assert.Equal(t, "fetched", msg.Message)
	assert.Equal(t, []LogAttrWire{
		{Key: "url", Type: "string", Value: "https://x"},
		{Key: "status", Type: "int64", Value: "200"},
	}, msg.Attrs)
	assert.Empty(t, msg.Source)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Minute)
}

func TestHandler_WithAttrsAndGroups(t *testing.T) {
	logger, records := capture(t)

	logger.With("module", "swap").WithGroup("req").Warn("slow", "ms", 900, slog.Group("peer", "id", "p1"))

	require.Len(t, *records, 1)
	assert.Equal(t, "WARN", (*records)[0].Level)
	assert.Equal(t, []LogAttrWire{
		{Key: "module", Type: "string", Value: "swap"},
		{Key: "req.ms", Type: "int64", Value: "900"},
		{Key: "req.peer.id", Type: "string", Value: "p1"},
	}, (*records)[0].Attrs)
}

func TestHandler_WithGroupDoesNotLeak(t *testing.T) {
	logger, records := capture(t)

	_ = logger.WithGroup("g")
	logger.Info("plain", "k", "v")

	require.Len(t, *records, 1)
	assert.Equal(t, "k", (*records)[0].Attrs[0].Key)
}

func TestHandler_Source(t *testing.T) {
	logger, records := capture(t, WithSource(true))
	logger.Error("with source")

	require.Len(t, *records, 1)
	assert.Contains(t, (*records)[0].Source, "log_test.go:")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelDebug+2, ParseLevel("DEBUG+2"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestLogMessageWire_SlogAttrs(t *testing.T) {
	msg := LogMessageWire{
		Attrs:  []LogAttrWire{{Key: "a", Type: "int64", Value: "1"}},
		Source: "main.go:3",
	}
	assert.Equal(t, []any{slog.String("a", "1"), slog.String("guest_source", "main.go:3")}, msg.SlogAttrs())
}
