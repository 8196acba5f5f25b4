package host

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/hostfuncs"
	guestlog "github.com/space-operator/space-go/log"
)

func TestAdapterConfig_Defaults(t *testing.T) {
	cfg := defaultAdapterConfig()
	assert.Equal(t, "env", cfg.ModuleName)
	assert.Equal(t, uint32(hostfuncs.DefaultMaxRequestSize), cfg.MaxRequestSize)
	assert.Equal(t, envelope.CodecCBOR, cfg.LogCodec.Name())

	for _, opt := range []AdapterOption{
		WithModuleName(""),
		WithMaxRequestSize(0),
		WithAdapterLogger(nil),
	} {
		opt(&cfg)
	}
	assert.Equal(t, "env", cfg.ModuleName, "empty values keep the defaults")
	assert.NotNil(t, cfg.Logger)

	WithModuleName("space")(&cfg)
	WithMaxRequestSize(128)(&cfg)
	assert.Equal(t, "space", cfg.ModuleName)
	assert.Equal(t, uint32(128), cfg.MaxRequestSize)
}

func TestEmitGuestLog(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	payload, err := guestlog.Encode(envelope.CBOR, guestlog.LogMessageWire{
		Timestamp: time.Unix(1700000000, 0),
		Level:     "WARN",
		Message:   "quote stale",
		Source:    "swap.go:42",
		Attrs:     []guestlog.LogAttrWire{{Key: "pair", Type: "string", Value: "SOL/USDC"}},
	})
	require.NoError(t, err)

	ctx := hostfuncs.WithRequestID(context.Background(), "req-1")
	EmitGuestLog(ctx, logger, envelope.CBOR, payload)

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "quote stale", record["msg"])
	assert.Equal(t, "SOL/USDC", record["pair"])
	assert.Equal(t, "swap.go:42", record["guest_source"])
	assert.Equal(t, "req-1", record["request_id"])
}

func TestGuestLog_MessagePack(t *testing.T) {
	var out bytes.Buffer
	hostLogger := slog.New(slog.NewJSONHandler(&out, nil))

	cfg := defaultAdapterConfig()
	WithLogCodec(envelope.MessagePack)(&cfg)
	WithLogCodec(nil)(&cfg)
	require.Equal(t, envelope.CodecMessagePack, cfg.LogCodec.Name())

	guest := slog.New(guestlog.NewHandler(
		guestlog.WithCodec(envelope.MessagePack),
		guestlog.WithSink(func(payload []byte) {
			EmitGuestLog(context.Background(), hostLogger, cfg.LogCodec, payload)
		}),
	))
	guest.Info("balance read", "lamports", 5000)

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "balance read", record["msg"])
	assert.Equal(t, "5000", record["lamports"])
}

func TestExecutor_LogCodecFollowsExecutorCodec(t *testing.T) {
	e := &Executor{logger: slog.Default(), codec: envelope.MessagePack}
	cfg := defaultAdapterConfig()
	for _, opt := range e.adapterOptions() {
		opt(&cfg)
	}
	assert.Equal(t, envelope.CodecMessagePack, cfg.LogCodec.Name())

	e.adapterOpts = []AdapterOption{WithLogCodec(envelope.CBOR)}
	cfg = defaultAdapterConfig()
	for _, opt := range e.adapterOptions() {
		opt(&cfg)
	}
	assert.Equal(t, envelope.CodecCBOR, cfg.LogCodec.Name(), "explicit adapter option wins")
}

func TestEmitGuestLog_Undecodable(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))

	EmitGuestLog(context.Background(), logger, envelope.CBOR, []byte{0xff})

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "guest log (undecodable)", record["msg"])
	assert.EqualValues(t, 1, record["len"])
}

func TestExecutor_LoadModuleRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.LoadModule(ctx, []byte("not wasm"))
	assert.ErrorContains(t, err, "failed to instantiate module")
}

func TestExecutor_FromConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("module: a.wasm\ncodec: msgpack\n"))
	require.NoError(t, err)

	opts, err := cfg.Options(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)

	ctx := context.Background()
	e, err := NewExecutor(ctx, opts...)
	require.NoError(t, err)
	assert.Equal(t, envelope.CodecMessagePack, e.codec.Name())
	assert.True(t, e.registry.Has("http_send_json"))
	require.NoError(t, e.Close(ctx))
}
