package hostfuncs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/space-operator/space-go/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantMsg string
	}{
		{name: "string", value: "test panic", wantMsg: "panic: test panic"},
		{name: "error", value: errors.New("boom"), wantMsg: "panic: boom"},
		{name: "other", value: 42, wantMsg: "panic recovered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panicHandler := func(ctx context.Context, payload []byte) ([]byte, error) {
				panic(tt.value)
			}

			wrapped := PanicRecoveryMiddleware()(panicHandler)

			resp, err := wrapped(context.Background(), []byte("{}"))
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.Equal(t, status.CallFailed, status.KindOf(err))

			var perr *PanicError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantMsg, perr.Error())
		})
	}
}

func TestPanicRecoveryMiddleware_NoPanic(t *testing.T) {
	normalHandler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte("ok"), nil
	}

	wrapped := PanicRecoveryMiddleware()(normalHandler)

	resp, err := wrapped(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp))
}

func TestMiddleware_AppliesToAllHandlers(t *testing.T) {
	handlerCalls := make(map[string]bool)

	trackingMiddleware := func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			if hc, ok := ctx.(HostContext); ok {
				handlerCalls[hc.FunctionName()] = true
			}
			return next(ctx, payload)
		}
	}

	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}

	reg, err := NewRegistry(
		WithMiddleware(trackingMiddleware),
		WithByteHandler("handler1", handler),
		WithByteHandler("handler2", handler),
	)
	require.NoError(t, err)

	_, _ = reg.Invoke(context.Background(), "handler1", nil)
	_, _ = reg.Invoke(context.Background(), "handler2", nil)

	assert.True(t, handlerCalls["handler1"])
	assert.True(t, handlerCalls["handler2"])
}

func TestLoggingMiddleware(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg, err := NewRegistry(
		WithMiddleware(LoggingMiddleware(logger)),
		WithByteHandler("ok", func(ctx context.Context, payload []byte) ([]byte, error) {
			return []byte("ok"), nil
		}),
		WithByteHandler("fail", func(ctx context.Context, payload []byte) ([]byte, error) {
			return nil, status.Wrap(status.ReadResponse, errors.New("short body"))
		}),
	)
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "abc")
	_, err = reg.Invoke(ctx, "ok", nil)
	require.NoError(t, err)
	_, err = reg.Invoke(ctx, "fail", nil)
	require.Error(t, err)

	logs := out.String()
	assert.Contains(t, logs, "host function completed")
	assert.Contains(t, logs, "function=ok")
	assert.Contains(t, logs, "request_id=abc")
	assert.Contains(t, logs, "host function failed")
	assert.Contains(t, logs, `kind="read response"`)
}

func TestRequestLimitMiddleware(t *testing.T) {
	called := false
	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		called = true
		return nil, nil
	}

	wrapped := RequestLimitMiddleware(4)(handler)

	_, err := wrapped(context.Background(), []byte("1234"))
	require.NoError(t, err)
	assert.True(t, called)

	called = false
	_, err = wrapped(context.Background(), []byte("12345"))
	assert.Equal(t, status.ReadBytes, status.KindOf(err))
	assert.False(t, called)

	var lerr *LimitError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 5, lerr.Size)
}
