package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHostContext(t *testing.T) {
	hc := NewHostContext(context.Background(), "http_call_request")

	require.NotNil(t, hc)
	assert.Equal(t, "http_call_request", hc.FunctionName())
	assert.Empty(t, hc.RequestID())
}

func TestHostContext_SetGetValue(t *testing.T) {
	hc := NewHostContext(context.Background(), "test_func")

	_, ok := hc.GetValue("key1")
	assert.False(t, ok)

	hc.SetValue("key1", "value1")
	hc.SetValue("key2", 42)

	val, ok := hc.GetValue("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", val)

	val2, ok := hc.GetValue("key2")
	assert.True(t, ok)
	assert.Equal(t, 42, val2)
}

func TestHostContext_PropagatesParent(t *testing.T) {
	parent, cancel := context.WithCancel(WithRequestID(context.Background(), "id-7"))
	hc := NewHostContext(parent, "http_send_json")

	assert.Equal(t, "id-7", hc.RequestID())

	cancel()
	<-hc.Done()
	assert.ErrorIs(t, hc.Err(), context.Canceled)
}

func TestHostContextFrom(t *testing.T) {
	hc := NewHostContext(context.Background(), "a")

	assert.Same(t, hc, HostContextFrom(hc, "a"))

	other := HostContextFrom(hc, "b")
	assert.Equal(t, "b", other.FunctionName())

	fresh := HostContextFrom(context.Background(), "c")
	assert.Equal(t, "c", fresh.FunctionName())
}

func TestRequestIDFrom_Missing(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
}
