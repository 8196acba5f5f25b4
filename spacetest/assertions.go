package spacetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/status"
)

// AssertNoLeaks asserts that no allocation in the host's memory is live.
func AssertNoLeaks(t testing.TB, h *Host) {
	t.Helper()
	count, bytes := h.Memory().Live()
	assert.Zero(t, count, "%d live allocations holding %d bytes", count, bytes)
}

// AssertKind asserts that err carries the given status kind.
func AssertKind(t testing.TB, err error, kind status.Kind, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	assert.ErrorIs(t, err, kind, msgAndArgs...)
	assert.Equal(t, kind, status.KindOf(err), msgAndArgs...)
}

// RequireCall returns the i-th recorded call.
func RequireCall(t testing.TB, h *Host, i int) Call {
	t.Helper()
	calls := h.Calls()
	require.Greater(t, len(calls), i, "expected at least %d calls", i+1)
	return calls[i]
}

// DecodePayload decodes the payload of a recorded call with the host codec.
func DecodePayload[T any](t testing.TB, h *Host, call Call) T {
	t.Helper()
	v, err := envelope.Decode[T](h.Codec(), call.Payload)
	require.NoError(t, err, "decode %s payload", call.Capability)
	return v
}
