package export

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/host"
	"github.com/space-operator/space-go/internal/abi"
)

func newEnv() (Env, *abi.Arena) {
	arena := abi.NewArena(4096, abi.DefaultArenaLimit)
	return Env{Memory: arena, Allocator: arena, Codec: envelope.CBOR}, arena
}

func call(t *testing.T, env Env, input []byte, entry func(ptr uint32) uint32) []byte {
	t.Helper()
	out, err := host.Invoke(env.Memory, env.Allocator, input, func(ptr uint32) (uint32, error) {
		return entry(ptr), nil
	})
	require.NoError(t, err)
	return out
}

func TestInvoke_DoublesInteger(t *testing.T) {
	env, arena := newEnv()

	in, err := env.Codec.Marshal(uint64(21))
	require.NoError(t, err)

	out := call(t, env, in, func(ptr uint32) uint32 {
		return Invoke(env, ptr, func(n uint64) uint64 { return n * 2 })
	})

	got, err := envelope.Decode[uint64](env.Codec, out)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	count, _ := arena.Live()
	assert.Zero(t, count, "input, output and descriptor must all be released")
}

type greeting struct {
	Name  string `cbor:"name"`
	Times int    `cbor:"times"`
}

func TestInvoke_Struct(t *testing.T) {
	for _, codec := range []envelope.Codec{envelope.CBOR, envelope.MessagePack} {
		t.Run(codec.Name(), func(t *testing.T) {
			env, arena := newEnv()
			env.Codec = codec

			in, err := codec.Marshal(greeting{Name: "space", Times: 2})
			require.NoError(t, err)

			out := call(t, env, in, func(ptr uint32) uint32 {
				return Invoke(env, ptr, func(g greeting) []string {
					res := make([]string, 0, g.Times)
					for range g.Times {
						res = append(res, "hello "+g.Name)
					}
					return res
				})
			})

			got, err := envelope.Decode[[]string](codec, out)
			require.NoError(t, err)
			assert.Equal(t, []string{"hello space", "hello space"}, got)

			count, _ := arena.Live()
			assert.Zero(t, count)
		})
	}
}

func TestInvokeNoInput_IgnoresPointer(t *testing.T) {
	env, arena := newEnv()

	addr := InvokeNoInput(env, func() string { return "ready" })
	out, err := abi.TakeExposed(env.Memory, env.Allocator, addr)
	require.NoError(t, err)

	got, err := envelope.Decode[string](env.Codec, out)
	require.NoError(t, err)
	assert.Equal(t, "ready", got)

	count, _ := arena.Live()
	assert.Zero(t, count)
}

func TestInvokeResult(t *testing.T) {
	env, _ := newEnv()
	in, err := env.Codec.Marshal(int64(-1))
	require.NoError(t, err)

	checked := func(n int64) (int64, error) {
		if n < 0 {
			return 0, errors.New("negative input")
		}
		return n + 1, nil
	}

	out := call(t, env, in, func(ptr uint32) uint32 {
		return InvokeResult(env, ptr, checked)
	})
	res, err := envelope.Decode[envelope.Outcome[int64]](env.Codec, out)
	require.NoError(t, err)
	_, err = res.Unwrap()
	var remote *envelope.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "negative input", remote.Message)

	in, err = env.Codec.Marshal(int64(41))
	require.NoError(t, err)
	out = call(t, env, in, func(ptr uint32) uint32 {
		return InvokeResult(env, ptr, checked)
	})
	res, err = envelope.Decode[envelope.Outcome[int64]](env.Codec, out)
	require.NoError(t, err)
	v, err := res.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestInvokeResultNoInput(t *testing.T) {
	env, _ := newEnv()

	addr := InvokeResultNoInput(env, func() (bool, error) { return true, nil })
	out, err := abi.TakeExposed(env.Memory, env.Allocator, addr)
	require.NoError(t, err)

	res, err := envelope.Decode[envelope.Outcome[bool]](env.Codec, out)
	require.NoError(t, err)
	v, err := res.Unwrap()
	require.NoError(t, err)
	assert.True(t, v)
}

func TestInvoke_UndecodableInputPanics(t *testing.T) {
	env, _ := newEnv()
	ptr, err := abi.WriteInput(env.Memory, env.Allocator, []byte{0xff, 0xff})
	require.NoError(t, err)

	ran := false
	assert.Panics(t, func() {
		Invoke(env, ptr, func(n uint64) uint64 {
			ran = true
			return n
		})
	})
	assert.False(t, ran, "function must not run on bad input")
}

func TestInvoke_NullInputPanics(t *testing.T) {
	env, _ := newEnv()
	assert.Panics(t, func() {
		Invoke(env, 0, func(n uint64) uint64 { return n })
	})
}
