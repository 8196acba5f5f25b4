// Package export is the runtime half of generated entry points.
//
// A generated entry point has the signature func(ptr uint32) uint32. ptr is
// the address of a host-owned input buffer: a little-endian u32 length
// followed by that many encoded bytes. The return value is the address of a
// (len, ptr) descriptor of the encoded result, which the host owns and frees.
//
// Input that cannot be read or decoded aborts the call with a panic, which
// traps the module. There is no channel to report it otherwise.
package export

import (
	"fmt"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/internal/abi"
)

// Env is the memory, allocator and codec an entry point runs against.
type Env struct {
	Memory    abi.Memory
	Allocator abi.Allocator
	Codec     envelope.Codec
}

// GuestEnv returns the environment of the running guest module.
// It panics outside a wasm guest.
func GuestEnv() Env {
	mem, alloc := abi.Guest()
	if mem == nil || alloc == nil {
		panic("export: no guest memory; entry points run only inside a wasm guest")
	}
	return Env{Memory: mem, Allocator: alloc, Codec: envelope.Default()}
}

func (e Env) codec() envelope.Codec {
	if e.Codec == nil {
		return envelope.Default()
	}
	return e.Codec
}

// Input reads and decodes the input buffer at ptr.
func Input[In any](env Env, ptr uint32) In {
	data, err := abi.ReadInput(env.Memory, ptr)
	if err != nil {
		panic(fmt.Sprintf("export: read input at %#x: %v", ptr, err))
	}
	in, err := envelope.Decode[In](env.codec(), data)
	if err != nil {
		panic(fmt.Sprintf("export: decode input: %v", err))
	}
	return in
}

// Output encodes v, hands the bytes to the host and returns the address of
// their descriptor. Neither the bytes nor the descriptor are freed by the
// guest.
func Output[Out any](env Env, v Out) uint32 {
	data, err := env.codec().Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("export: encode output: %v", err))
	}
	desc, err := abi.ExposeBuffer(env.Memory, env.Allocator, data)
	if err != nil {
		panic(fmt.Sprintf("export: expose output: %v", err))
	}
	addr, err := abi.WriteDescriptor(env.Memory, env.Allocator, desc)
	if err != nil {
		panic(fmt.Sprintf("export: write descriptor: %v", err))
	}
	return addr
}

// Invoke runs fn on the decoded input at ptr and returns the output descriptor.
func Invoke[In, Out any](env Env, ptr uint32, fn func(In) Out) uint32 {
	return Output(env, fn(Input[In](env, ptr)))
}

// InvokeNoInput runs fn without reading ptr.
func InvokeNoInput[Out any](env Env, fn func() Out) uint32 {
	return Output(env, fn())
}

// InvokeResult runs a fallible fn. Its outcome is encoded as
// envelope.Outcome, so the error reaches the host as data.
func InvokeResult[In, Out any](env Env, ptr uint32, fn func(In) (Out, error)) uint32 {
	return Output(env, outcome(fn(Input[In](env, ptr))))
}

// InvokeResultNoInput runs a fallible fn without reading ptr.
func InvokeResultNoInput[Out any](env Env, fn func() (Out, error)) uint32 {
	return Output(env, outcome(fn()))
}

func outcome[Out any](v Out, err error) envelope.Outcome[Out] {
	if err != nil {
		return envelope.Failed[Out](err)
	}
	return envelope.OK(v)
}

// Handle is Invoke against the running guest. Generated code calls it.
func Handle[In, Out any](ptr uint32, fn func(In) Out) uint32 {
	return Invoke(GuestEnv(), ptr, fn)
}

// HandleNoInput is InvokeNoInput against the running guest.
func HandleNoInput[Out any](fn func() Out) uint32 {
	return InvokeNoInput(GuestEnv(), fn)
}

// HandleResult is InvokeResult against the running guest.
func HandleResult[In, Out any](ptr uint32, fn func(In) (Out, error)) uint32 {
	return InvokeResult(GuestEnv(), ptr, fn)
}

// HandleResultNoInput is InvokeResultNoInput against the running guest.
func HandleResultNoInput[Out any](fn func() (Out, error)) uint32 {
	return InvokeResultNoInput(GuestEnv(), fn)
}
