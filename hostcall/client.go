package hostcall

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/internal/abi"
	"github.com/space-operator/space-go/status"
)

// ErrNoHost is returned when a client has no host or memory attached, which
// is the case for the default client outside a wasm guest.
var ErrNoHost = errors.New("hostcall: no host attached")

// Host dispatches a staged request to the host function of a capability and
// returns its status word.
type Host interface {
	Call(c Capability, ptr, length uint32) uint64
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(c Capability, ptr, length uint32) uint64

// Call implements Host.
func (f HostFunc) Call(c Capability, ptr, length uint32) uint64 {
	return f(c, ptr, length)
}

// Option configures a Client.
type Option func(*Client)

// WithHost sets the host the client calls into.
func WithHost(h Host) Option {
	return func(c *Client) {
		c.host = h
	}
}

// WithMemory sets the linear memory and allocator requests are staged in and
// results are read from.
func WithMemory(mem abi.Memory, alloc abi.Allocator) Option {
	return func(c *Client) {
		c.mem = mem
		c.alloc = alloc
	}
}

// WithCodec sets the envelope codec. The host must speak the same one.
func WithCodec(codec envelope.Codec) Option {
	return func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithLogger sets the logger for call tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client issues host calls. It is not safe for concurrent use, matching the
// single-threaded guest it runs in.
type Client struct {
	host   Host
	mem    abi.Memory
	alloc  abi.Allocator
	codec  envelope.Codec
	logger *slog.Logger
}

// New creates a client. Without options it talks to the host the running
// guest was instantiated with.
func New(opts ...Option) *Client {
	mem, alloc := abi.Guest()
	c := &Client{
		host:   guestHost(),
		mem:    mem,
		alloc:  alloc,
		codec:  envelope.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallRequest performs a request without a body and returns the response body.
func (c *Client) CallRequest(req envelope.RequestData) ([]byte, error) {
	return c.send(CallRequest, req, req)
}

// SendBytes performs a request with a raw byte body.
func (c *Client) SendBytes(req envelope.RequestData, body []byte) ([]byte, error) {
	return c.send(SendBytes, req, envelope.SendBytes{Request: req, Data: body})
}

// SendString performs a request with a text body.
func (c *Client) SendString(req envelope.RequestData, body string) ([]byte, error) {
	return c.send(SendString, req, envelope.SendString{Request: req, Data: body})
}

// SendForm performs a request with an url-encoded form body.
func (c *Client) SendForm(req envelope.RequestData, fields []envelope.FormField) ([]byte, error) {
	if fields == nil {
		fields = []envelope.FormField{}
	}
	return c.send(SendForm, req, envelope.SendForm{Request: req, Data: fields})
}

// SendJSON serializes v to JSON and performs a request with it as the body.
// A value that cannot be serialized fails with status.SerializeData before
// anything is sent.
func (c *Client) SendJSON(req envelope.RequestData, v any) ([]byte, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, status.Wrap(status.SerializeData, fmt.Errorf("json body: %w", err))
	}
	return c.send(SendJSON, req, envelope.SendJSON{Request: req, Data: string(doc)})
}

// Invoke runs the call protocol for a capability with an arbitrary payload
// and hands over the owned result buffer. The caller must Release it.
func (c *Client) Invoke(capability Capability, payload any) (*abi.OwnedBuffer, error) {
	if c.host == nil || c.mem == nil || c.alloc == nil {
		return nil, status.Wrap(status.CallFailed, ErrNoHost)
	}
	if !capability.Valid() {
		return nil, status.Wrap(status.CallFailed, fmt.Errorf("hostcall: invalid capability %d", uint32(capability)))
	}

	data, err := c.codec.Marshal(payload)
	if err != nil {
		return nil, status.Wrap(status.SerializeData, err)
	}

	ptr, length, err := c.stage(data)
	if err != nil {
		return nil, err
	}

	word := c.host.Call(capability, ptr, length)

	if err := c.alloc.Free(ptr, length); err != nil {
		c.logger.Warn("hostcall: release staged request", "capability", capability.ImportName(), "error", err)
	}

	offset, err := status.Decode(word)
	if err != nil {
		c.logger.Debug("hostcall: host reported failure",
			"capability", capability.ImportName(),
			"category", uint32(status.Category(word)),
		)
		return nil, fmt.Errorf("%s: %w", capability.ImportName(), err)
	}

	buf, err := abi.MaterializeBuffer(c.mem, c.alloc, offset)
	if err != nil {
		return nil, status.Wrap(status.AccessMemory, err)
	}
	return buf, nil
}

func (c *Client) send(capability Capability, req envelope.RequestData, payload any) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Wrap(status.SerializeData, err)
	}

	buf, err := c.Invoke(capability, payload)
	if err != nil {
		return nil, err
	}

	body, err := buf.Detach()
	if err != nil {
		return nil, status.Wrap(status.AccessMemory, err)
	}

	c.logger.Debug("hostcall: call completed",
		"capability", capability.ImportName(),
		"url", req.URL,
		"method", string(req.Method),
		"body_len", len(body),
	)
	return body, nil
}

// stage copies data into a fresh guest allocation.
func (c *Client) stage(data []byte) (ptr, length uint32, err error) {
	length = uint32(len(data)) //nolint:gosec // G115: wasm32 buffers are bounded by 4 GiB
	ptr, err = c.alloc.Allocate(length)
	if err != nil {
		return 0, 0, status.Wrap(status.GrowMemory, err)
	}
	if length > 0 && !c.mem.Write(ptr, data) {
		if ferr := c.alloc.Free(ptr, length); ferr != nil {
			c.logger.Warn("hostcall: release unwritten request", "error", ferr)
		}
		return 0, 0, status.Wrap(status.WriteMemory, fmt.Errorf("%w: request at %#x", abi.ErrOutOfBounds, ptr))
	}
	return ptr, length, nil
}
