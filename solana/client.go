// Package solana calls a Solana JSON-RPC endpoint through the host HTTP
// capabilities.
//
//	rpc := solana.New("https://api.mainnet-beta.solana.com")
//	resp, err := rpc.GetBalance("So11111111111111111111111111111111111111112")
//	if err != nil {
//	    return err
//	}
//	balance, err := solana.Result[solana.Balance](resp)
package solana

import (
	"encoding/json"
	"fmt"

	"github.com/space-operator/space-go/fetch"
	"github.com/space-operator/space-go/hostcall"
)

// JSONRPCVersion is the protocol version sent with every request.
const JSONRPCVersion = "2.0"

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// Client sends JSON-RPC requests to one endpoint.
type Client struct {
	url    string
	client *hostcall.Client
}

// New returns a client for the endpoint at url.
func New(url string) *Client {
	return &Client{url: url}
}

// WithClient sends requests through hc instead of the default client.
func (c *Client) WithClient(hc *hostcall.Client) *Client {
	c.client = hc
	return c
}

// URL returns the endpoint.
func (c *Client) URL() string {
	return c.url
}

// NewRequest builds the request Call sends.
func NewRequest(method string, params ...any) Request {
	return Request{JSONRPC: JSONRPCVersion, ID: 1, Method: method, Params: params}
}

// Call posts a JSON-RPC request and returns the raw response. Use Result to
// decode it.
func (c *Client) Call(method string, params ...any) (*fetch.Response, error) {
	req := fetch.Post(c.url)
	if c.client != nil {
		req.WithClient(c.client)
	}
	return req.SendJSON(NewRequest(method, params...))
}

// RPCError is an error object returned by the endpoint.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("solana rpc error %d: %s", e.Code, e.Message)
}

type envelopeResponse[T any] struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      uint64    `json:"id"`
	Result  T         `json:"result"`
	Error   *RPCError `json:"error,omitempty"`
}

// Result decodes the result member of a JSON-RPC response. An error member
// is returned as *RPCError.
func Result[T any](resp *fetch.Response) (T, error) {
	var zero T
	out, err := fetch.Decode[envelopeResponse[T]](resp)
	if err != nil {
		return zero, err
	}
	if out.Error != nil {
		return zero, out.Error
	}
	return out.Result, nil
}

// Context is the slot a value was observed at.
type Context struct {
	Slot uint64 `json:"slot"`
}

// Balance is the result of getBalance.
type Balance struct {
	Context Context `json:"context"`
	Value   uint64  `json:"value"`
}

// Blockhash is the value of getLatestBlockhash.
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// LatestBlockhash is the result of getLatestBlockhash.
type LatestBlockhash struct {
	Context Context   `json:"context"`
	Value   Blockhash `json:"value"`
}
