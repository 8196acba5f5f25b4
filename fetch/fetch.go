// Package fetch is a request builder over the host HTTP capabilities.
//
//	resp, err := fetch.Get("https://api.example.com/items").
//	    Set("Accept", "application/json").
//	    Query("limit", "10").
//	    Call()
//	if err != nil {
//	    return err
//	}
//	items, err := fetch.Decode[[]Item](resp)
package fetch

import (
	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/hostcall"
)

// Request accumulates a request descriptor. Builder methods modify the
// request in place and return it for chaining.
type Request struct {
	data   envelope.RequestData
	client *hostcall.Client
}

// New starts a request with the given method.
func New(url string, method envelope.Method) *Request {
	return &Request{data: envelope.NewRequest(url, method)}
}

// Get starts a GET request.
func Get(url string) *Request { return New(url, envelope.MethodGet) }

// Post starts a POST request.
func Post(url string) *Request { return New(url, envelope.MethodPost) }

// Delete starts a DELETE request.
func Delete(url string) *Request { return New(url, envelope.MethodDelete) }

// Head starts a HEAD request.
func Head(url string) *Request { return New(url, envelope.MethodHead) }

// Patch starts a PATCH request.
func Patch(url string) *Request { return New(url, envelope.MethodPatch) }

// Put starts a PUT request.
func Put(url string) *Request { return New(url, envelope.MethodPut) }

// WithClient sends the request through c instead of the default client.
func (r *Request) WithClient(c *hostcall.Client) *Request {
	r.client = c
	return r
}

// Set appends a header. Repeated names are all sent.
func (r *Request) Set(header, value string) *Request {
	r.data.AddHeader(header, value)
	return r
}

// Query appends a query parameter.
func (r *Request) Query(param, value string) *Request {
	r.data.AddQuery(param, value)
	return r
}

// Descriptor returns a copy of the request descriptor built so far.
func (r *Request) Descriptor() envelope.RequestData {
	d := r.data
	d.Headers = append([]string{}, r.data.Headers...)
	d.Queries = append([]string{}, r.data.Queries...)
	return d
}

// Call sends the request without a body.
func (r *Request) Call() (*Response, error) {
	return respond(r.hostClient().CallRequest(r.data))
}

// SendBytes sends the request with a raw byte body.
func (r *Request) SendBytes(body []byte) (*Response, error) {
	return respond(r.hostClient().SendBytes(r.data, body))
}

// SendString sends the request with a text body.
func (r *Request) SendString(body string) (*Response, error) {
	return respond(r.hostClient().SendString(r.data, body))
}

// SendForm sends the request with an url-encoded form body. Field order is
// preserved.
func (r *Request) SendForm(fields ...envelope.FormField) (*Response, error) {
	return respond(r.hostClient().SendForm(r.data, fields))
}

// SendJSON serializes v to JSON and sends it as the body.
func (r *Request) SendJSON(v any) (*Response, error) {
	return respond(r.hostClient().SendJSON(r.data, v))
}

func (r *Request) hostClient() *hostcall.Client {
	if r.client != nil {
		return r.client
	}
	return hostcall.Default()
}

func respond(body []byte, err error) (*Response, error) {
	if err != nil {
		return nil, err
	}
	return &Response{body: body}, nil
}
