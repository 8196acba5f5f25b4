package hostcall

import (
	"sync"

	"github.com/space-operator/space-go/envelope"
)

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// Default returns the client bound to the running guest.
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient = New()
	})
	return defaultClient
}

// Call performs a request without a body through the default client.
func Call(req envelope.RequestData) ([]byte, error) {
	return Default().CallRequest(req)
}

// Bytes performs a request with a byte body through the default client.
func Bytes(req envelope.RequestData, body []byte) ([]byte, error) {
	return Default().SendBytes(req, body)
}

// String performs a request with a text body through the default client.
func String(req envelope.RequestData, body string) ([]byte, error) {
	return Default().SendString(req, body)
}

// Form performs a request with a form body through the default client.
func Form(req envelope.RequestData, fields []envelope.FormField) ([]byte, error) {
	return Default().SendForm(req, fields)
}

// JSON performs a request with a JSON body through the default client.
func JSON(req envelope.RequestData, v any) ([]byte, error) {
	return Default().SendJSON(req, v)
}
