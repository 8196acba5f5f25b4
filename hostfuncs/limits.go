package hostfuncs

import (
	"fmt"
	"io"
)

// DefaultMaxBodySize is the default limit for HTTP response bodies (10MB).
const DefaultMaxBodySize = 10 * 1024 * 1024

// DefaultMaxRequestSize limits the size of guest request envelopes (1MB).
const DefaultMaxRequestSize = 1 * 1024 * 1024

// LimitError reports data that exceeded a size limit. Size is a lower bound
// when the data was not read to the end.
type LimitError struct {
	Size  int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("size %d exceeds limit %d", e.Size, e.Limit)
}

// ReadLimited reads r to the end, failing with a LimitError as soon as more
// than limit bytes arrive. It never buffers more than limit+1 bytes.
func ReadLimited(r io.Reader, limit int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, &LimitError{Size: len(data), Limit: limit}
	}
	return data, nil
}
