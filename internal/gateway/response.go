package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/gemora/internal/errors"
)

// Response is a successful (2xx) backend answer.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is nil for Download, whose body goes to the caller's writer.
	Body []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(errors.ErrCodeHTTPDecode, "failed to decode response", err)
	}
	return nil
}
