package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/matzehuels/picgraph/pkg/errors"
)

// DefaultBodyLimit caps request bodies read by DecodeJSON.
const DefaultBodyLimit = 8 << 20

// ErrorBody is the JSON shape of error responses.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error code and user-facing message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// WriteError writes err as an ErrorBody. The status comes from
// errors.HTTPStatus; errors without a code are reported as INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	WriteJSON(w, errors.HTTPStatus(err), ErrorBody{Error: ErrorDetail{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}})
}

// DecodeJSON decodes the request body into v, reading at most limit bytes
// (DefaultBodyLimit when limit <= 0). Failures carry INVALID_INPUT.
func DecodeJSON(r *http.Request, v any, limit int64) error {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
