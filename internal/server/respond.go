package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
)

// errInvalidTopK rejects non-numeric top_k query parameters.
var errInvalidTopK = verrors.Validation("top_k must be an integer")

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error's category to an HTTP status and writes the
// error envelope. Plain errors surface as 500 with a generic message.
func writeError(w http.ResponseWriter, err error) {
	detail := errorDetail{
		Code:    verrors.ErrCodeInternal,
		Message: "internal error",
	}
	var ve *verrors.Error
	if errors.As(err, &ve) {
		detail.Code = ve.Code
		detail.Message = ve.Message
	}
	writeJSON(w, verrors.HTTPStatus(err), errorBody{Error: detail})
}

// decodeJSON reads the request body into v, rejecting unparseable input.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return verrors.Validation(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// pathUUID parses the {id} path segment.
func pathUUID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, verrors.Validation(fmt.Sprintf("%q is not a valid UUID", raw))
	}
	return id, nil
}
