package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/middleware"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/response"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into dst and answers 400 on failure.
// Unknown fields are rejected so typos do not silently drop values.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", fmt.Sprintf("%v", err))
		return false
	}
	return true
}

func owner(r *http.Request) string {
	return middleware.Owner(r.Context())
}
