package api

import (
	"net/http"

	"github.com/jslink/jslink/internal/executor"
)

// HandleExecute returns a handler for POST /api/execute and
// POST /api/execute-direct. Both accept the same payload; direct execution
// is the request_id-less form.
func HandleExecute(exec *executor.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload executor.Payload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}

		resp, err := exec.Execute(r.Context(), payload)
		if err != nil {
			writeExecutorError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
