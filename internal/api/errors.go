package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jslink/jslink/internal/executor"
	"github.com/jslink/jslink/internal/store"
)

func writeInvalidArgument(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "NOT_FOUND", message)
}

func writePayloadTooLarge(w http.ResponseWriter, limit int64) {
	msg := "request body too large"
	if limit > 0 {
		msg = "request body too large (max " + strconv.FormatInt(limit, 10) + " bytes)"
	}
	WriteError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", msg)
}

func writeDecodeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *requestBodyTooLargeError
	if errors.As(err, &tooLarge) {
		writePayloadTooLarge(w, tooLarge.Limit)
		return
	}
	writeInvalidArgument(w, err.Error())
}

// writeStoreError maps store errors for one entity kind: ErrNotFound becomes
// a 404 with "<entity> not found", anything else is an opaque 500.
func writeStoreError(w http.ResponseWriter, err error, entity string) {
	if errors.Is(err, store.ErrNotFound) {
		writeNotFound(w, entity+" not found")
		return
	}
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "Database error")
}

// writeExecutorError maps executor failures onto the HTTP surface.
func writeExecutorError(w http.ResponseWriter, err error) {
	var execErr *executor.Error
	if !errors.As(err, &execErr) {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "Database error")
		return
	}
	switch execErr.Kind {
	case executor.KindNotFound:
		writeNotFound(w, "Request not found")
	case executor.KindSubstitution:
		WriteError(w, http.StatusBadRequest, "SUBSTITUTION_ERROR", execErr.Error())
	case executor.KindNetwork:
		WriteError(w, http.StatusBadGateway, "NETWORK_ERROR", execErr.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "Database error")
	}
}
