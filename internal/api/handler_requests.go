package api

import (
	"net/http"
	"strings"

	"github.com/jslink/jslink/internal/store"
)

// RequestPayload is the create/update body for request definitions.
// Request type, body type, and auth type default when omitted.
type RequestPayload struct {
	Name         string  `json:"name"`
	Method       string  `json:"method"`
	URL          string  `json:"url"`
	Body         *string `json:"body"`
	Headers      *string `json:"headers"`
	FolderID     *int64  `json:"folder_id"`
	RequestType  string  `json:"request_type"`
	BodyType     string  `json:"body_type"`
	BodyContent  *string `json:"body_content"`
	AuthType     string  `json:"auth_type"`
	AuthToken    *string `json:"auth_token"`
	AuthUsername *string `json:"auth_username"`
	AuthPassword *string `json:"auth_password"`
}

var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// validate applies defaults and checks the name and, for api requests, the
// method. WebSocket definitions carry no meaningful method, it stays
// unvalidated for them.
func (p *RequestPayload) validate() (string, bool) {
	if p.RequestType == "" {
		p.RequestType = "api"
	}
	if p.BodyType == "" {
		p.BodyType = "none"
	}
	if p.AuthType == "" {
		p.AuthType = "none"
	}

	if p.Name == "" {
		return "Invalid request name", false
	}
	if p.RequestType != "ws" && !allowedMethods[strings.ToUpper(p.Method)] {
		return "Invalid HTTP method", false
	}
	return "", true
}

func (p *RequestPayload) params() store.RequestParams {
	return store.RequestParams{
		Name:         p.Name,
		Method:       p.Method,
		URL:          p.URL,
		Body:         p.Body,
		Headers:      p.Headers,
		FolderID:     p.FolderID,
		RequestType:  p.RequestType,
		BodyType:     p.BodyType,
		BodyContent:  p.BodyContent,
		AuthType:     p.AuthType,
		AuthToken:    p.AuthToken,
		AuthUsername: p.AuthUsername,
		AuthPassword: p.AuthPassword,
	}
}

// HandleCreateRequest returns a handler for POST /api/requests.
func HandleCreateRequest(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload RequestPayload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if msg, ok := payload.validate(); !ok {
			writeInvalidArgument(w, msg)
			return
		}

		req, err := s.CreateRequest(payload.params())
		if err != nil {
			writeStoreError(w, err, "Request")
			return
		}
		WriteJSON(w, http.StatusCreated, req)
	}
}

// HandleListRequests returns a handler for GET /api/requests.
func HandleListRequests(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folderID, err := ParseInt64Query(r, "folder_id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		requests, err := s.ListRequests(ParseBoolQuery(r, "include_archived"), folderID)
		if err != nil {
			writeStoreError(w, err, "Request")
			return
		}
		WriteJSON(w, http.StatusOK, requests)
	}
}

// HandleGetRequest returns a handler for GET /api/requests/{id}.
func HandleGetRequest(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		req, err := s.GetRequest(id)
		if err != nil {
			writeStoreError(w, err, "Request")
			return
		}
		WriteJSON(w, http.StatusOK, req)
	}
}

// HandleUpdateRequest returns a handler for PUT /api/requests/{id}.
func HandleUpdateRequest(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		var payload RequestPayload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if msg, ok := payload.validate(); !ok {
			writeInvalidArgument(w, msg)
			return
		}

		req, err := s.UpdateRequest(id, payload.params())
		if err != nil {
			writeStoreError(w, err, "Request")
			return
		}
		WriteJSON(w, http.StatusOK, req)
	}
}

// HandleDeleteRequest returns a handler for DELETE /api/requests/{id}.
func HandleDeleteRequest(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.DeleteRequest(id); err != nil {
			writeStoreError(w, err, "Request")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleArchiveRequest returns a handler for PUT /api/requests/{id}/archive.
func HandleArchiveRequest(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.ArchiveRequest(id); err != nil {
			writeStoreError(w, err, "Request")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleUnarchiveRequest returns a handler for PUT /api/requests/{id}/unarchive.
func HandleUnarchiveRequest(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.UnarchiveRequest(id); err != nil {
			writeStoreError(w, err, "Request")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
