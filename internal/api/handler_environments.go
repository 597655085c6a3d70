package api

import (
	"net/http"

	"github.com/jslink/jslink/internal/store"
)

// EnvironmentPayload is the create/update body for environments. Variables
// is the JSON-encoded string→string object, stored verbatim.
type EnvironmentPayload struct {
	Name      string `json:"name"`
	Variables string `json:"variables"`
}

// HandleCreateEnvironment returns a handler for POST /api/environments.
func HandleCreateEnvironment(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload EnvironmentPayload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if payload.Name == "" {
			writeInvalidArgument(w, "Invalid environment name")
			return
		}
		if payload.Variables == "" {
			payload.Variables = "{}"
		}

		env, err := s.CreateEnvironment(payload.Name, payload.Variables)
		if err != nil {
			writeStoreError(w, err, "Environment")
			return
		}
		WriteJSON(w, http.StatusCreated, env)
	}
}

// HandleListEnvironments returns a handler for GET /api/environments.
func HandleListEnvironments(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envs, err := s.ListEnvironments(ParseBoolQuery(r, "include_archived"))
		if err != nil {
			writeStoreError(w, err, "Environment")
			return
		}
		WriteJSON(w, http.StatusOK, envs)
	}
}

// HandleGetEnvironment returns a handler for GET /api/environments/{id}.
func HandleGetEnvironment(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		env, err := s.GetEnvironment(id)
		if err != nil {
			writeStoreError(w, err, "Environment")
			return
		}
		WriteJSON(w, http.StatusOK, env)
	}
}

// HandleUpdateEnvironment returns a handler for PUT /api/environments/{id}.
func HandleUpdateEnvironment(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		var payload EnvironmentPayload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if payload.Name == "" {
			writeInvalidArgument(w, "Invalid environment name")
			return
		}
		if payload.Variables == "" {
			payload.Variables = "{}"
		}

		env, err := s.UpdateEnvironment(id, payload.Name, payload.Variables)
		if err != nil {
			writeStoreError(w, err, "Environment")
			return
		}
		WriteJSON(w, http.StatusOK, env)
	}
}

// HandleDeleteEnvironment returns a handler for DELETE /api/environments/{id}.
func HandleDeleteEnvironment(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.DeleteEnvironment(id); err != nil {
			writeStoreError(w, err, "Environment")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleArchiveEnvironment returns a handler for PUT /api/environments/{id}/archive.
func HandleArchiveEnvironment(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.ArchiveEnvironment(id); err != nil {
			writeStoreError(w, err, "Environment")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleUnarchiveEnvironment returns a handler for PUT /api/environments/{id}/unarchive.
func HandleUnarchiveEnvironment(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.UnarchiveEnvironment(id); err != nil {
			writeStoreError(w, err, "Environment")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
