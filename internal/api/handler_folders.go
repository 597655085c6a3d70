package api

import (
	"net/http"
	"strings"

	"github.com/jslink/jslink/internal/store"
)

// FolderPayload is the create/update body for folders.
type FolderPayload struct {
	Name string `json:"name"`
}

// HandleCreateFolder returns a handler for POST /api/folders.
func HandleCreateFolder(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload FolderPayload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if strings.TrimSpace(payload.Name) == "" {
			writeInvalidArgument(w, "Invalid folder name")
			return
		}

		folder, err := s.CreateFolder(payload.Name)
		if err != nil {
			writeStoreError(w, err, "Folder")
			return
		}
		WriteJSON(w, http.StatusCreated, folder)
	}
}

// HandleListFolders returns a handler for GET /api/folders.
func HandleListFolders(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folders, err := s.ListFolders(ParseBoolQuery(r, "include_archived"))
		if err != nil {
			writeStoreError(w, err, "Folder")
			return
		}
		WriteJSON(w, http.StatusOK, folders)
	}
}

// HandleGetFolder returns a handler for GET /api/folders/{id}.
func HandleGetFolder(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		folder, err := s.GetFolder(id)
		if err != nil {
			writeStoreError(w, err, "Folder")
			return
		}
		WriteJSON(w, http.StatusOK, folder)
	}
}

// HandleUpdateFolder returns a handler for PUT /api/folders/{id}.
func HandleUpdateFolder(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		var payload FolderPayload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if strings.TrimSpace(payload.Name) == "" {
			writeInvalidArgument(w, "Invalid folder name")
			return
		}

		folder, err := s.UpdateFolder(id, payload.Name)
		if err != nil {
			writeStoreError(w, err, "Folder")
			return
		}
		WriteJSON(w, http.StatusOK, folder)
	}
}

// HandleDeleteFolder returns a handler for DELETE /api/folders/{id}.
func HandleDeleteFolder(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.DeleteFolder(id); err != nil {
			writeStoreError(w, err, "Folder")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleArchiveFolder returns a handler for PUT /api/folders/{id}/archive.
func HandleArchiveFolder(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.ArchiveFolder(id); err != nil {
			writeStoreError(w, err, "Folder")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleUnarchiveFolder returns a handler for PUT /api/folders/{id}/unarchive.
func HandleUnarchiveFolder(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r, "id")
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := s.UnarchiveFolder(id); err != nil {
			writeStoreError(w, err, "Folder")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
