package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jslink/jslink/internal/importer"
	"github.com/jslink/jslink/internal/store"
)

// ImportPreviewResponse is the preview-mode response of the import endpoint.
type ImportPreviewResponse struct {
	Preview     bool                         `json:"preview"`
	Collections []importer.CollectionSummary `json:"collections"`
}

// ImportResultResponse is the save-mode response of the import endpoint.
type ImportResultResponse struct {
	Preview bool   `json:"preview"`
	Message string `json:"message"`
}

// HandleImport returns a handler for POST /api/import. The body is a
// multipart upload of one or more collection exports; ?preview=true parses
// without saving.
func HandleImport(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preview := ParseBoolQuery(r, "preview")

		reader, err := r.MultipartReader()
		if err != nil {
			writeInvalidArgument(w, "invalid multipart body: "+err.Error())
			return
		}

		collections := []importer.CollectionSummary{}
		var message strings.Builder
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				writeInvalidArgument(w, "invalid multipart body: "+err.Error())
				return
			}

			fileName := part.FileName()
			if fileName == "" {
				fileName = "unknown"
			}
			data, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				writeInvalidArgument(w, "read upload: "+err.Error())
				return
			}

			folders, err := importer.Parse(data, fileName)
			if err != nil {
				if !preview {
					fmt.Fprintf(&message, "Error parsing %s: %s\n", fileName, err)
				}
				continue
			}

			if preview {
				collections = append(collections, importer.Summarize(folders)...)
				continue
			}
			msg, err := importer.Save(s, folders)
			if err != nil {
				fmt.Fprintf(&message, "Error saving %s: %s\n", fileName, err)
			} else {
				fmt.Fprintf(&message, "Success: %s\n", msg)
			}
		}

		if preview {
			WriteJSON(w, http.StatusOK, ImportPreviewResponse{Preview: true, Collections: collections})
			return
		}
		WriteJSON(w, http.StatusOK, ImportResultResponse{Preview: false, Message: message.String()})
	}
}
