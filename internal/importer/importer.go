// Package importer translates exported collections from other API clients
// (Postman v1/v2, Thunder Client, Insomnia v4/v5) into folders of stored
// request definitions.
package importer

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/jslink/jslink/internal/store"
)

// ParsedRequest is one request definition extracted from an import file.
type ParsedRequest struct {
	Name         string            `json:"name"`
	Method       string            `json:"method"`
	URL          string            `json:"url"`
	Body         *string           `json:"body"`
	BodyType     string            `json:"body_type"`
	Headers      map[string]string `json:"headers"`
	AuthType     string            `json:"auth_type"`
	AuthToken    *string           `json:"auth_token"`
	AuthUsername *string           `json:"auth_username"`
	AuthPassword *string           `json:"auth_password"`
}

// ParsedFolder groups parsed requests under one target folder name.
type ParsedFolder struct {
	Name     string          `json:"name"`
	Requests []ParsedRequest `json:"requests"`
}

// CollectionSummary is the preview view of a parsed folder.
type CollectionSummary struct {
	Name         string `json:"name"`
	RequestCount int    `json:"request_count"`
}

// Summarize reduces parsed folders to their preview form.
func Summarize(folders []ParsedFolder) []CollectionSummary {
	out := make([]CollectionSummary, 0, len(folders))
	for _, f := range folders {
		out = append(out, CollectionSummary{Name: f.Name, RequestCount: len(f.Requests)})
	}
	return out
}

// Parse sniffs the export format from the file content and dispatches to
// the right parser. Specific formats are checked before loose ones.
func Parse(content []byte, fileName string) ([]ParsedFolder, error) {
	s := string(content)

	switch {
	case strings.Contains(s, `"clientName": "Thunder Client"`):
		folders, err := parseThunderClient(content)
		if err != nil {
			return nil, fmt.Errorf("parse Thunder Client export: %w", err)
		}
		return folders, nil
	case strings.Contains(s, `"_postman_id"`) ||
		strings.Contains(s, `"schema": "https://schema.getpostman.com/json/collection/v2`):
		folders, err := parsePostmanV2(content)
		if err != nil {
			return nil, fmt.Errorf("parse Postman v2 export: %w", err)
		}
		return folders, nil
	case strings.Contains(s, `"requests": [`) && strings.Contains(s, `"folders": [`):
		folders, err := parsePostmanV1(content)
		if err != nil {
			return nil, fmt.Errorf("parse Postman v1 export: %w", err)
		}
		return folders, nil
	case strings.Contains(s, "collection.insomnia.rest") ||
		strings.Contains(s, `_type": "request_group"`) ||
		strings.HasSuffix(fileName, ".yaml") ||
		strings.HasSuffix(fileName, ".yml"):
		return parseInsomnia(content)
	default:
		return nil, fmt.Errorf("unknown file format, expected a Postman (v1/v2), Insomnia, or Thunder Client export")
	}
}

// Save persists parsed folders and their requests. Folders with an empty
// name are stored as "import".
func Save(s *store.Store, folders []ParsedFolder) (string, error) {
	if len(folders) == 0 {
		return "No collections found to import", nil
	}

	total := 0
	for _, folder := range folders {
		name := folder.Name
		if strings.TrimSpace(name) == "" {
			name = "import"
		}
		created, err := s.CreateFolder(name)
		if err != nil {
			return "", fmt.Errorf("create folder %q: %w", name, err)
		}

		for _, req := range folder.Requests {
			headersJSON, err := json.Marshal(req.Headers)
			if err != nil {
				return "", fmt.Errorf("encode headers for %q: %w", req.Name, err)
			}
			headers := string(headersJSON)
			folderID := created.ID
			_, err = s.CreateRequest(store.RequestParams{
				Name:         req.Name,
				Method:       req.Method,
				URL:          req.URL,
				Body:         req.Body,
				Headers:      &headers,
				FolderID:     &folderID,
				RequestType:  "api",
				BodyType:     req.BodyType,
				AuthType:     req.AuthType,
				AuthToken:    req.AuthToken,
				AuthUsername: req.AuthUsername,
				AuthPassword: req.AuthPassword,
			})
			if err != nil {
				return "", fmt.Errorf("create request %q: %w", req.Name, err)
			}
			total++
		}
	}

	log.Printf("[importer] imported %d requests across %d folders", total, len(folders))
	return fmt.Sprintf("Successfully imported %d requests", total), nil
}

func strPtr(s string) *string {
	return &s
}
