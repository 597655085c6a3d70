// Package model defines domain structs shared across the persistence layer.
package model

// Folder groups saved requests. Archival is a soft tombstone: archived
// folders persist but are hidden from default listings.
type Folder struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	ArchivedAt *string `json:"archived_at"`
}

// Request is a saved HTTP or WebSocket request definition.
// RequestType is 'api' or 'ws'; BodyType is one of 'none', 'json', 'xml',
// 'text', 'form', 'multipart', 'binary'; AuthType is 'none', 'bearer' or
// 'basic'. Body is the legacy freeform body kept for backward compatibility;
// BodyContent carries the typed body when BodyType != 'none'. Headers is a
// JSON-encoded string-to-string map.
type Request struct {
	ID           int64   `json:"id"`
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
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	ArchivedAt   *string `json:"archived_at"`
}

// Environment binds variable names to values for placeholder substitution.
// Variables is a JSON object of string to string, stored as text.
type Environment struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Variables  string  `json:"variables"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	ArchivedAt *string `json:"archived_at"`
}

// NetworkSettings is the singleton (id = 1) proxy configuration for request
// execution. When AutoProxy is set the explicit proxy fields are ignored and
// the system proxy conventions apply.
type NetworkSettings struct {
	ID         int64   `json:"id"`
	AutoProxy  bool    `json:"auto_proxy"`
	HTTPProxy  *string `json:"http_proxy"`
	HTTPSProxy *string `json:"https_proxy"`
	NoProxy    *string `json:"no_proxy"`
}
