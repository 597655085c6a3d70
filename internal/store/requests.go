package store

import (
	"fmt"

	"github.com/jslink/jslink/internal/model"
)

const requestColumns = "id, name, method, url, body, headers, folder_id, " +
	"request_type, body_type, body_content, auth_type, auth_token, " +
	"auth_username, auth_password, created_at, updated_at, archived_at"

// RequestParams carries the writable fields of a request definition.
type RequestParams struct {
	Name         string
	Method       string
	URL          string
	Body         *string
	Headers      *string
	FolderID     *int64
	RequestType  string
	BodyType     string
	BodyContent  *string
	AuthType     string
	AuthToken    *string
	AuthUsername *string
	AuthPassword *string
}

func scanRequest(row interface{ Scan(...any) error }) (model.Request, error) {
	var r model.Request
	err := row.Scan(
		&r.ID, &r.Name, &r.Method, &r.URL, &r.Body, &r.Headers, &r.FolderID,
		&r.RequestType, &r.BodyType, &r.BodyContent, &r.AuthType, &r.AuthToken,
		&r.AuthUsername, &r.AuthPassword, &r.CreatedAt, &r.UpdatedAt, &r.ArchivedAt,
	)
	return r, err
}

// CreateRequest inserts a request definition and returns the stored row.
func (s *Store) CreateRequest(p RequestParams) (model.Request, error) {
	now := nowRFC3339()
	row := s.db.QueryRow(
		`INSERT INTO requests (name, method, url, body, headers, folder_id,
			request_type, body_type, body_content, auth_type, auth_token,
			auth_username, auth_password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+requestColumns,
		p.Name, p.Method, p.URL, p.Body, p.Headers, p.FolderID,
		p.RequestType, p.BodyType, p.BodyContent, p.AuthType, p.AuthToken,
		p.AuthUsername, p.AuthPassword, now, now,
	)
	r, err := scanRequest(row)
	if err != nil {
		return model.Request{}, fmt.Errorf("insert request: %w", err)
	}
	return r, nil
}

// GetRequest returns the request with the given id, or ErrNotFound.
func (s *Store) GetRequest(id int64) (model.Request, error) {
	row := s.db.QueryRow("SELECT "+requestColumns+" FROM requests WHERE id = ?", id)
	r, err := scanRequest(row)
	if err != nil {
		return model.Request{}, notFoundOr(err, "get request")
	}
	return r, nil
}

// ListRequests returns request definitions, optionally filtered to one
// folder. Archived rows are included only when includeArchived is set.
func (s *Store) ListRequests(includeArchived bool, folderID *int64) ([]model.Request, error) {
	query := "SELECT " + requestColumns + " FROM requests"
	var (
		conds []string
		args  []any
	)
	if !includeArchived {
		conds = append(conds, "archived_at IS NULL")
	}
	if folderID != nil {
		conds = append(conds, "folder_id = ?")
		args = append(args, *folderID)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	result := []model.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// UpdateRequest replaces all writable fields of a request and returns the
// stored row.
func (s *Store) UpdateRequest(id int64, p RequestParams) (model.Request, error) {
	row := s.db.QueryRow(
		`UPDATE requests SET name = ?, method = ?, url = ?, body = ?,
			headers = ?, folder_id = ?, request_type = ?, body_type = ?,
			body_content = ?, auth_type = ?, auth_token = ?, auth_username = ?,
			auth_password = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+requestColumns,
		p.Name, p.Method, p.URL, p.Body, p.Headers, p.FolderID,
		p.RequestType, p.BodyType, p.BodyContent, p.AuthType, p.AuthToken,
		p.AuthUsername, p.AuthPassword, nowRFC3339(), id,
	)
	r, err := scanRequest(row)
	if err != nil {
		return model.Request{}, notFoundOr(err, "update request")
	}
	return r, nil
}

// DeleteRequest removes a request by id, or returns ErrNotFound.
func (s *Store) DeleteRequest(id int64) error {
	res, err := s.db.Exec("DELETE FROM requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return requireAffected(res)
}

// ArchiveRequest sets the archive tombstone.
func (s *Store) ArchiveRequest(id int64) error {
	res, err := s.db.Exec("UPDATE requests SET archived_at = ? WHERE id = ?", nowRFC3339(), id)
	if err != nil {
		return fmt.Errorf("archive request: %w", err)
	}
	return requireAffected(res)
}

// UnarchiveRequest clears the archive tombstone.
func (s *Store) UnarchiveRequest(id int64) error {
	res, err := s.db.Exec("UPDATE requests SET archived_at = NULL WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("unarchive request: %w", err)
	}
	return requireAffected(res)
}
