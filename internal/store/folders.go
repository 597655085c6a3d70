package store

import (
	"database/sql"
	"fmt"

	"github.com/jslink/jslink/internal/model"
)

const folderColumns = "id, name, created_at, updated_at, archived_at"

func scanFolder(row interface{ Scan(...any) error }) (model.Folder, error) {
	var f model.Folder
	err := row.Scan(&f.ID, &f.Name, &f.CreatedAt, &f.UpdatedAt, &f.ArchivedAt)
	return f, err
}

// CreateFolder inserts a folder and returns the stored row.
func (s *Store) CreateFolder(name string) (model.Folder, error) {
	now := nowRFC3339()
	row := s.db.QueryRow(
		"INSERT INTO folders (name, created_at, updated_at) VALUES (?, ?, ?) RETURNING "+folderColumns,
		name, now, now,
	)
	f, err := scanFolder(row)
	if err != nil {
		return model.Folder{}, fmt.Errorf("insert folder: %w", err)
	}
	return f, nil
}

// GetFolder returns the folder with the given id, or ErrNotFound.
func (s *Store) GetFolder(id int64) (model.Folder, error) {
	row := s.db.QueryRow("SELECT "+folderColumns+" FROM folders WHERE id = ?", id)
	f, err := scanFolder(row)
	if err != nil {
		return model.Folder{}, notFoundOr(err, "get folder")
	}
	return f, nil
}

// ListFolders returns all folders; archived rows are included only when
// includeArchived is set.
func (s *Store) ListFolders(includeArchived bool) ([]model.Folder, error) {
	query := "SELECT " + folderColumns + " FROM folders"
	if !includeArchived {
		query += " WHERE archived_at IS NULL"
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	result := []model.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// UpdateFolder renames a folder and returns the stored row.
func (s *Store) UpdateFolder(id int64, name string) (model.Folder, error) {
	row := s.db.QueryRow(
		"UPDATE folders SET name = ?, updated_at = ? WHERE id = ? RETURNING "+folderColumns,
		name, nowRFC3339(), id,
	)
	f, err := scanFolder(row)
	if err != nil {
		return model.Folder{}, notFoundOr(err, "update folder")
	}
	return f, nil
}

// DeleteFolder removes a folder by id, or returns ErrNotFound.
func (s *Store) DeleteFolder(id int64) error {
	res, err := s.db.Exec("DELETE FROM folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return requireAffected(res)
}

// ArchiveFolder sets the archive tombstone. Archiving an already-archived
// folder refreshes the timestamp and still succeeds.
func (s *Store) ArchiveFolder(id int64) error {
	res, err := s.db.Exec("UPDATE folders SET archived_at = ? WHERE id = ?", nowRFC3339(), id)
	if err != nil {
		return fmt.Errorf("archive folder: %w", err)
	}
	return requireAffected(res)
}

// UnarchiveFolder clears the archive tombstone.
func (s *Store) UnarchiveFolder(id int64) error {
	res, err := s.db.Exec("UPDATE folders SET archived_at = NULL WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("unarchive folder: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
