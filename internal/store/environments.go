package store

import (
	"fmt"

	"github.com/jslink/jslink/internal/model"
)

const environmentColumns = "id, name, variables, created_at, updated_at, archived_at"

func scanEnvironment(row interface{ Scan(...any) error }) (model.Environment, error) {
	var e model.Environment
	err := row.Scan(&e.ID, &e.Name, &e.Variables, &e.CreatedAt, &e.UpdatedAt, &e.ArchivedAt)
	return e, err
}

// CreateEnvironment inserts an environment with its variables JSON object
// and returns the stored row.
func (s *Store) CreateEnvironment(name, variables string) (model.Environment, error) {
	now := nowRFC3339()
	row := s.db.QueryRow(
		"INSERT INTO environments (name, variables, created_at, updated_at) VALUES (?, ?, ?, ?) RETURNING "+environmentColumns,
		name, variables, now, now,
	)
	e, err := scanEnvironment(row)
	if err != nil {
		return model.Environment{}, fmt.Errorf("insert environment: %w", err)
	}
	return e, nil
}

// GetEnvironment returns the environment with the given id, or ErrNotFound.
func (s *Store) GetEnvironment(id int64) (model.Environment, error) {
	row := s.db.QueryRow("SELECT "+environmentColumns+" FROM environments WHERE id = ?", id)
	e, err := scanEnvironment(row)
	if err != nil {
		return model.Environment{}, notFoundOr(err, "get environment")
	}
	return e, nil
}

// ListEnvironments returns all environments; archived rows are included
// only when includeArchived is set.
func (s *Store) ListEnvironments(includeArchived bool) ([]model.Environment, error) {
	query := "SELECT " + environmentColumns + " FROM environments"
	if !includeArchived {
		query += " WHERE archived_at IS NULL"
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	defer rows.Close()

	result := []model.Environment{}
	for rows.Next() {
		e, err := scanEnvironment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan environment: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateEnvironment replaces the name and variables of an environment and
// returns the stored row.
func (s *Store) UpdateEnvironment(id int64, name, variables string) (model.Environment, error) {
	row := s.db.QueryRow(
		"UPDATE environments SET name = ?, variables = ?, updated_at = ? WHERE id = ? RETURNING "+environmentColumns,
		name, variables, nowRFC3339(), id,
	)
	e, err := scanEnvironment(row)
	if err != nil {
		return model.Environment{}, notFoundOr(err, "update environment")
	}
	return e, nil
}

// DeleteEnvironment removes an environment by id, or returns ErrNotFound.
func (s *Store) DeleteEnvironment(id int64) error {
	res, err := s.db.Exec("DELETE FROM environments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete environment: %w", err)
	}
	return requireAffected(res)
}

// ArchiveEnvironment sets the archive tombstone.
func (s *Store) ArchiveEnvironment(id int64) error {
	res, err := s.db.Exec("UPDATE environments SET archived_at = ? WHERE id = ?", nowRFC3339(), id)
	if err != nil {
		return fmt.Errorf("archive environment: %w", err)
	}
	return requireAffected(res)
}

// UnarchiveEnvironment clears the archive tombstone.
func (s *Store) UnarchiveEnvironment(id int64) error {
	res, err := s.db.Exec("UPDATE environments SET archived_at = NULL WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("unarchive environment: %w", err)
	}
	return requireAffected(res)
}
