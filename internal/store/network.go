package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jslink/jslink/internal/model"
)

// GetNetworkSettings returns the singleton settings row. A database that
// predates the settings table seed falls back to defaults (auto-detect on)
// rather than failing.
func (s *Store) GetNetworkSettings() (model.NetworkSettings, error) {
	row := s.db.QueryRow(
		"SELECT id, auto_proxy, http_proxy, https_proxy, no_proxy FROM network_settings WHERE id = 1",
	)
	var ns model.NetworkSettings
	err := row.Scan(&ns.ID, &ns.AutoProxy, &ns.HTTPProxy, &ns.HTTPSProxy, &ns.NoProxy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NetworkSettings{ID: 1, AutoProxy: true}, nil
	}
	if err != nil {
		return model.NetworkSettings{}, fmt.Errorf("get network settings: %w", err)
	}
	return ns, nil
}

// UpdateNetworkSettings upserts the singleton settings row and returns the
// stored values.
func (s *Store) UpdateNetworkSettings(ns model.NetworkSettings) (model.NetworkSettings, error) {
	row := s.db.QueryRow(
		`INSERT INTO network_settings (id, auto_proxy, http_proxy, https_proxy, no_proxy)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			auto_proxy = excluded.auto_proxy,
			http_proxy = excluded.http_proxy,
			https_proxy = excluded.https_proxy,
			no_proxy = excluded.no_proxy
		RETURNING id, auto_proxy, http_proxy, https_proxy, no_proxy`,
		ns.AutoProxy, ns.HTTPProxy, ns.HTTPSProxy, ns.NoProxy,
	)
	var out model.NetworkSettings
	if err := row.Scan(&out.ID, &out.AutoProxy, &out.HTTPProxy, &out.HTTPSProxy, &out.NoProxy); err != nil {
		return model.NetworkSettings{}, fmt.Errorf("update network settings: %w", err)
	}
	return out, nil
}
