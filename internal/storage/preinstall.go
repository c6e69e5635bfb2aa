package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

const preinstallTable = "preinstall"

// PreInstallStore persists the factory pre-install list
type PreInstallStore struct {
	db *DB
}

// NewPreInstallStore creates a pre-install store over db
func NewPreInstallStore(db *DB) *PreInstallStore {
	return &PreInstallStore{db: db}
}

// Save writes or replaces one row
func (s *PreInstallStore) Save(ctx context.Context, info types.PreInstallBundleInfo) (err error) {
	started := time.Now()
	defer func() { s.db.observe(preinstallTable, "save", started, err) }()

	payload, digest, err := s.db.codec.Marshal(info)
	if err != nil {
		return fmt.Errorf("save preinstall %s: %w", info.BundleName, err)
	}
	_, err = s.db.sql.ExecContext(ctx, `
		INSERT INTO preinstall (bundle_name, payload, digest, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (bundle_name) DO UPDATE SET
			payload = excluded.payload,
			digest = excluded.digest,
			updated_at = excluded.updated_at`,
		info.BundleName, payload, digest, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save preinstall %s: %w", info.BundleName, err)
	}
	return nil
}

// Delete removes one row
func (s *PreInstallStore) Delete(ctx context.Context, bundleName string) (err error) {
	started := time.Now()
	defer func() { s.db.observe(preinstallTable, "delete", started, err) }()

	if _, err = s.db.sql.ExecContext(ctx, `DELETE FROM preinstall WHERE bundle_name = ?`, bundleName); err != nil {
		return fmt.Errorf("delete preinstall %s: %w", bundleName, err)
	}
	return nil
}

// LoadAll reads every row ordered by bundle name
func (s *PreInstallStore) LoadAll(ctx context.Context) (out []types.PreInstallBundleInfo, err error) {
	started := time.Now()
	defer func() { s.db.observe(preinstallTable, "load", started, err) }()

	rows, err := s.db.sql.QueryContext(ctx, `SELECT bundle_name, payload, digest FROM preinstall ORDER BY bundle_name`)
	if err != nil {
		return nil, fmt.Errorf("load preinstall: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, digest string
			payload      []byte
		)
		if err := rows.Scan(&name, &payload, &digest); err != nil {
			return nil, fmt.Errorf("scan preinstall: %w", err)
		}
		var info types.PreInstallBundleInfo
		if err := s.db.codec.Unmarshal(payload, digest, &info); err != nil {
			if errors.Is(err, ErrCorrupt) {
				s.db.log.Warn("Skipping corrupt preinstall record", zap.String("bundle", name), zap.Error(err))
				continue
			}
			return nil, err
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load preinstall: %w", err)
	}
	return out, nil
}
