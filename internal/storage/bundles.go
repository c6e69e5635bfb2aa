package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

const bundlesTable = "bundles"

// BundleStore persists primary bundle records keyed by (bundle name, device id)
type BundleStore struct {
	db *DB
}

// NewBundleStore creates a bundle store over db
func NewBundleStore(db *DB) *BundleStore {
	return &BundleStore{db: db}
}

// SaveStorageBundleInfo writes the record. Saving an existing key replaces it.
func (s *BundleStore) SaveStorageBundleInfo(ctx context.Context, deviceID string, info *types.InnerBundleInfo) (err error) {
	started := time.Now()
	defer func() { s.db.observe(bundlesTable, "save", started, err) }()

	payload, digest, err := s.db.codec.Marshal(info)
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", info.BundleName, deviceID, err)
	}
	_, err = s.db.sql.ExecContext(ctx, `
		INSERT INTO bundles (bundle_name, device_id, payload, digest, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (bundle_name, device_id) DO UPDATE SET
			payload = excluded.payload,
			digest = excluded.digest,
			updated_at = excluded.updated_at`,
		info.BundleName, deviceID, payload, digest, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", info.BundleName, deviceID, err)
	}
	return nil
}

// DeleteStorageBundleInfo removes the record. Deleting a missing key succeeds.
func (s *BundleStore) DeleteStorageBundleInfo(ctx context.Context, deviceID string, info *types.InnerBundleInfo) (err error) {
	started := time.Now()
	defer func() { s.db.observe(bundlesTable, "delete", started, err) }()

	_, err = s.db.sql.ExecContext(ctx,
		`DELETE FROM bundles WHERE bundle_name = ? AND device_id = ?`,
		info.BundleName, deviceID)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", info.BundleName, deviceID, err)
	}
	return nil
}

// LoadAllData reads every record as bundle name -> device id -> record.
// Rows failing their digest are skipped and logged.
func (s *BundleStore) LoadAllData(ctx context.Context) (out map[string]map[string]*types.InnerBundleInfo, err error) {
	started := time.Now()
	defer func() { s.db.observe(bundlesTable, "load", started, err) }()

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT bundle_name, device_id, payload, digest FROM bundles ORDER BY bundle_name, device_id`)
	if err != nil {
		return nil, fmt.Errorf("load bundles: %w", err)
	}
	defer rows.Close()

	out = make(map[string]map[string]*types.InnerBundleInfo)
	for rows.Next() {
		var (
			name, deviceID, digest string
			payload                []byte
		)
		if err := rows.Scan(&name, &deviceID, &payload, &digest); err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}

		info := &types.InnerBundleInfo{}
		if err := s.db.codec.Unmarshal(payload, digest, info); err != nil {
			if errors.Is(err, ErrCorrupt) {
				s.db.log.Warn("Skipping corrupt bundle record",
					zap.String("bundle", name),
					zap.String("device", deviceID),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		if out[name] == nil {
			out[name] = make(map[string]*types.InnerBundleInfo)
		}
		out[name][deviceID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bundles: %w", err)
	}
	return out, nil
}
