package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

const usageTable = "module_usage"

// UsageStore persists module usage records
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a usage store over db
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// Save writes or replaces one record
func (s *UsageStore) Save(ctx context.Context, rec types.ModuleUsageRecord) (err error) {
	started := time.Now()
	defer func() { s.db.observe(usageTable, "save", started, err) }()

	payload, digest, err := s.db.codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save usage %s: %w", rec.Key(), err)
	}
	_, err = s.db.sql.ExecContext(ctx, `
		INSERT INTO module_usage (usage_key, bundle_name, payload, digest, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (usage_key) DO UPDATE SET
			payload = excluded.payload,
			digest = excluded.digest,
			updated_at = excluded.updated_at`,
		rec.Key(), rec.BundleName, payload, digest, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save usage %s: %w", rec.Key(), err)
	}
	return nil
}

// DeleteBundle removes every record of a bundle
func (s *UsageStore) DeleteBundle(ctx context.Context, bundleName string) (err error) {
	started := time.Now()
	defer func() { s.db.observe(usageTable, "delete", started, err) }()

	if _, err = s.db.sql.ExecContext(ctx, `DELETE FROM module_usage WHERE bundle_name = ?`, bundleName); err != nil {
		return fmt.Errorf("delete usage %s: %w", bundleName, err)
	}
	return nil
}

// LoadAll reads every record
func (s *UsageStore) LoadAll(ctx context.Context) (out []types.ModuleUsageRecord, err error) {
	started := time.Now()
	defer func() { s.db.observe(usageTable, "load", started, err) }()

	rows, err := s.db.sql.QueryContext(ctx, `SELECT usage_key, payload, digest FROM module_usage ORDER BY usage_key`)
	if err != nil {
		return nil, fmt.Errorf("load usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key, digest string
			payload     []byte
		)
		if err := rows.Scan(&key, &payload, &digest); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		var rec types.ModuleUsageRecord
		if err := s.db.codec.Unmarshal(payload, digest, &rec); err != nil {
			if errors.Is(err, ErrCorrupt) {
				s.db.log.Warn("Skipping corrupt usage record", zap.String("key", key), zap.Error(err))
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load usage: %w", err)
	}
	return out, nil
}
