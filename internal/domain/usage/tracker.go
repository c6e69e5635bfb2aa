// Package usage records how often each module's abilities are launched.
//
// Records are keyed by bundle and module. Removing a bundle either drops its
// records or keeps them flagged as removed, at the installer's choice.
package usage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// ErrInvalidAbility is returned for launches that do not name a module
var ErrInvalidAbility = errors.New("ability must name bundle and module")

// Store persists usage records
type Store interface {
	Save(ctx context.Context, rec types.ModuleUsageRecord) error
	DeleteBundle(ctx context.Context, bundleName string) error
	LoadAll(ctx context.Context) ([]types.ModuleUsageRecord, error)
}

// Tracker is the in-memory usage table backed by a store
type Tracker struct {
	mu      sync.RWMutex
	records map[string]types.ModuleUsageRecord // Protected by mu
	store   Store
	log     *zap.Logger
}

// NewTracker creates an empty tracker. A nil store keeps records in memory
// only.
func NewTracker(store Store, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		records: make(map[string]types.ModuleUsageRecord),
		store:   store,
		log:     log.Named("usage"),
	}
}

// Load replaces memory with the stored records
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	recs, err := t.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load usage records: %w", err)
	}

	records := make(map[string]types.ModuleUsageRecord, len(recs))
	for _, rec := range recs {
		records[rec.Key()] = rec
	}

	t.mu.Lock()
	t.records = records
	t.mu.Unlock()

	t.log.Info("Loaded usage records", zap.Int("records", len(records)))
	return nil
}

// OnAbilityLaunched counts one launch of ability at launchTime (unix ms).
// A record flagged removed becomes live again.
func (t *Tracker) OnAbilityLaunched(ctx context.Context, ability types.AbilityInfo, launchTime int64) error {
	if ability.BundleName == "" || ability.ModuleName == "" {
		return ErrInvalidAbility
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[ability.BundleName+"/"+ability.ModuleName]
	rec.BundleName = ability.BundleName
	rec.ModuleName = ability.ModuleName
	rec.AbilityName = ability.Name
	rec.LabelID = ability.LabelID
	rec.DescriptionID = ability.DescriptionID
	rec.IconID = ability.IconID
	rec.LaunchedCount++
	if launchTime > rec.LastLaunchTime {
		rec.LastLaunchTime = launchTime
	}
	rec.Removed = false

	if t.store != nil {
		if err := t.store.Save(ctx, rec); err != nil {
			t.log.Error("Failed to persist usage record", zap.String("key", rec.Key()), zap.Error(err))
			return err
		}
	}
	t.records[rec.Key()] = rec
	return nil
}

// GetUsageRecords returns up to max records, most recently launched first.
// max is clamped to types.MaxUsageRecords; zero or negative means the cap.
func (t *Tracker) GetUsageRecords(max int) []types.ModuleUsageRecord {
	if max <= 0 || max > types.MaxUsageRecords {
		max = types.MaxUsageRecords
	}

	t.mu.RLock()
	out := make([]types.ModuleUsageRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastLaunchTime != out[j].LastLaunchTime {
			return out[i].LastLaunchTime > out[j].LastLaunchTime
		}
		return out[i].Key() < out[j].Key()
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// OnBundleRemoved drops the records of bundleName, or flags them removed
// when keepUsage is set
func (t *Tracker) OnBundleRemoved(ctx context.Context, bundleName string, keepUsage bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !keepUsage {
		if t.store != nil {
			if err := t.store.DeleteBundle(ctx, bundleName); err != nil {
				return err
			}
		}
		for key, rec := range t.records {
			if rec.BundleName == bundleName {
				delete(t.records, key)
			}
		}
		return nil
	}

	for key, rec := range t.records {
		if rec.BundleName != bundleName || rec.Removed {
			continue
		}
		rec.Removed = true
		if t.store != nil {
			if err := t.store.Save(ctx, rec); err != nil {
				return err
			}
		}
		t.records[key] = rec
	}
	return nil
}
