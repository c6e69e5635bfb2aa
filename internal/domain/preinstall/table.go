package preinstall

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/utils"
)

// ErrNotFound is returned when no pre-install row exists for a bundle
var ErrNotFound = errors.New("preinstall record not found")

// Store persists pre-install rows
type Store interface {
	Save(ctx context.Context, info types.PreInstallBundleInfo) error
	Delete(ctx context.Context, bundleName string) error
	LoadAll(ctx context.Context) ([]types.PreInstallBundleInfo, error)
}

// Table is the in-memory pre-install list backed by a store
type Table struct {
	mu    sync.RWMutex
	rows  map[string]types.PreInstallBundleInfo // Protected by mu
	store Store
	log   *zap.Logger
}

// NewTable creates an empty table over store. A nil store keeps rows in
// memory only.
func NewTable(store Store, log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{
		rows:  make(map[string]types.PreInstallBundleInfo),
		store: store,
		log:   log.Named("preinstall"),
	}
}

// LoadAll replaces the table contents with the stored rows
func (t *Table) LoadAll(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	infos, err := t.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load preinstall table: %w", err)
	}

	rows := make(map[string]types.PreInstallBundleInfo, len(infos))
	for _, info := range infos {
		rows[info.BundleName] = info
	}

	t.mu.Lock()
	t.rows = rows
	t.mu.Unlock()

	t.log.Info("Loaded preinstall table", zap.Int("bundles", len(rows)))
	return nil
}

// Save validates info, persists it and then updates memory
func (t *Table) Save(ctx context.Context, info types.PreInstallBundleInfo) error {
	if err := utils.ValidateStruct(info); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Save(ctx, info); err != nil {
			t.log.Error("Failed to persist preinstall row",
				zap.String("bundle", info.BundleName), zap.Error(err))
			return err
		}
	}
	t.rows[info.BundleName] = info.Clone()
	return nil
}

// Get returns a copy of the row for bundleName
func (t *Table) Get(bundleName string) (types.PreInstallBundleInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.rows[bundleName]
	if !ok {
		return types.PreInstallBundleInfo{}, false
	}
	return info.Clone(), true
}

// Delete removes the row for bundleName
func (t *Table) Delete(ctx context.Context, bundleName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[bundleName]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, bundleName)
	}
	if t.store != nil {
		if err := t.store.Delete(ctx, bundleName); err != nil {
			return err
		}
	}
	delete(t.rows, bundleName)
	return nil
}

// MarkUninstalled flags a pre-installed bundle as removed by the user so it
// is not reinstalled on the next boot. Bundles without a row are ignored.
func (t *Table) MarkUninstalled(ctx context.Context, bundleName string, uninstalled bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.rows[bundleName]
	if !ok {
		return false, nil
	}
	if info.IsUninstalled == uninstalled {
		return true, nil
	}
	info.IsUninstalled = uninstalled
	if t.store != nil {
		if err := t.store.Save(ctx, info); err != nil {
			return true, err
		}
	}
	t.rows[bundleName] = info
	return true, nil
}

// List returns copies of every row ordered by bundle name
func (t *Table) List() []types.PreInstallBundleInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.PreInstallBundleInfo, 0, len(t.rows))
	for _, info := range t.rows {
		out = append(out, info.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BundleName < out[j].BundleName })
	return out
}

// Len returns the number of rows
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
