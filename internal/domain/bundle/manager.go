package bundle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// Store is the durable backing map for primary bundle records. Save and
// Delete must be idempotent and must commit before returning nil.
type Store interface {
	SaveStorageBundleInfo(ctx context.Context, deviceID string, info *types.InnerBundleInfo) error
	DeleteStorageBundleInfo(ctx context.Context, deviceID string, info *types.InnerBundleInfo) error
	LoadAllData(ctx context.Context) (map[string]map[string]*types.InnerBundleInfo, error)
}

// Manager is the bundle registry. Lock order: mu before stateMu. idMu and
// userMu are leaves and never held while acquiring mu or stateMu.
type Manager struct {
	mu      sync.RWMutex
	bundles map[string]map[string]*types.InnerBundleInfo // Protected by mu

	stateMu sync.Mutex
	states  map[string]types.InstallState // Protected by stateMu

	idMu      sync.Mutex
	bundleIDs map[int]string // Protected by idMu

	userMu  sync.RWMutex
	userIDs map[int32]struct{} // Protected by userMu

	store   Store
	log     *zap.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewManager creates a registry over store. The default user is registered.
func NewManager(store Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		bundles:   make(map[string]map[string]*types.InnerBundleInfo),
		states:    make(map[string]types.InstallState),
		bundleIDs: make(map[int]string),
		userIDs:   map[int32]struct{}{types.DefaultUserID: {}},
		store:     store,
		log:       log.Named("bundle"),
		now:       time.Now,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// LoadDataFromPersistentStorage loads every stored record, rebuilds the id
// allocator and the user set, and marks each bundle INSTALL_SUCCESS.
func (m *Manager) LoadDataFromPersistentStorage(ctx context.Context) error {
	all, err := m.store.LoadAllData(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrPersist, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for name, devices := range all {
		for deviceID, info := range devices {
			if info.BundleName == "" {
				info.BundleName = name
			}
			// DISABLED is an installer hold and never survives a restart
			info.Status = types.BundleEnabled
			if m.bundles[name] == nil {
				m.bundles[name] = make(map[string]*types.InnerBundleInfo)
			}
			m.bundles[name][deviceID] = info
			if deviceID != types.CurrentDeviceID {
				continue
			}

			m.stateMu.Lock()
			m.states[name] = types.InstallSuccess
			m.stateMu.Unlock()

			for userID, u := range info.UserInfos {
				m.AddUserID(userID)
				m.recoverBundleID(name, int(u.UID)%types.BaseUserRange)
			}
			loaded++
		}
	}

	m.updateBundleGauge()
	m.log.Info("Loaded bundle records",
		zap.Int("bundles", loaded),
		zap.Int("names", len(m.bundles)))
	return nil
}

// current returns the local record. Caller holds mu.
func (m *Manager) current(name string) (*types.InnerBundleInfo, bool) {
	devices, ok := m.bundles[name]
	if !ok {
		return nil, false
	}
	info, ok := devices[types.CurrentDeviceID]
	return info, ok
}

// sortedNames returns bundle names with a local record. Caller holds mu.
func (m *Manager) sortedNames() []string {
	names := make([]string, 0, len(m.bundles))
	for name, devices := range m.bundles {
		if _, ok := devices[types.CurrentDeviceID]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *Manager) stateOf(name string) (types.InstallState, bool) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	state, ok := m.states[name]
	return state, ok
}

func (m *Manager) updateBundleGauge() {
	if m.metrics != nil {
		m.metrics.SetBundles(len(m.bundles))
	}
}

// ============================================================================
// Record mutators
// ============================================================================

// AddInnerBundleInfo inserts a fresh record. Requires INSTALL_START and no
// local record; the record is persisted before it becomes visible.
func (m *Manager) AddInnerBundleInfo(ctx context.Context, name string, info *types.InnerBundleInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.current(name); ok {
		return fmt.Errorf("%w: %s", ErrBundleExists, name)
	}
	if state, ok := m.stateOf(name); !ok || state != types.InstallStart {
		return fmt.Errorf("%w: add %s requires INSTALL_START", ErrIllegalState, name)
	}

	rec := info.Clone()
	rec.BundleName = name
	if rec.Status == "" {
		rec.Status = types.BundleEnabled
	}
	if err := m.store.SaveStorageBundleInfo(ctx, types.CurrentDeviceID, rec); err != nil {
		m.log.Error("Failed to persist new bundle", zap.String("bundle", name), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrPersist, name, err)
	}

	if m.bundles[name] == nil {
		m.bundles[name] = make(map[string]*types.InnerBundleInfo)
	}
	m.bundles[name][types.CurrentDeviceID] = rec
	m.updateBundleGauge()
	m.log.Info("Bundle added", zap.String("bundle", name), zap.Strings("modules", rec.ModuleNames()))
	return nil
}

// AddNewModuleInfo merges the modules of newInfo under UPDATING_SUCCESS
func (m *Manager) AddNewModuleInfo(ctx context.Context, name string, newInfo *types.InnerBundleInfo) error {
	return m.replace(ctx, name, "add module", []types.InstallState{types.UpdatingSuccess}, func(rec *types.InnerBundleInfo) error {
		rec.AddModuleInfo(newInfo)
		m.touchUpdateTime(rec)
		return nil
	})
}

// UpdateInnerBundleInfo replaces same-named modules under UPDATING_SUCCESS
func (m *Manager) UpdateInnerBundleInfo(ctx context.Context, name string, newInfo *types.InnerBundleInfo) error {
	return m.replace(ctx, name, "update", []types.InstallState{types.UpdatingSuccess}, func(rec *types.InnerBundleInfo) error {
		rec.UpdateModuleInfo(newInfo)
		rec.IsKeepAlive = newInfo.IsKeepAlive
		rec.IsLauncherApp = rec.IsLauncherApp || newInfo.IsLauncherApp
		if newInfo.Vendor != "" {
			rec.Vendor = newInfo.Vendor
		}
		m.touchUpdateTime(rec)
		return nil
	})
}

// RemoveModuleInfo drops one module under UNINSTALL_START or ROLL_BACK
func (m *Manager) RemoveModuleInfo(ctx context.Context, name, moduleName string) error {
	return m.replace(ctx, name, "remove module", []types.InstallState{types.UninstallStart, types.RollBack}, func(rec *types.InnerBundleInfo) error {
		if !rec.RemoveModuleInfo(moduleName) {
			return fmt.Errorf("%w: %s/%s", ErrModuleNotFound, name, moduleName)
		}
		return nil
	})
}

func (m *Manager) touchUpdateTime(rec *types.InnerBundleInfo) {
	now := m.now().UnixMilli()
	for _, u := range rec.UserInfos {
		u.BundleUserInfo.UpdateTime = now
	}
}

// replace applies mutate to a private copy of the local record, then
// deletes the stored record, saves the copy and commits it to memory.
// A failure at any step leaves memory untouched.
func (m *Manager) replace(ctx context.Context, name, op string, allowed []types.InstallState, mutate func(*types.InnerBundleInfo) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.current(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBundleNotFound, name)
	}
	state, ok := m.stateOf(name)
	if !ok || !containsState(allowed, state) {
		return fmt.Errorf("%w: %s %s in state %s", ErrIllegalState, op, name, state)
	}

	rec := old.Clone()
	if err := mutate(rec); err != nil {
		return err
	}
	if err := m.resave(ctx, old, rec); err != nil {
		return err
	}
	m.bundles[name][types.CurrentDeviceID] = rec
	m.log.Info("Bundle record replaced", zap.String("bundle", name), zap.String("op", op))
	return nil
}

// resave runs delete-then-save. If the save fails the old record is written
// back so the store keeps the last committed version. Caller holds mu.
func (m *Manager) resave(ctx context.Context, old, rec *types.InnerBundleInfo) error {
	if err := m.store.DeleteStorageBundleInfo(ctx, types.CurrentDeviceID, old); err != nil {
		m.log.Error("Failed to delete stored bundle", zap.String("bundle", old.BundleName), zap.Error(err))
		return fmt.Errorf("%w: delete %s: %v", ErrPersist, old.BundleName, err)
	}
	if err := m.store.SaveStorageBundleInfo(ctx, types.CurrentDeviceID, rec); err != nil {
		m.log.Error("Failed to save bundle", zap.String("bundle", rec.BundleName), zap.Error(err))
		if restoreErr := m.store.SaveStorageBundleInfo(ctx, types.CurrentDeviceID, old); restoreErr != nil {
			m.log.Error("Failed to restore stored bundle", zap.String("bundle", old.BundleName), zap.Error(restoreErr))
		}
		return fmt.Errorf("%w: save %s: %v", ErrPersist, rec.BundleName, err)
	}
	return nil
}

// deleteBundleInfo removes the local record on a delete-triggering
// transition. Caller holds mu and stateMu.
func (m *Manager) deleteBundleInfo(ctx context.Context, name string) error {
	info, ok := m.current(name)
	if !ok {
		// An install that failed before its record was saved still holds an id
		m.recycleBundleID(name)
		m.log.Debug("No record to delete", zap.String("bundle", name))
		return nil
	}
	if err := m.store.DeleteStorageBundleInfo(ctx, types.CurrentDeviceID, info); err != nil {
		m.log.Error("Failed to delete stored bundle", zap.String("bundle", name), zap.Error(err))
		return fmt.Errorf("%w: delete %s: %v", ErrPersist, name, err)
	}
	m.recycleUidAndGid(info)
	delete(m.bundles[name], types.CurrentDeviceID)
	if len(m.bundles[name]) == 0 {
		delete(m.bundles, name)
	}
	m.updateBundleGauge()
	m.log.Info("Bundle deleted", zap.String("bundle", name))
	return nil
}

// GetInnerBundleInfo returns a copy of a record for an installer and marks
// the stored record DISABLED until EnableBundle is called
func (m *Manager) GetInnerBundleInfo(name, deviceID string) (*types.InnerBundleInfo, bool) {
	if deviceID == "" {
		deviceID = types.CurrentDeviceID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.bundles[name][deviceID]
	if !ok {
		return nil, false
	}
	info.Status = types.BundleDisabled
	return info.Clone(), true
}

// EnableBundle clears the DISABLED mark set by GetInnerBundleInfo
func (m *Manager) EnableBundle(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.current(name)
	if !ok {
		return false
	}
	info.Status = types.BundleEnabled
	return true
}

// ============================================================================
// Distributed views
// ============================================================================

// SaveRemoteBundleInfo stores the view of a bundle synced from deviceID
func (m *Manager) SaveRemoteBundleInfo(ctx context.Context, deviceID string, info *types.InnerBundleInfo) error {
	if deviceID == "" || deviceID == types.CurrentDeviceID {
		return fmt.Errorf("%w: %q", ErrInvalidDevice, deviceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := info.Clone()
	if err := m.store.SaveStorageBundleInfo(ctx, deviceID, rec); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrPersist, rec.BundleName, deviceID, err)
	}
	if m.bundles[rec.BundleName] == nil {
		m.bundles[rec.BundleName] = make(map[string]*types.InnerBundleInfo)
	}
	m.bundles[rec.BundleName][deviceID] = rec
	m.updateBundleGauge()
	return nil
}

// DeleteRemoteBundleInfo removes the view of a bundle synced from deviceID
func (m *Manager) DeleteRemoteBundleInfo(ctx context.Context, deviceID, name string) error {
	if deviceID == "" || deviceID == types.CurrentDeviceID {
		return fmt.Errorf("%w: %q", ErrInvalidDevice, deviceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.bundles[name][deviceID]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrBundleNotFound, name, deviceID)
	}
	if err := m.store.DeleteStorageBundleInfo(ctx, deviceID, info); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrPersist, name, deviceID, err)
	}
	delete(m.bundles[name], deviceID)
	if len(m.bundles[name]) == 0 {
		delete(m.bundles, name)
	}
	m.updateBundleGauge()
	return nil
}

// GetRemoteBundleInfo returns the bundle view synced from deviceID
func (m *Manager) GetRemoteBundleInfo(name, deviceID string, flags types.BundleFlag) (types.BundleInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.bundles[name][deviceID]
	if !ok {
		return types.BundleInfo{}, false
	}
	return info.BundleInfoFor(flags, info.ResponseUserID(types.AnyUserID)), true
}

// ============================================================================
// Enablement
// ============================================================================

// SetApplicationEnabled flips the per-user application switch, persisting first
func (m *Manager) SetApplicationEnabled(ctx context.Context, name string, enabled bool, userID int32) error {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return fmt.Errorf("%w: %d", ErrInvalidUser, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.current(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBundleNotFound, name)
	}
	responseUserID := info.ResponseUserID(requestUserID)
	if responseUserID == types.InvalidUserID {
		return fmt.Errorf("%w: %s for user %d", ErrUserNotFound, name, requestUserID)
	}

	rec := info.Clone()
	rec.SetApplicationEnabled(enabled, responseUserID)
	if err := m.store.SaveStorageBundleInfo(ctx, types.CurrentDeviceID, rec); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPersist, name, err)
	}
	info.SetApplicationEnabled(enabled, responseUserID)
	m.log.Info("Application enablement changed",
		zap.String("bundle", name),
		zap.Int32("user", responseUserID),
		zap.Bool("enabled", enabled))
	return nil
}

// IsApplicationEnabled reports the per-user application switch
func (m *Manager) IsApplicationEnabled(ctx context.Context, name string, userID int32) (bool, error) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return false, fmt.Errorf("%w: %d", ErrInvalidUser, userID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.current(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
	}
	responseUserID := info.ResponseUserID(requestUserID)
	if responseUserID == types.InvalidUserID {
		return false, fmt.Errorf("%w: %s for user %d", ErrUserNotFound, name, requestUserID)
	}
	return info.ApplicationEnabled(responseUserID), nil
}

// SetAbilityEnabled flips the per-user ability switch, persisting first
func (m *Manager) SetAbilityEnabled(ctx context.Context, ability types.AbilityInfo, enabled bool, userID int32) error {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return fmt.Errorf("%w: %d", ErrInvalidUser, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.current(ability.BundleName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBundleNotFound, ability.BundleName)
	}
	found, ok := info.FindAbility(ability.ModuleName, ability.Name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrAbilityNotFound, ability.BundleName, ability.Name)
	}
	responseUserID := info.ResponseUserID(requestUserID)
	if responseUserID == types.InvalidUserID {
		return fmt.Errorf("%w: %s for user %d", ErrUserNotFound, ability.BundleName, requestUserID)
	}

	rec := info.Clone()
	rec.SetAbilityEnabled(found.ModuleName, found.Name, enabled, responseUserID)
	if err := m.store.SaveStorageBundleInfo(ctx, types.CurrentDeviceID, rec); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPersist, ability.BundleName, err)
	}
	info.SetAbilityEnabled(found.ModuleName, found.Name, enabled, responseUserID)
	m.log.Info("Ability enablement changed",
		zap.String("bundle", ability.BundleName),
		zap.String("ability", found.Name),
		zap.Int32("user", responseUserID),
		zap.Bool("enabled", enabled))
	return nil
}

// IsAbilityEnabled reports the per-user ability switch
func (m *Manager) IsAbilityEnabled(ctx context.Context, ability types.AbilityInfo, userID int32) (bool, error) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return false, fmt.Errorf("%w: %d", ErrInvalidUser, userID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.current(ability.BundleName)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrBundleNotFound, ability.BundleName)
	}
	found, ok := info.FindAbility(ability.ModuleName, ability.Name)
	if !ok {
		return false, fmt.Errorf("%w: %s/%s", ErrAbilityNotFound, ability.BundleName, ability.Name)
	}
	responseUserID := info.ResponseUserID(requestUserID)
	if responseUserID == types.InvalidUserID {
		return false, fmt.Errorf("%w: %s for user %d", ErrUserNotFound, ability.BundleName, requestUserID)
	}
	return info.AbilityEnabled(found.ModuleName, found.Name, responseUserID), nil
}
