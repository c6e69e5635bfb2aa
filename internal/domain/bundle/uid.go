package bundle

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// findByUID scans local records for one holding uid. Caller holds mu.
func (m *Manager) findByUID(uid int32) (*types.InnerBundleInfo, bool) {
	if uid < types.BaseAppUID {
		return nil, false
	}
	userID := m.GetUserIDByUID(uid)
	for _, name := range m.sortedNames() {
		info, _ := m.current(name)
		if info.IsDisabled() {
			continue
		}
		if info.UID(userID) == uid {
			return info, true
		}
	}
	return nil, false
}

// GetInnerBundleInfoByUid returns a copy of the record owning uid
func (m *Manager) GetInnerBundleInfoByUid(uid int32) (*types.InnerBundleInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.findByUID(uid)
	if !ok {
		return nil, false
	}
	return info.Clone(), true
}

// GetBundleNameForUid returns the bundle name owning uid
func (m *Manager) GetBundleNameForUid(uid int32) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.findByUID(uid)
	if !ok {
		return "", false
	}
	return info.BundleName, true
}

// GetBundlesForUid lists bundle names sharing uid
func (m *Manager) GetBundlesForUid(uid int32) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if uid < types.BaseAppUID {
		return nil, false
	}
	userID := m.GetUserIDByUID(uid)
	var out []string
	for _, name := range m.sortedNames() {
		info, _ := m.current(name)
		if !info.IsDisabled() && info.UID(userID) == uid {
			out = append(out, name)
		}
	}
	return out, len(out) > 0
}

// GetNameForUid returns the bundle name owning uid
func (m *Manager) GetNameForUid(uid int32) (string, bool) {
	return m.GetBundleNameForUid(uid)
}

// GetBundleGids returns the gids of name for userID
func (m *Manager) GetBundleGids(ctx context.Context, name string, userID int32) ([]int32, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.current(name)
	if !ok || info.IsDisabled() {
		return nil, false
	}
	gids := info.GIDs(info.ResponseUserID(requestUserID))
	return gids, len(gids) > 0
}

// GetBundleGidsByUid is not implemented by the registry. It always succeeds
// with no gids.
func (m *Manager) GetBundleGidsByUid(name string, uid int32) ([]int32, bool) {
	return nil, true
}

// CheckIsSystemAppByUid reports whether uid is a system uid or belongs to a
// system application
func (m *Manager) CheckIsSystemAppByUid(uid int32) bool {
	if uid >= types.RootUID && uid <= types.MaxSysUID {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.findByUID(uid)
	return ok && info.IsSystemApp()
}
