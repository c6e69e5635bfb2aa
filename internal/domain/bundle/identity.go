package bundle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// GenerateBundleID returns the bundle id of name, allocating the lowest free
// id in [BaseAppUID, MaxAppUID] for a new name
func (m *Manager) GenerateBundleID(name string) (int, error) {
	m.idMu.Lock()
	defer m.idMu.Unlock()

	if len(m.bundleIDs) == 0 {
		m.bundleIDs[types.BaseAppUID] = name
		return types.BaseAppUID, nil
	}

	maxID := types.BaseAppUID - 1
	for id, owner := range m.bundleIDs {
		if owner == name {
			return id, nil
		}
		if id > maxID {
			maxID = id
		}
	}

	for id := types.BaseAppUID; id < maxID; id++ {
		if _, used := m.bundleIDs[id]; !used {
			m.bundleIDs[id] = name
			return id, nil
		}
	}

	if maxID >= types.MaxAppUID {
		m.log.Error("Bundle id space exhausted", zap.String("bundle", name))
		return 0, fmt.Errorf("%w: %s", ErrIDExhausted, name)
	}
	m.bundleIDs[maxID+1] = name
	return maxID + 1, nil
}

// GenerateUidAndGid fills the uid and gids of userInfo.
// uid = userID*BaseUserRange + bundleID; the primary gid equals the uid.
func (m *Manager) GenerateUidAndGid(userInfo *types.InnerBundleUserInfo) error {
	bundleID, err := m.GenerateBundleID(userInfo.BundleName)
	if err != nil {
		return err
	}
	uid := userInfo.BundleUserInfo.UserID*types.BaseUserRange + int32(bundleID)
	userInfo.UID = uid
	userInfo.GIDs = []int32{uid}
	return nil
}

// recoverBundleID re-registers an id found in a loaded record
func (m *Manager) recoverBundleID(name string, bundleID int) {
	if bundleID < types.BaseAppUID || bundleID > types.MaxAppUID {
		return
	}
	m.idMu.Lock()
	defer m.idMu.Unlock()

	if owner, used := m.bundleIDs[bundleID]; used && owner != name {
		m.log.Warn("Bundle id claimed twice",
			zap.Int("id", bundleID),
			zap.String("owner", owner),
			zap.String("bundle", name))
		return
	}
	m.bundleIDs[bundleID] = name
}

// recycleUidAndGid frees the bundle id of a deleted record
func (m *Manager) recycleUidAndGid(info *types.InnerBundleInfo) {
	m.recycleBundleID(info.BundleName)
}

// recycleBundleID frees the id reserved for name, if any
func (m *Manager) recycleBundleID(name string) {
	m.idMu.Lock()
	defer m.idMu.Unlock()

	for id, owner := range m.bundleIDs {
		if owner == name {
			delete(m.bundleIDs, id)
			return
		}
	}
}
