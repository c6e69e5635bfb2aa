package bundle

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// AddUserID registers a user id
func (m *Manager) AddUserID(userID int32) {
	m.userMu.Lock()
	defer m.userMu.Unlock()
	m.userIDs[userID] = struct{}{}
}

// RemoveUserID forgets a user id
func (m *Manager) RemoveUserID(userID int32) {
	m.userMu.Lock()
	defer m.userMu.Unlock()
	delete(m.userIDs, userID)
}

// HasUserID reports whether userID is registered
func (m *Manager) HasUserID(userID int32) bool {
	m.userMu.RLock()
	defer m.userMu.RUnlock()
	_, ok := m.userIDs[userID]
	return ok
}

// GetAllUser returns registered user ids in ascending order
func (m *Manager) GetAllUser() []int32 {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	ids := make([]int32, 0, len(m.userIDs))
	for id := range m.userIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetUserIDByUID derives the owning user of uid
func (m *Manager) GetUserIDByUID(uid int32) int32 {
	if uid < 0 {
		return types.InvalidUserID
	}
	return uid / types.BaseUserRange
}

// GetUserID resolves a request user id. ANY and ALL pass through;
// UNSPECIFIED becomes the user of the calling uid in ctx (uid 0 when the
// call is in-process); anything unregistered is InvalidUserID.
func (m *Manager) GetUserID(ctx context.Context, userID int32) int32 {
	if userID == types.AnyUserID || userID == types.AllUserID {
		return userID
	}
	if userID == types.UnspecifiedUserID {
		uid, ok := CallingUID(ctx)
		if !ok {
			uid = types.RootUID
		}
		userID = m.GetUserIDByUID(uid)
	}
	if !m.HasUserID(userID) {
		return types.InvalidUserID
	}
	return userID
}

// AddInnerBundleUserInfo installs an existing bundle for another user.
// Requires USER_CHANGE.
func (m *Manager) AddInnerBundleUserInfo(ctx context.Context, name string, userInfo *types.InnerBundleUserInfo) error {
	if !m.HasUserID(userInfo.BundleUserInfo.UserID) {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userInfo.BundleUserInfo.UserID)
	}
	return m.replace(ctx, name, "add user", []types.InstallState{types.UserChange}, func(rec *types.InnerBundleInfo) error {
		rec.AddUserInfo(userInfo)
		return nil
	})
}

// RemoveInnerBundleUserInfo uninstalls a bundle for one user.
// Requires UNINSTALL_START or USER_CHANGE.
func (m *Manager) RemoveInnerBundleUserInfo(ctx context.Context, name string, userID int32) error {
	err := m.replace(ctx, name, "remove user", []types.InstallState{types.UninstallStart, types.UserChange}, func(rec *types.InnerBundleInfo) error {
		if !rec.RemoveUserInfo(userID) {
			return fmt.Errorf("%w: %s for user %d", ErrUserNotFound, name, userID)
		}
		return nil
	})
	if err == nil {
		m.log.Info("Bundle removed for user", zap.String("bundle", name), zap.Int32("user", userID))
	}
	return err
}

// GetInnerBundleUserInfos returns copies of every per-user info of name,
// ordered by user id
func (m *Manager) GetInnerBundleUserInfos(name string) ([]types.InnerBundleUserInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.current(name)
	if !ok || info.IsDisabled() || len(info.UserInfos) == 0 {
		return nil, false
	}
	out := make([]types.InnerBundleUserInfo, 0, len(info.UserInfos))
	for _, id := range info.UserIDs() {
		out = append(out, *info.UserInfos[id].Clone())
	}
	return out, true
}

// GetBundleUserInfo returns a copy of the per-user info of name for userID
func (m *Manager) GetBundleUserInfo(ctx context.Context, name string, userID int32) (types.InnerBundleUserInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.InnerBundleUserInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.current(name)
	if !ok || info.IsDisabled() {
		return types.InnerBundleUserInfo{}, false
	}
	u, ok := info.UserInfo(info.ResponseUserID(requestUserID))
	if !ok {
		return types.InnerBundleUserInfo{}, false
	}
	return *u.Clone(), true
}
