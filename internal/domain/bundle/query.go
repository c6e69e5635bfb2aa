package bundle

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// resolve looks up the local record visible to requestUserID. A bundle held
// by an installer is never visible; the application switch is honored
// unless withDisable. Caller holds mu.
func (m *Manager) resolve(name string, requestUserID int32, withDisable bool) (*types.InnerBundleInfo, int32, bool) {
	info, ok := m.current(name)
	if !ok || info.IsDisabled() {
		return nil, types.InvalidUserID, false
	}
	responseUserID := info.ResponseUserID(requestUserID)
	if responseUserID == types.InvalidUserID {
		return nil, types.InvalidUserID, false
	}
	if !withDisable && !info.ApplicationEnabled(responseUserID) {
		return nil, types.InvalidUserID, false
	}
	return info, responseUserID, true
}

func (m *Manager) recordQuery(kind string, found bool) {
	if m.metrics != nil {
		m.metrics.RecordQuery(kind, found)
	}
}

// GetBundleInfo returns the view of name for userID
func (m *Manager) GetBundleInfo(ctx context.Context, name string, flags types.BundleFlag, userID int32) (types.BundleInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.BundleInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, responseUserID, ok := m.resolve(name, requestUserID, flags.Has(types.GetBundleWithDisable))
	m.recordQuery("bundle", ok)
	if !ok {
		return types.BundleInfo{}, false
	}
	return info.BundleInfoFor(flags, responseUserID), true
}

// GetBundleInfos returns the view of every bundle visible to userID, ordered
// by bundle name. With AllUserID each bundle appears once, from its lowest
// user's view.
func (m *Manager) GetBundleInfos(ctx context.Context, flags types.BundleFlag, userID int32) ([]types.BundleInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.BundleInfo
	for _, name := range m.sortedNames() {
		info, responseUserID, ok := m.resolve(name, requestUserID, flags.Has(types.GetBundleWithDisable))
		if !ok {
			continue
		}
		out = append(out, info.BundleInfoFor(flags, responseUserID))
	}
	return out, len(out) > 0
}

// GetApplicationInfo returns the application view of name for userID
func (m *Manager) GetApplicationInfo(ctx context.Context, name string, flags types.ApplicationFlag, userID int32) (types.ApplicationInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.ApplicationInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, responseUserID, ok := m.resolve(name, requestUserID, flags.Has(types.GetApplicationInfoWithDisable))
	m.recordQuery("application", ok)
	if !ok {
		return types.ApplicationInfo{}, false
	}
	return info.ApplicationInfoFor(flags, responseUserID), true
}

// GetApplicationInfos returns the application view of every bundle visible to userID
func (m *Manager) GetApplicationInfos(ctx context.Context, flags types.ApplicationFlag, userID int32) ([]types.ApplicationInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.ApplicationInfo
	for _, name := range m.sortedNames() {
		info, responseUserID, ok := m.resolve(name, requestUserID, flags.Has(types.GetApplicationInfoWithDisable))
		if !ok {
			continue
		}
		out = append(out, info.ApplicationInfoFor(flags, responseUserID))
	}
	return out, len(out) > 0
}

// GetBundleList returns names of bundles installed for userID, including
// disabled applications
func (m *Manager) GetBundleList(ctx context.Context, userID int32) ([]string, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, name := range m.sortedNames() {
		if _, _, ok := m.resolve(name, requestUserID, true); ok {
			out = append(out, name)
		}
	}
	return out, len(out) > 0
}

// GetBundleInfosByMetaData returns bundles declaring metadata named metaData
// on any module or in application metadata
func (m *Manager) GetBundleInfosByMetaData(metaData string) ([]types.BundleInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.BundleInfo
	for _, name := range m.sortedNames() {
		info, responseUserID, ok := m.resolve(name, types.AnyUserID, false)
		if !ok || !hasMetadata(info, metaData) {
			continue
		}
		out = append(out, info.BundleInfoFor(types.GetBundleWithAbilities, responseUserID))
	}
	return out, len(out) > 0
}

func hasMetadata(info *types.InnerBundleInfo, name string) bool {
	for _, module := range info.Modules {
		for _, md := range module.Metadata {
			if md.Name == name {
				return true
			}
		}
	}
	for _, mds := range info.ApplicationInfo.Metadata {
		for _, md := range mds {
			if md.Name == name {
				return true
			}
		}
	}
	return false
}

// QueryKeepAliveBundleInfos returns every keep-alive system bundle
func (m *Manager) QueryKeepAliveBundleInfos() ([]types.BundleInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.BundleInfo
	for _, name := range m.sortedNames() {
		info, responseUserID, ok := m.resolve(name, types.AnyUserID, false)
		if !ok || !info.IsKeepAlive || !info.IsSystemApp() {
			continue
		}
		out = append(out, info.BundleInfoFor(types.GetBundleWithAbilities, responseUserID))
	}
	return out, len(out) > 0
}

// GetHapModuleInfo returns the module declaring ability
func (m *Manager) GetHapModuleInfo(ctx context.Context, ability types.AbilityInfo, userID int32) (types.HapModuleInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.HapModuleInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, _, ok := m.resolve(ability.BundleName, requestUserID, false)
	if !ok {
		return types.HapModuleInfo{}, false
	}
	moduleName := ability.ModuleName
	if moduleName == "" {
		found, ok := info.FindAbility("", ability.Name)
		if !ok {
			return types.HapModuleInfo{}, false
		}
		moduleName = found.ModuleName
	}
	return info.ModuleView(moduleName)
}

// GetLaunchWantForBundle builds the home want that starts name's main ability
func (m *Manager) GetLaunchWantForBundle(ctx context.Context, name string, userID int32) (types.Want, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.Want{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, _, ok := m.resolve(name, requestUserID, false)
	if !ok {
		return types.Want{}, false
	}

	launcher := defaultLauncherWant()
	var main *types.AbilityInfo
	if info.MainAbility != "" {
		main, _ = info.FindAbility("", info.MainAbility)
	}
	if main == nil {
		for _, a := range info.Abilities() {
			if matchesAny(info.Skills[a.Name], launcher, true) {
				main = a
				break
			}
		}
	}
	if main == nil {
		return types.Want{}, false
	}

	return types.Want{
		Element: types.ElementName{
			BundleName:  name,
			ModuleName:  main.ModuleName,
			AbilityName: main.Name,
		},
		Action:   types.ActionHome,
		Entities: []string{types.EntityHome},
	}, true
}

// GetAbilityLabel returns the declared label of an ability
func (m *Manager) GetAbilityLabel(name, abilityName string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.current(name)
	if !ok || info.IsDisabled() {
		return "", false
	}
	a, ok := info.FindAbility("", abilityName)
	if !ok {
		return "", false
	}
	return a.Label, true
}

// GetBundleNames returns every locally installed bundle name
func (m *Manager) GetBundleNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedNames()
}

// HasBundle reports whether name has a local record
func (m *Manager) HasBundle(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.current(name)
	return ok
}
