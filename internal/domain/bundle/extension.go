package bundle

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// QueryExtensionAbilityInfos resolves want to extension abilities, explicitly
// when want names a bundle and a component
func (m *Manager) QueryExtensionAbilityInfos(ctx context.Context, want types.Want, flags types.ExtensionFlag, userID int32) ([]types.ExtensionAbilityInfo, bool) {
	if want.IsExplicit() {
		info, ok := m.ExplicitQueryExtensionInfo(ctx, want, flags, userID)
		if !ok {
			return nil, false
		}
		return []types.ExtensionAbilityInfo{info}, true
	}
	return m.ImplicitQueryExtensionInfos(ctx, want, flags, userID)
}

// ExplicitQueryExtensionInfo looks up the extension named by want.Element
func (m *Manager) ExplicitQueryExtensionInfo(ctx context.Context, want types.Want, flags types.ExtensionFlag, userID int32) (types.ExtensionAbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.ExtensionAbilityInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info, responseUserID, ok := m.resolve(want.Element.BundleName, requestUserID, false)
	if !ok {
		m.recordQuery("extension_explicit", false)
		return types.ExtensionAbilityInfo{}, false
	}
	e, ok := info.FindExtension(want.Element.ModuleName, want.Element.AbilityName)
	m.recordQuery("extension_explicit", ok)
	if !ok {
		return types.ExtensionAbilityInfo{}, false
	}
	return info.ExtensionView(e, flags, responseUserID), true
}

// ImplicitQueryExtensionInfos matches want against extension skills, in
// bundle then extension name order
func (m *Manager) ImplicitQueryExtensionInfos(ctx context.Context, want types.Want, flags types.ExtensionFlag, userID int32) ([]types.ExtensionAbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := m.sortedNames()
	if want.Element.BundleName != "" {
		names = []string{want.Element.BundleName}
	}

	var out []types.ExtensionAbilityInfo
	for _, name := range names {
		info, responseUserID, ok := m.resolve(name, requestUserID, false)
		if !ok {
			continue
		}
		for _, extName := range sortedSkillKeys(info.ExtensionSkills) {
			if !matchesAny(info.ExtensionSkills[extName], want, false) {
				continue
			}
			if e, ok := info.FindExtension("", extName); ok {
				out = append(out, info.ExtensionView(e, flags, responseUserID))
			}
		}
	}
	m.recordQuery("extension_implicit", len(out) > 0)
	return out, len(out) > 0
}

// QueryExtensionAbilityInfosByType lists every extension of extType
func (m *Manager) QueryExtensionAbilityInfosByType(ctx context.Context, extType types.ExtensionType, userID int32) ([]types.ExtensionAbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.ExtensionAbilityInfo
	for _, name := range m.sortedNames() {
		info, responseUserID, ok := m.resolve(name, requestUserID, false)
		if !ok {
			continue
		}
		for _, e := range info.Extensions() {
			if e.Type == extType {
				out = append(out, info.ExtensionView(e, types.GetExtensionInfoDefault, responseUserID))
			}
		}
	}
	m.recordQuery("extension_type", len(out) > 0)
	return out, len(out) > 0
}
