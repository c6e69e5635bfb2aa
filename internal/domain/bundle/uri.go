package bundle

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// parseAuthority extracts the authority of prefix://deviceID/authority/path.
// Trailing path segments are dropped.
func parseAuthority(uri, prefix string) (string, bool) {
	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(uri, prefix)
	_, afterDevice, ok := strings.Cut(rest, types.URISeparator)
	if !ok {
		return "", false
	}
	authority, _, _ := strings.Cut(afterDevice, types.URISeparator)
	if authority == "" {
		return "", false
	}
	return authority, true
}

// QueryAbilityInfoByURI resolves a dataability:// uri to the data ability
// declaring its authority. Bundles are scanned in map order and the first
// match wins; two bundles declaring one authority resolve arbitrarily.
func (m *Manager) QueryAbilityInfoByURI(ctx context.Context, uri string, flags types.AbilityFlag, userID int32) (types.AbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.AbilityInfo{}, false
	}
	authority, ok := parseAuthority(uri, types.DataAbilityURIPrefix)
	if !ok {
		return types.AbilityInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	withDisable := flags.Has(types.GetAbilityInfoWithDisable)
	for name := range m.bundles {
		info, responseUserID, ok := m.resolve(name, requestUserID, withDisable)
		if !ok {
			continue
		}
		if flags.Has(types.GetAbilityInfoSystemAppOnly) && !info.IsSystemApp() {
			continue
		}
		a, ok := info.FindAbilityByURI(authority)
		if !ok {
			continue
		}
		if !withDisable && !info.AbilityEnabled(a.ModuleName, a.Name, responseUserID) {
			continue
		}
		m.recordQuery("ability_uri", true)
		return info.AbilityView(a, flags, responseUserID), true
	}
	m.recordQuery("ability_uri", false)
	return types.AbilityInfo{}, false
}

// QueryAbilityInfosByURI collects every enabled data ability declaring the
// authority of uri, ordered by bundle name
func (m *Manager) QueryAbilityInfosByURI(ctx context.Context, uri string, userID int32) ([]types.AbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}
	authority, ok := parseAuthority(uri, types.DataAbilityURIPrefix)
	if !ok {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.AbilityInfo
	for _, name := range m.sortedNames() {
		info, responseUserID, ok := m.resolve(name, requestUserID, false)
		if !ok {
			continue
		}
		for _, a := range info.Abilities() {
			if a.Type != types.AbilityTypeData || a.URI != types.DataAbilityURIPrefix+authority {
				continue
			}
			if info.AbilityEnabled(a.ModuleName, a.Name, responseUserID) {
				out = append(out, info.AbilityView(a, types.GetAbilityInfoDefault, responseUserID))
			}
		}
	}
	m.recordQuery("ability_uri", len(out) > 0)
	return out, len(out) > 0
}

// QueryExtensionAbilityInfoByURI resolves a datashare:// uri to the
// extension declaring its authority, first match in map order
func (m *Manager) QueryExtensionAbilityInfoByURI(ctx context.Context, uri string, userID int32) (types.ExtensionAbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.ExtensionAbilityInfo{}, false
	}
	authority, ok := parseAuthority(uri, types.DataShareURIPrefix)
	if !ok {
		return types.ExtensionAbilityInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for name := range m.bundles {
		info, responseUserID, ok := m.resolve(name, requestUserID, false)
		if !ok {
			continue
		}
		if e, ok := info.FindExtensionByURI(authority); ok {
			m.recordQuery("extension_uri", true)
			return info.ExtensionView(e, types.GetExtensionInfoDefault, responseUserID), true
		}
	}
	m.recordQuery("extension_uri", false)
	return types.ExtensionAbilityInfo{}, false
}
