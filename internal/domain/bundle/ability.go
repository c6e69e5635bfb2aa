package bundle

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

func defaultLauncherWant() types.Want {
	return types.Want{
		Action:   types.WantActionHome,
		Entities: []string{types.EntityHome},
	}
}

// matchesAny reports whether any skill accepts want. The launcher variant
// ignores uri and type.
func matchesAny(skills []types.Skill, want types.Want, launcher bool) bool {
	for _, s := range skills {
		if launcher && s.MatchLauncher(want) {
			return true
		}
		if !launcher && s.Match(want) {
			return true
		}
	}
	return false
}

func sortedSkillKeys(skills map[string][]types.Skill) []string {
	keys := make([]string, 0, len(skills))
	for k := range skills {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QueryAbilityInfo resolves want to a single ability
func (m *Manager) QueryAbilityInfo(ctx context.Context, want types.Want, flags types.AbilityFlag, userID int32) (types.AbilityInfo, bool) {
	if want.IsExplicit() {
		return m.ExplicitQueryAbilityInfo(ctx, want, flags, userID)
	}
	infos, ok := m.ImplicitQueryAbilityInfos(ctx, want, flags, userID)
	if !ok {
		return types.AbilityInfo{}, false
	}
	return infos[0], true
}

// QueryAbilityInfos resolves want to every matching ability
func (m *Manager) QueryAbilityInfos(ctx context.Context, want types.Want, flags types.AbilityFlag, userID int32) ([]types.AbilityInfo, bool) {
	if want.IsExplicit() {
		info, ok := m.ExplicitQueryAbilityInfo(ctx, want, flags, userID)
		if !ok {
			return nil, false
		}
		return []types.AbilityInfo{info}, true
	}
	return m.ImplicitQueryAbilityInfos(ctx, want, flags, userID)
}

// ExplicitQueryAbilityInfo looks up the ability named by want.Element
func (m *Manager) ExplicitQueryAbilityInfo(ctx context.Context, want types.Want, flags types.AbilityFlag, userID int32) (types.AbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return types.AbilityInfo{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	withDisable := flags.Has(types.GetAbilityInfoWithDisable)
	info, responseUserID, ok := m.resolve(want.Element.BundleName, requestUserID, withDisable)
	if !ok {
		m.recordQuery("ability_explicit", false)
		return types.AbilityInfo{}, false
	}
	if flags.Has(types.GetAbilityInfoSystemAppOnly) && !info.IsSystemApp() {
		m.recordQuery("ability_explicit", false)
		return types.AbilityInfo{}, false
	}
	a, ok := info.FindAbility(want.Element.ModuleName, want.Element.AbilityName)
	if !ok || (!withDisable && !info.AbilityEnabled(a.ModuleName, a.Name, responseUserID)) {
		m.log.Debug("Explicit ability query missed",
			zap.String("bundle", want.Element.BundleName),
			zap.String("ability", want.Element.AbilityName))
		m.recordQuery("ability_explicit", false)
		return types.AbilityInfo{}, false
	}
	m.recordQuery("ability_explicit", true)
	return info.AbilityView(a, flags, responseUserID), true
}

// ImplicitQueryAbilityInfos matches want against declared skills. With a
// bundle name on want only that bundle is scanned. Bundles and abilities are
// visited in name order; each ability appears at most once.
func (m *Manager) ImplicitQueryAbilityInfos(ctx context.Context, want types.Want, flags types.AbilityFlag, userID int32) ([]types.AbilityInfo, bool) {
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

	var out []types.AbilityInfo
	for _, name := range names {
		out = m.collectAbilities(out, name, want, flags, requestUserID, false)
	}
	m.recordQuery("ability_implicit", len(out) > 0)
	return out, len(out) > 0
}

// QueryLauncherAbilityInfos lists abilities matching the launcher want.
// Disabled bundles are skipped but ability enablement is ignored so a
// launcher can still show a disabled entry.
func (m *Manager) QueryLauncherAbilityInfos(ctx context.Context, want types.Want, userID int32) ([]types.AbilityInfo, bool) {
	requestUserID := m.GetUserID(ctx, userID)
	if requestUserID == types.InvalidUserID {
		return nil, false
	}
	if want.Action == "" && len(want.Entities) == 0 {
		bundleName := want.Element.BundleName
		want = defaultLauncherWant()
		want.Element.BundleName = bundleName
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := m.sortedNames()
	if want.Element.BundleName != "" {
		names = []string{want.Element.BundleName}
	}

	var out []types.AbilityInfo
	for _, name := range names {
		out = m.collectAbilities(out, name, want, types.GetAbilityInfoWithApplication, requestUserID, true)
	}
	m.recordQuery("launcher", len(out) > 0)
	return out, len(out) > 0
}

// collectAbilities appends the abilities of one bundle that match want.
// Caller holds mu.
func (m *Manager) collectAbilities(out []types.AbilityInfo, name string, want types.Want, flags types.AbilityFlag, requestUserID int32, launcher bool) []types.AbilityInfo {
	withDisable := flags.Has(types.GetAbilityInfoWithDisable)
	info, responseUserID, ok := m.resolve(name, requestUserID, withDisable)
	if !ok {
		return out
	}
	if flags.Has(types.GetAbilityInfoSystemAppOnly) && !info.IsSystemApp() {
		return out
	}
	for _, abilityName := range sortedSkillKeys(info.Skills) {
		if !matchesAny(info.Skills[abilityName], want, launcher) {
			continue
		}
		a, ok := info.FindAbility("", abilityName)
		if !ok {
			continue
		}
		if !launcher && !withDisable && !info.AbilityEnabled(a.ModuleName, a.Name, responseUserID) {
			continue
		}
		out = append(out, info.AbilityView(a, flags, responseUserID))
	}
	return out
}
