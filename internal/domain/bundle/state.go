package bundle

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

// legalPredecessors maps a target state to the states it may be entered from
var legalPredecessors = map[types.InstallState][]types.InstallState{
	types.InstallSuccess: {
		types.InstallStart, types.UpdatingStart, types.UpdatingSuccess,
		types.UninstallStart, types.RollBack, types.UserChange,
	},
	types.InstallFail:      {types.InstallStart},
	types.UninstallStart:   {types.InstallSuccess, types.InstallStart, types.UpdatingSuccess, types.UserChange},
	types.UninstallSuccess: {types.UninstallStart},
	types.UninstallFail:    {types.UninstallStart},
	types.UpdatingStart:    {types.InstallSuccess, types.InstallStart, types.UpdatingSuccess, types.UserChange},
	types.UpdatingSuccess:  {types.UpdatingStart, types.UserChange},
	types.UpdatingFail:     {types.UpdatingStart, types.InstallStart, types.UpdatingSuccess},
	types.RollBack:         {types.UpdatingStart, types.UpdatingSuccess},
	types.UserChange:       {types.InstallSuccess, types.UpdatingSuccess, types.UpdatingStart, types.UninstallStart},
}

// deleteTriggers end a bundle's lifecycle entry
var deleteTriggers = map[types.InstallState]bool{
	types.InstallFail:      true,
	types.UninstallFail:    true,
	types.UninstallSuccess: true,
	types.UpdatingFail:     true,
}

// IsLegalTransition reports whether target may follow current. hasCurrent is
// false when the bundle has no recorded state.
func IsLegalTransition(current types.InstallState, hasCurrent bool, target types.InstallState) bool {
	if !hasCurrent {
		return target == types.InstallStart
	}
	return containsState(legalPredecessors[target], current)
}

func containsState(states []types.InstallState, state types.InstallState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// UpdateBundleInstallState moves name to target if the transition is legal.
// Delete-triggering targets drop the state entry and the local record in the
// same critical section. UNINSTALL_FAIL keeps the record and returns the
// bundle to INSTALL_SUCCESS. On any rejection nothing changes.
func (m *Manager) UpdateBundleInstallState(ctx context.Context, name string, target types.InstallState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	current, hasCurrent := m.states[name]
	if !IsLegalTransition(current, hasCurrent, target) {
		m.log.Warn("Rejected install state transition",
			zap.String("bundle", name),
			zap.Stringer("current", stateOrNone{current, hasCurrent}),
			zap.Stringer("target", target))
		m.recordTransition(target, false)
		return false
	}

	switch {
	case target == types.UninstallFail:
		// Not a delete trigger here: the record is still installed, so its
		// state entry is kept as INSTALL_SUCCESS.
		m.states[name] = types.InstallSuccess
	case deleteTriggers[target]:
		if err := m.deleteBundleInfo(ctx, name); err != nil {
			m.recordTransition(target, false)
			return false
		}
		delete(m.states, name)
	default:
		m.states[name] = target
	}

	m.log.Debug("Install state transition",
		zap.String("bundle", name),
		zap.Stringer("current", stateOrNone{current, hasCurrent}),
		zap.Stringer("target", target))
	m.recordTransition(target, true)
	return true
}

// GetBundleInstallState returns the recorded state of name
func (m *Manager) GetBundleInstallState(name string) (types.InstallState, bool) {
	return m.stateOf(name)
}

func (m *Manager) recordTransition(target types.InstallState, accepted bool) {
	if m.metrics != nil {
		m.metrics.RecordTransition(target.String(), accepted)
	}
}

type stateOrNone struct {
	state types.InstallState
	ok    bool
}

func (s stateOrNone) String() string {
	if !s.ok {
		return "NONE"
	}
	return s.state.String()
}
