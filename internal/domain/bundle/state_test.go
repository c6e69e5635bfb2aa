package bundle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

func TestTransitionFromNoState(t *testing.T) {
	for _, target := range types.AllInstallStates() {
		t.Run(target.String(), func(t *testing.T) {
			m, _ := newTestManager(t)
			ok := m.UpdateBundleInstallState(context.Background(), testBundle, target)

			_, has := m.GetBundleInstallState(testBundle)
			if target == types.InstallStart {
				assert.True(t, ok)
				assert.True(t, has)
			} else {
				assert.False(t, ok)
				assert.False(t, has)
			}
		})
	}
}

func TestTransitionTotality(t *testing.T) {
	for _, current := range types.AllInstallStates() {
		for _, target := range types.AllInstallStates() {
			name := fmt.Sprintf("%s->%s", current, target)
			t.Run(name, func(t *testing.T) {
				m, store := newTestManager(t)
				m.states[testBundle] = current
				legal := containsState(legalPredecessors[target], current)

				ok := m.UpdateBundleInstallState(context.Background(), testBundle, target)
				require.Equal(t, legal, ok)

				state, has := m.GetBundleInstallState(testBundle)
				switch {
				case !legal:
					assert.True(t, has)
					assert.Equal(t, current, state, "rejected transition must not mutate")
					assert.Zero(t, store.deletes)
				case target == types.UninstallFail:
					assert.True(t, has)
					assert.Equal(t, types.InstallSuccess, state)
				case deleteTriggers[target]:
					assert.False(t, has)
				default:
					assert.True(t, has)
					assert.Equal(t, target, state)
				}
			})
		}
	}
}

func TestIsLegalTransition(t *testing.T) {
	tests := []struct {
		current    types.InstallState
		hasCurrent bool
		target     types.InstallState
		want       bool
	}{
		{0, false, types.InstallStart, true},
		{0, false, types.UninstallStart, false},
		{types.InstallStart, true, types.InstallStart, false},
		{types.InstallStart, true, types.InstallSuccess, true},
		{types.InstallSuccess, true, types.UninstallSuccess, false},
		{types.UninstallStart, true, types.UninstallSuccess, true},
		{types.UpdatingStart, true, types.RollBack, true},
		{types.RollBack, true, types.InstallSuccess, true},
		{types.UserChange, true, types.UpdatingSuccess, true},
		{types.UninstallStart, true, types.UpdatingStart, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLegalTransition(tt.current, tt.hasCurrent, tt.target),
			"%v(%v) -> %v", tt.current, tt.hasCurrent, tt.target)
	}
}

func TestDeleteFailureKeepsState(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallStart))
	store.setFailDelete(true)

	assert.False(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallSuccess))
	state, ok := m.GetBundleInstallState(testBundle)
	require.True(t, ok)
	assert.Equal(t, types.UninstallStart, state)
	assert.True(t, m.HasBundle(testBundle))

	store.setFailDelete(false)
	assert.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallSuccess))
	assert.False(t, m.HasBundle(testBundle))
}

func TestUninstallFailKeepsRecord(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallStart))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallFail))

	state, ok := m.GetBundleInstallState(testBundle)
	require.True(t, ok)
	assert.Equal(t, types.InstallSuccess, state)
	_, found := m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, types.DefaultUserID)
	assert.True(t, found)
}

func TestInstallFailDeletesRecord(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallStart))
	require.NoError(t, m.AddInnerBundleInfo(ctx, testBundle, newTestInfo(testBundle)))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallFail))

	assert.False(t, m.HasBundle(testBundle))
	_, stored := store.stored(testBundle)
	assert.False(t, stored)
	_, has := m.GetBundleInstallState(testBundle)
	assert.False(t, has)
}

func TestInstallFailFreesReservedID(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	require.True(t, m.UpdateBundleInstallState(ctx, "com.example.failed", types.InstallStart))
	userInfo := &types.InnerBundleUserInfo{BundleName: "com.example.failed"}
	require.NoError(t, m.GenerateUidAndGid(userInfo))
	assert.Equal(t, int32(types.BaseAppUID), userInfo.UID)

	store.setFailSave(true)
	info := newTestInfo("com.example.failed")
	assert.ErrorIs(t, m.AddInnerBundleInfo(ctx, "com.example.failed", info), ErrPersist)
	require.True(t, m.UpdateBundleInstallState(ctx, "com.example.failed", types.InstallFail))

	id, err := m.GenerateBundleID("com.example.next")
	require.NoError(t, err)
	assert.Equal(t, types.BaseAppUID, id)
}
