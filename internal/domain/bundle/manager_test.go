package bundle

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

func TestInstallThenQuery(t *testing.T) {
	m, _ := newTestManager(t)
	install(t, m, newTestInfo(testBundle))

	info, ok := m.GetBundleInfo(context.Background(), testBundle, types.GetBundleDefault, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, testBundle, info.Name)
	assert.Equal(t, int32(types.BaseAppUID), info.UID)
	assert.Empty(t, info.AbilityInfos, "default flags carry no abilities")
}

func TestUninstallNeverInstalled(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	assert.False(t, m.UpdateBundleInstallState(ctx, "com.example.missing", types.UninstallStart))
	_, ok := m.GetBundleInfo(ctx, "com.example.missing", types.GetBundleDefault, types.DefaultUserID)
	assert.False(t, ok)
}

func TestUninstallDeletesRecord(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallStart))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallSuccess))

	_, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, types.DefaultUserID)
	assert.False(t, ok)
	_, stored := store.stored(testBundle)
	assert.False(t, stored)
	assert.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallStart), "fresh install allowed again")

	id, err := m.GenerateBundleID("com.example.other")
	require.NoError(t, err)
	assert.Equal(t, types.BaseAppUID, id, "uninstall recycles the bundle id")
}

func TestAddRequiresInstallStart(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	err := m.AddInnerBundleInfo(ctx, testBundle, newTestInfo(testBundle))
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.False(t, m.HasBundle(testBundle))
	assert.Zero(t, store.saves)
}

func TestAddRejectsExisting(t *testing.T) {
	m, _ := newTestManager(t)
	install(t, m, newTestInfo(testBundle))

	err := m.AddInnerBundleInfo(context.Background(), testBundle, newTestInfo(testBundle))
	assert.ErrorIs(t, err, ErrBundleExists)
}

func TestAddPersistBeforeCommit(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	store.setFailSave(true)

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallStart))
	err := m.AddInnerBundleInfo(ctx, testBundle, newTestInfo(testBundle))

	assert.ErrorIs(t, err, ErrPersist)
	assert.False(t, m.HasBundle(testBundle))
}

func TestUpdatePersistBeforeCommit(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UpdatingStart))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UpdatingSuccess))

	update := newTestInfo(testBundle)
	update.VersionCode = 2
	update.Vendor = "example"
	store.setFailSave(true)

	err := m.UpdateInnerBundleInfo(ctx, testBundle, update)
	assert.ErrorIs(t, err, ErrPersist)

	info, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, types.DefaultUserID)
	require.True(t, ok)
	assert.Empty(t, info.Vendor)

	store.setFailSave(false)
	require.NoError(t, m.UpdateInnerBundleInfo(ctx, testBundle, update))
	info, _ = m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, types.DefaultUserID)
	assert.Equal(t, "example", info.Vendor)

	stored, ok := store.stored(testBundle)
	require.True(t, ok)
	assert.Equal(t, "example", stored.Vendor)
}

func TestConcurrentAddSingleWinner(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		added   int
		started int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !m.UpdateBundleInstallState(ctx, testBundle, types.InstallStart) {
				return
			}
			mu.Lock()
			started++
			mu.Unlock()

			info := newTestInfo(testBundle)
			if m.AddInnerBundleInfo(ctx, testBundle, info) == nil {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{testBundle}, m.GetBundleNames())
}

func TestModuleLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	feature := &types.InnerBundleInfo{
		BundleName: testBundle,
		Modules: map[string]*types.HapModuleInfo{
			"feature": {
				Name:       "feature",
				ModuleType: types.ModuleFeature,
				Abilities:  []types.AbilityInfo{{Name: "EditAbility", ModuleName: "feature", Type: types.AbilityTypePage}},
			},
		},
		Skills: map[string][]types.Skill{"EditAbility": {{Actions: []string{"EDIT"}}}},
	}

	assert.ErrorIs(t, m.AddNewModuleInfo(ctx, testBundle, feature), ErrIllegalState)

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UpdatingStart))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UpdatingSuccess))
	require.NoError(t, m.AddNewModuleInfo(ctx, testBundle, feature))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallSuccess))

	info, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleWithAbilities, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, []string{"entry", "feature"}, info.ModuleNames)

	abilities, ok := m.ImplicitQueryAbilityInfos(ctx, types.Want{Action: "EDIT"}, 0, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, "EditAbility", abilities[0].Name)

	assert.ErrorIs(t, m.RemoveModuleInfo(ctx, testBundle, "feature"), ErrIllegalState)
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallStart))
	assert.ErrorIs(t, m.RemoveModuleInfo(ctx, testBundle, "missing"), ErrModuleNotFound)
	require.NoError(t, m.RemoveModuleInfo(ctx, testBundle, "feature"))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallSuccess))

	_, ok = m.ImplicitQueryAbilityInfos(ctx, types.Want{Action: "EDIT"}, 0, types.DefaultUserID)
	assert.False(t, ok)
}

func TestInstallerHoldDisablesBundle(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	rec, ok := m.GetInnerBundleInfo(testBundle, "")
	require.True(t, ok)
	rec.VersionCode = 99

	_, ok = m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, types.DefaultUserID)
	assert.False(t, ok, "held bundle is invisible")

	require.True(t, m.EnableBundle(testBundle))
	info, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, uint32(1), info.VersionCode, "installer copy is private")
}

func TestRemoteBundleViews(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	assert.ErrorIs(t, m.SaveRemoteBundleInfo(ctx, types.CurrentDeviceID, newTestInfo(testBundle)), ErrInvalidDevice)

	remote := newTestInfo(testBundle)
	remote.VersionCode = 7
	remote.AddUserInfo(&types.InnerBundleUserInfo{UID: 10000, BundleUserInfo: types.BundleUserInfo{UserID: 0, Enabled: true}})
	require.NoError(t, m.SaveRemoteBundleInfo(ctx, "TABLET-002", remote))

	view, ok := m.GetRemoteBundleInfo(testBundle, "TABLET-002", types.GetBundleDefault)
	require.True(t, ok)
	assert.Equal(t, uint32(7), view.VersionCode)

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallStart))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallSuccess))

	assert.False(t, m.HasBundle(testBundle))
	_, ok = m.GetRemoteBundleInfo(testBundle, "TABLET-002", types.GetBundleDefault)
	assert.True(t, ok, "remote view outlives the local record")

	require.NoError(t, m.DeleteRemoteBundleInfo(ctx, "TABLET-002", testBundle))
	assert.ErrorIs(t, m.DeleteRemoteBundleInfo(ctx, "TABLET-002", testBundle), ErrBundleNotFound)
	assert.Empty(t, store.records)
}

func TestApplicationEnabled(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	enabled, err := m.IsApplicationEnabled(ctx, testBundle, types.DefaultUserID)
	require.NoError(t, err)
	assert.True(t, enabled)

	store.setFailSave(true)
	assert.ErrorIs(t, m.SetApplicationEnabled(ctx, testBundle, false, types.DefaultUserID), ErrPersist)
	enabled, _ = m.IsApplicationEnabled(ctx, testBundle, types.DefaultUserID)
	assert.True(t, enabled, "flag flips only after persist")

	store.setFailSave(false)
	require.NoError(t, m.SetApplicationEnabled(ctx, testBundle, false, types.DefaultUserID))
	enabled, _ = m.IsApplicationEnabled(ctx, testBundle, types.DefaultUserID)
	assert.False(t, enabled)

	_, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, types.DefaultUserID)
	assert.False(t, ok)
	info, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleWithDisable, types.DefaultUserID)
	require.True(t, ok)
	assert.False(t, info.ApplicationInfo.Enabled)

	_, err = m.IsApplicationEnabled(ctx, testBundle, 42)
	assert.ErrorIs(t, err, ErrInvalidUser)
	_, err = m.IsApplicationEnabled(ctx, "com.example.missing", types.DefaultUserID)
	assert.ErrorIs(t, err, ErrBundleNotFound)
}

func TestGetBundleInfoIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	flags := types.GetBundleWithAbilities | types.GetBundleWithMetadata | types.GetBundleWithExtensionInfo
	first, ok := m.GetBundleInfo(ctx, testBundle, flags, types.DefaultUserID)
	require.True(t, ok)
	second, ok := m.GetBundleInfo(ctx, testBundle, flags, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, first, second)

	first.AbilityInfos[0].Name = "Mutated"
	third, _ := m.GetBundleInfo(ctx, testBundle, flags, types.DefaultUserID)
	assert.Equal(t, second, third)
}

func TestLoadDataFromPersistentStorage(t *testing.T) {
	store := newFakeStore()
	rec := newTestInfo(testBundle)
	rec.AddUserInfo(&types.InnerBundleUserInfo{UID: 10005, GIDs: []int32{10005}, BundleUserInfo: types.BundleUserInfo{UserID: 0, Enabled: true}})
	rec.AddUserInfo(&types.InnerBundleUserInfo{UID: 100*types.BaseUserRange + 10005, BundleUserInfo: types.BundleUserInfo{UserID: 100, Enabled: true}})
	require.NoError(t, store.SaveStorageBundleInfo(context.Background(), types.CurrentDeviceID, rec))

	reg := prometheus.NewRegistry()
	m := NewManager(store, zap.NewNop()).WithMetrics(monitoring.NewMetricsWithRegistry(reg))
	require.NoError(t, m.LoadDataFromPersistentStorage(context.Background()))

	state, ok := m.GetBundleInstallState(testBundle)
	require.True(t, ok)
	assert.Equal(t, types.InstallSuccess, state)
	assert.Equal(t, []int32{0, 100}, m.GetAllUser())

	id, err := m.GenerateBundleID(testBundle)
	require.NoError(t, err)
	assert.Equal(t, 10005, id, "id recovered from uid")

	id, err = m.GenerateBundleID("com.example.fresh")
	require.NoError(t, err)
	assert.Equal(t, types.BaseAppUID, id, "gap below the recovered id is reused")
}
