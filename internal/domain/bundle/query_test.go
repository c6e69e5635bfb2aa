package bundle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

func mainAbility() types.AbilityInfo {
	return types.AbilityInfo{BundleName: testBundle, ModuleName: "entry", Name: "MainAbility"}
}

func explicitWant(ability string) types.Want {
	return types.Want{Element: types.ElementName{BundleName: testBundle, AbilityName: ability}}
}

func TestImplicitQuerySingleMatch(t *testing.T) {
	m, _ := newTestManager(t)
	install(t, m, newTestInfo(testBundle))

	infos, ok := m.ImplicitQueryAbilityInfos(context.Background(), types.Want{Action: "VIEW"}, 0, types.DefaultUserID)
	require.True(t, ok)
	require.Len(t, infos, 1)
	assert.Equal(t, "ViewAbility", infos[0].Name)
	assert.Equal(t, testBundle, infos[0].BundleName)
}

func TestImplicitQueryAcrossBundles(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo("com.example.zeta"))
	install(t, m, newTestInfo("com.example.alpha"))

	infos, ok := m.QueryAbilityInfos(ctx, types.Want{Action: "VIEW"}, 0, types.DefaultUserID)
	require.True(t, ok)
	require.Len(t, infos, 2)
	assert.Equal(t, "com.example.alpha", infos[0].BundleName)
	assert.Equal(t, "com.example.zeta", infos[1].BundleName)

	scoped := types.Want{Action: "VIEW", Element: types.ElementName{BundleName: "com.example.zeta"}}
	infos, ok = m.QueryAbilityInfos(ctx, scoped, 0, types.DefaultUserID)
	require.True(t, ok)
	require.Len(t, infos, 1)
	assert.Equal(t, "com.example.zeta", infos[0].BundleName)

	first, ok := m.QueryAbilityInfo(ctx, types.Want{Action: "VIEW"}, 0, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, "com.example.alpha", first.BundleName)

	_, ok = m.QueryAbilityInfo(ctx, types.Want{Action: "NOPE"}, 0, types.DefaultUserID)
	assert.False(t, ok)
}

func TestDisabledAbilityExcluded(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	require.NoError(t, m.SetAbilityEnabled(ctx, mainAbility(), false, types.DefaultUserID))

	_, ok := m.ExplicitQueryAbilityInfo(ctx, explicitWant("MainAbility"), 0, types.DefaultUserID)
	assert.False(t, ok)

	info, ok := m.ExplicitQueryAbilityInfo(ctx, explicitWant("MainAbility"), types.GetAbilityInfoWithDisable, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, "MainAbility", info.Name)
	assert.False(t, info.Enabled)

	enabled, err := m.IsAbilityEnabled(ctx, mainAbility(), types.DefaultUserID)
	require.NoError(t, err)
	assert.False(t, enabled)

	bundle, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleWithAbilities, types.DefaultUserID)
	require.True(t, ok)
	for _, a := range bundle.AbilityInfos {
		assert.NotEqual(t, "MainAbility", a.Name)
	}
}

func TestSetAbilityEnabledErrors(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	missing := mainAbility()
	missing.Name = "Ghost"
	assert.ErrorIs(t, m.SetAbilityEnabled(ctx, missing, false, types.DefaultUserID), ErrAbilityNotFound)
	assert.ErrorIs(t, m.SetAbilityEnabled(ctx, mainAbility(), false, 77), ErrInvalidUser)

	store.setFailSave(true)
	assert.ErrorIs(t, m.SetAbilityEnabled(ctx, mainAbility(), false, types.DefaultUserID), ErrPersist)
	enabled, err := m.IsAbilityEnabled(ctx, mainAbility(), types.DefaultUserID)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestAbilityFlagRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	bare, ok := m.ExplicitQueryAbilityInfo(ctx, explicitWant("MainAbility"), types.GetAbilityInfoDefault, types.DefaultUserID)
	require.True(t, ok)
	assert.Nil(t, bare.Permissions)
	assert.Nil(t, bare.Metadata)
	assert.Nil(t, bare.ApplicationInfo)

	flags := types.GetAbilityInfoWithPermission | types.GetAbilityInfoWithMetadata | types.GetAbilityInfoWithApplication
	full, ok := m.ExplicitQueryAbilityInfo(ctx, explicitWant("MainAbility"), flags, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, []string{"ohos.permission.CAMERA"}, full.Permissions)
	assert.Equal(t, []types.Metadata{{Name: "form", Value: "main"}}, full.Metadata)
	require.NotNil(t, full.ApplicationInfo)
	assert.Equal(t, []string{"ohos.permission.INTERNET"}, full.ApplicationInfo.Permissions)
	assert.Equal(t, int32(types.BaseAppUID), full.ApplicationInfo.UID)
}

func TestSystemAppOnly(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	_, ok := m.ExplicitQueryAbilityInfo(ctx, explicitWant("MainAbility"), types.GetAbilityInfoSystemAppOnly, types.DefaultUserID)
	assert.False(t, ok)

	sys := newTestInfo("com.example.settings")
	sys.ApplicationInfo.IsSystemApp = true
	install(t, m, sys)

	infos, ok := m.ImplicitQueryAbilityInfos(ctx, types.Want{Action: "VIEW"}, types.GetAbilityInfoSystemAppOnly, types.DefaultUserID)
	require.True(t, ok)
	require.Len(t, infos, 1)
	assert.Equal(t, "com.example.settings", infos[0].BundleName)
}

func TestLauncherIgnoresAbilityEnablement(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	require.NoError(t, m.SetAbilityEnabled(ctx, mainAbility(), false, types.DefaultUserID))

	infos, ok := m.QueryLauncherAbilityInfos(ctx, types.Want{}, types.DefaultUserID)
	require.True(t, ok)
	require.Len(t, infos, 1)
	assert.Equal(t, "MainAbility", infos[0].Name)
	assert.False(t, infos[0].Enabled)
	assert.NotNil(t, infos[0].ApplicationInfo)

	require.NoError(t, m.SetApplicationEnabled(ctx, testBundle, false, types.DefaultUserID))
	_, ok = m.QueryLauncherAbilityInfos(ctx, types.Want{}, types.DefaultUserID)
	assert.False(t, ok, "disabled bundle is skipped")
}

func TestGetLaunchWantForBundle(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	want, ok := m.GetLaunchWantForBundle(ctx, testBundle, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, "MainAbility", want.Element.AbilityName)
	assert.Equal(t, "entry", want.Element.ModuleName)
	assert.Equal(t, types.ActionHome, want.Action)
	assert.True(t, want.HasEntity(types.EntityHome))

	_, ok = m.GetLaunchWantForBundle(ctx, "com.example.missing", types.DefaultUserID)
	assert.False(t, ok)
}

func TestExtensionQueries(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	infos, ok := m.QueryExtensionAbilityInfos(ctx, types.Want{Action: "SHARE"}, 0, types.DefaultUserID)
	require.True(t, ok)
	require.Len(t, infos, 1)
	assert.Equal(t, "NotesShare", infos[0].Name)
	assert.True(t, infos[0].Enabled)

	infos, ok = m.QueryExtensionAbilityInfos(ctx, explicitWant("NotesShare"), types.GetExtensionInfoWithApplication, types.DefaultUserID)
	require.True(t, ok)
	require.NotNil(t, infos[0].ApplicationInfo)

	_, ok = m.ExplicitQueryExtensionInfo(ctx, explicitWant("Ghost"), 0, types.DefaultUserID)
	assert.False(t, ok)

	byType, ok := m.QueryExtensionAbilityInfosByType(ctx, types.ExtensionDataShare, types.DefaultUserID)
	require.True(t, ok)
	assert.Len(t, byType, 1)
	_, ok = m.QueryExtensionAbilityInfosByType(ctx, types.ExtensionWallpaper, types.DefaultUserID)
	assert.False(t, ok)
}

func TestURIQueries(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))

	info, ok := m.QueryAbilityInfoByURI(ctx, "dataability:///com.example.notes.data/notes/1", 0, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, "NotesData", info.Name)

	infos, ok := m.QueryAbilityInfosByURI(ctx, "dataability://device/com.example.notes.data", types.DefaultUserID)
	require.True(t, ok)
	assert.Len(t, infos, 1)

	_, ok = m.QueryAbilityInfoByURI(ctx, "dataability:///com.example.other/x", 0, types.DefaultUserID)
	assert.False(t, ok)
	_, ok = m.QueryAbilityInfoByURI(ctx, "content://com.example.notes.data", 0, types.DefaultUserID)
	assert.False(t, ok)

	ext, ok := m.QueryExtensionAbilityInfoByURI(ctx, "datashare:///com.example.notes.share/items", types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, "NotesShare", ext.Name)
}

func TestParseAuthority(t *testing.T) {
	tests := []struct {
		uri  string
		want string
		ok   bool
	}{
		{"dataability:///auth/path/more", "auth", true},
		{"dataability://dev/auth", "auth", true},
		{"dataability://dev", "", false},
		{"dataability://dev/", "", false},
		{"datashare:///auth", "", false},
	}

	for _, tt := range tests {
		got, ok := parseAuthority(tt.uri, types.DataAbilityURIPrefix)
		assert.Equal(t, tt.ok, ok, tt.uri)
		assert.Equal(t, tt.want, got, tt.uri)
	}
}

func TestUIDLookups(t *testing.T) {
	m, _ := newTestManager(t)
	install(t, m, newTestInfo(testBundle))

	name, ok := m.GetBundleNameForUid(types.BaseAppUID)
	require.True(t, ok)
	assert.Equal(t, testBundle, name)

	names, ok := m.GetBundlesForUid(types.BaseAppUID)
	require.True(t, ok)
	assert.Equal(t, []string{testBundle}, names)

	rec, ok := m.GetInnerBundleInfoByUid(types.BaseAppUID)
	require.True(t, ok)
	assert.Equal(t, testBundle, rec.BundleName)

	_, ok = m.GetNameForUid(types.BaseAppUID + 1)
	assert.False(t, ok)

	ctx := context.Background()
	gids, ok := m.GetBundleGids(ctx, testBundle, types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, []int32{types.BaseAppUID}, gids)

	out, ok := m.GetBundleGidsByUid(testBundle, types.BaseAppUID)
	assert.True(t, ok)
	assert.Empty(t, out)

	assert.True(t, m.CheckIsSystemAppByUid(1000))
	assert.False(t, m.CheckIsSystemAppByUid(types.BaseAppUID))
}

func TestBundleGidsResolveUser(t *testing.T) {
	m, _ := newTestManager(t)
	install(t, m, newTestInfo(testBundle))
	ctx := context.Background()

	_, ok := m.GetBundleGids(ctx, testBundle, 4242)
	assert.False(t, ok, "unregistered user fails closed")

	gids, ok := m.GetBundleGids(ctx, testBundle, types.UnspecifiedUserID)
	require.True(t, ok)
	assert.Equal(t, []int32{types.BaseAppUID}, gids)

	gids, ok = m.GetBundleGids(WithCallingUID(ctx, types.BaseAppUID), testBundle, types.UnspecifiedUserID)
	require.True(t, ok)
	assert.Equal(t, []int32{types.BaseAppUID}, gids)

	_, ok = m.GetBundleGids(WithCallingUID(ctx, 101*types.BaseUserRange), testBundle, types.UnspecifiedUserID)
	assert.False(t, ok)
}

func TestUserResolution(t *testing.T) {
	m, _ := newTestManager(t)
	install(t, m, newTestInfo(testBundle))
	m.AddUserID(100)

	ctx := context.Background()
	assert.Equal(t, types.DefaultUserID, m.GetUserID(ctx, types.UnspecifiedUserID))
	assert.Equal(t, int32(100), m.GetUserID(WithCallingUID(ctx, 100*types.BaseUserRange+20), types.UnspecifiedUserID))
	assert.Equal(t, types.InvalidUserID, m.GetUserID(WithCallingUID(ctx, 101*types.BaseUserRange), types.UnspecifiedUserID))
	assert.Equal(t, types.InvalidUserID, m.GetUserID(ctx, 55))
	assert.Equal(t, types.AnyUserID, m.GetUserID(ctx, types.AnyUserID))

	info, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, 100)
	require.True(t, ok, "system-user install serves user 100")
	assert.Equal(t, types.DefaultUserID, info.UserID)

	_, ok = m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, 55)
	assert.False(t, ok, "unknown users fail closed")

	infos, ok := m.GetBundleInfos(ctx, types.GetBundleDefault, types.AllUserID)
	require.True(t, ok)
	assert.Len(t, infos, 1)

	names, ok := m.GetBundleList(ctx, types.AnyUserID)
	require.True(t, ok)
	assert.Equal(t, []string{testBundle}, names)
}

func TestMultiUserInstall(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	install(t, m, newTestInfo(testBundle))
	m.AddUserID(100)

	userInfo := &types.InnerBundleUserInfo{
		BundleName:     testBundle,
		BundleUserInfo: types.BundleUserInfo{UserID: 100, Enabled: true},
	}
	require.NoError(t, m.GenerateUidAndGid(userInfo))
	assert.Equal(t, int32(100*types.BaseUserRange+types.BaseAppUID), userInfo.UID, "bundle id is stable across users")

	assert.ErrorIs(t, m.AddInnerBundleUserInfo(ctx, testBundle, userInfo), ErrIllegalState)
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UserChange))
	require.NoError(t, m.AddInnerBundleUserInfo(ctx, testBundle, userInfo))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallSuccess))

	infos, ok := m.GetInnerBundleUserInfos(testBundle)
	require.True(t, ok)
	require.Len(t, infos, 2)
	assert.Equal(t, int32(100), infos[1].BundleUserInfo.UserID)

	info, ok := m.GetBundleInfo(ctx, testBundle, types.GetBundleDefault, 100)
	require.True(t, ok)
	assert.Equal(t, int32(100), info.UserID)

	name, ok := m.GetBundleNameForUid(userInfo.UID)
	require.True(t, ok)
	assert.Equal(t, testBundle, name)

	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.UninstallStart))
	require.NoError(t, m.RemoveInnerBundleUserInfo(ctx, testBundle, 100))
	require.True(t, m.UpdateBundleInstallState(ctx, testBundle, types.InstallSuccess))

	bui, ok := m.GetBundleUserInfo(ctx, testBundle, 100)
	require.True(t, ok)
	assert.Equal(t, types.DefaultUserID, bui.BundleUserInfo.UserID, "user 100 falls back to the system view")
}

func TestGenerateBundleID(t *testing.T) {
	m, _ := newTestManager(t)

	a, err := m.GenerateBundleID("com.example.a")
	require.NoError(t, err)
	b, err := m.GenerateBundleID("com.example.b")
	require.NoError(t, err)
	again, err := m.GenerateBundleID("com.example.a")
	require.NoError(t, err)

	assert.Equal(t, types.BaseAppUID, a)
	assert.Equal(t, types.BaseAppUID+1, b)
	assert.Equal(t, a, again)

	m.recycleUidAndGid(&types.InnerBundleInfo{BundleName: "com.example.a"})
	c, err := m.GenerateBundleID("com.example.c")
	require.NoError(t, err)
	assert.Equal(t, types.BaseAppUID, c, "freed id is reused")
}

func TestGenerateBundleIDExhausted(t *testing.T) {
	m, _ := newTestManager(t)
	for id := types.BaseAppUID; id <= types.MaxAppUID; id++ {
		m.bundleIDs[id] = "taken"
	}
	m.bundleIDs[types.BaseAppUID] = "com.example.owner"

	_, err := m.GenerateBundleID("com.example.late")
	assert.ErrorIs(t, err, ErrIDExhausted)

	id, err := m.GenerateBundleID("com.example.owner")
	require.NoError(t, err)
	assert.Equal(t, types.BaseAppUID, id)
}

func TestMetadataAndKeepAlive(t *testing.T) {
	m, _ := newTestManager(t)
	keep := newTestInfo("com.example.daemon")
	keep.IsKeepAlive = true
	keep.ApplicationInfo.IsSystemApp = true
	install(t, m, keep)
	install(t, m, newTestInfo(testBundle))

	infos, ok := m.GetBundleInfosByMetaData("widget")
	require.True(t, ok)
	assert.Len(t, infos, 2)
	_, ok = m.GetBundleInfosByMetaData("missing")
	assert.False(t, ok)

	alive, ok := m.QueryKeepAliveBundleInfos()
	require.True(t, ok)
	require.Len(t, alive, 1)
	assert.Equal(t, "com.example.daemon", alive[0].Name)

	label, ok := m.GetAbilityLabel(testBundle, "MainAbility")
	require.True(t, ok)
	assert.Equal(t, "Notes", label)

	mod, ok := m.GetHapModuleInfo(context.Background(), mainAbility(), types.DefaultUserID)
	require.True(t, ok)
	assert.Equal(t, "entry", mod.Name)
}
