package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord() *InnerBundleInfo {
	return &InnerBundleInfo{
		BundleName:  "com.example.notes",
		Status:      BundleEnabled,
		VersionCode: 3,
		VersionName: "1.0.3",
		HasEntry:    true,
		MainAbility: "MainAbility",
		ApplicationInfo: ApplicationInfo{
			Name:        "com.example.notes",
			Permissions: []string{"ohos.permission.INTERNET"},
			Metadata:    map[string][]Metadata{"entry": {{Name: "theme", Value: "dark"}}},
		},
		Modules: map[string]*HapModuleInfo{
			"entry": {
				Name:       "entry",
				ModuleType: ModuleEntry,
				HapPath:    "/data/app/notes/entry.hap",
				Abilities: []AbilityInfo{
					{Name: "MainAbility", ModuleName: "entry", Type: AbilityTypePage, Permissions: []string{"p1"}},
					{Name: "NotesData", ModuleName: "entry", Type: AbilityTypeData, URI: "dataability://com.example.notes.data"},
				},
				Extensions: []ExtensionAbilityInfo{
					{Name: "NotesShare", ModuleName: "entry", Type: ExtensionDataShare, URI: "datashare://com.example.notes.share"},
				},
			},
		},
		Skills: map[string][]Skill{
			"MainAbility": {{Actions: []string{ActionHome}, Entities: []string{EntityHome}}},
		},
		UserInfos: map[int32]*InnerBundleUserInfo{
			0: {UID: 10000, GIDs: []int32{10000}, BundleUserInfo: BundleUserInfo{UserID: 0, Enabled: true}},
		},
	}
}

func TestResponseUserID(t *testing.T) {
	info := newTestRecord()

	assert.Equal(t, int32(0), info.ResponseUserID(0))
	assert.Equal(t, int32(0), info.ResponseUserID(AnyUserID))
	assert.Equal(t, int32(0), info.ResponseUserID(100), "system install serves regular users")
	assert.Equal(t, InvalidUserID, info.ResponseUserID(50))

	info.AddUserInfo(&InnerBundleUserInfo{UID: 20010000, BundleUserInfo: BundleUserInfo{UserID: 100, Enabled: true}})
	assert.Equal(t, int32(100), info.ResponseUserID(100))

	info.UserInfos = nil
	assert.Equal(t, InvalidUserID, info.ResponseUserID(0))
}

func TestCloneIsIndependent(t *testing.T) {
	info := newTestRecord()
	cp := info.Clone()

	cp.Modules["entry"].Abilities[0].Name = "Changed"
	cp.UserInfos[0].GIDs[0] = 1
	cp.Skills["MainAbility"][0].Actions[0] = "other"
	cp.ApplicationInfo.Metadata["entry"][0].Value = "light"

	assert.Equal(t, "MainAbility", info.Modules["entry"].Abilities[0].Name)
	assert.Equal(t, int32(10000), info.UserInfos[0].GIDs[0])
	assert.Equal(t, ActionHome, info.Skills["MainAbility"][0].Actions[0])
	assert.Equal(t, "dark", info.ApplicationInfo.Metadata["entry"][0].Value)
}

func TestAbilityEnablement(t *testing.T) {
	info := newTestRecord()

	assert.True(t, info.AbilityEnabled("entry", "MainAbility", 0))
	require.True(t, info.SetAbilityEnabled("entry", "MainAbility", false, 0))
	assert.False(t, info.AbilityEnabled("entry", "MainAbility", 0))

	// disabling twice keeps a single entry
	require.True(t, info.SetAbilityEnabled("entry", "MainAbility", false, 0))
	assert.Len(t, info.UserInfos[0].BundleUserInfo.DisabledAbilities, 1)

	require.True(t, info.SetAbilityEnabled("entry", "MainAbility", true, 0))
	assert.True(t, info.AbilityEnabled("entry", "MainAbility", 0))

	assert.False(t, info.SetAbilityEnabled("entry", "Missing", false, 0))
	assert.False(t, info.SetAbilityEnabled("entry", "MainAbility", false, 7))
}

func TestModuleLifecycle(t *testing.T) {
	info := newTestRecord()

	feature := &InnerBundleInfo{
		VersionCode: 4,
		VersionName: "1.0.4",
		Modules: map[string]*HapModuleInfo{
			"camera": {
				Name:       "camera",
				ModuleType: ModuleFeature,
				HapPath:    "/data/app/notes/camera.hap",
				Abilities:  []AbilityInfo{{Name: "CameraAbility", ModuleName: "camera"}},
			},
		},
		Skills: map[string][]Skill{"CameraAbility": {{Actions: []string{"action.capture"}}}},
	}

	info.AddModuleInfo(feature)
	assert.Equal(t, []string{"camera", "entry"}, info.ModuleNames())
	assert.Equal(t, uint32(4), info.VersionCode)
	assert.Contains(t, info.ApplicationInfo.ModuleSourceDirs, "/data/app/notes/camera.hap")
	_, ok := info.FindAbility("camera", "CameraAbility")
	assert.True(t, ok)

	require.True(t, info.RemoveModuleInfo("camera"))
	assert.Equal(t, []string{"entry"}, info.ModuleNames())
	assert.NotContains(t, info.Skills, "CameraAbility")
	assert.NotContains(t, info.ApplicationInfo.ModuleSourceDirs, "/data/app/notes/camera.hap")
	assert.False(t, info.RemoveModuleInfo("camera"))

	require.True(t, info.RemoveModuleInfo("entry"))
	assert.False(t, info.HasEntry)
}

func TestFindByURI(t *testing.T) {
	info := newTestRecord()

	a, ok := info.FindAbilityByURI("com.example.notes.data")
	require.True(t, ok)
	assert.Equal(t, "NotesData", a.Name)

	_, ok = info.FindAbilityByURI("com.example.notes.share")
	assert.False(t, ok)

	e, ok := info.FindExtensionByURI("com.example.notes.share")
	require.True(t, ok)
	assert.Equal(t, "NotesShare", e.Name)
}

func TestBundleInfoForFlags(t *testing.T) {
	info := newTestRecord()

	basic := info.BundleInfoFor(GetBundleDefault, 0)
	assert.Equal(t, "com.example.notes", basic.Name)
	assert.Equal(t, int32(10000), basic.UID)
	assert.Equal(t, "entry", basic.EntryModuleName)
	assert.Empty(t, basic.AbilityInfos)
	assert.Empty(t, basic.ExtensionInfos)
	assert.Nil(t, basic.ApplicationInfo.Permissions)
	assert.Nil(t, basic.ApplicationInfo.Metadata)

	full := info.BundleInfoFor(GetBundleWithAbilities|GetBundleWithExtensionInfo|GetBundleWithRequestedPermission|GetBundleWithMetadata, 0)
	require.Len(t, full.AbilityInfos, 2)
	assert.Equal(t, []string{"p1"}, full.AbilityInfos[0].Permissions)
	assert.Len(t, full.ExtensionInfos, 1)
	assert.NotNil(t, full.ApplicationInfo.Metadata)
	assert.Equal(t, []string{"ohos.permission.INTERNET"}, full.ApplicationInfo.Permissions)

	info.SetAbilityEnabled("entry", "MainAbility", false, 0)
	filtered := info.BundleInfoFor(GetBundleWithAbilities, 0)
	assert.Len(t, filtered.AbilityInfos, 1)
	withDisabled := info.BundleInfoFor(GetBundleWithAbilities|GetBundleWithDisable, 0)
	assert.Len(t, withDisabled.AbilityInfos, 2)
}

func TestAbilityViewApplication(t *testing.T) {
	info := newTestRecord()
	a, ok := info.FindAbility("", "MainAbility")
	require.True(t, ok)

	view := info.AbilityView(a, GetAbilityInfoDefault, 0)
	assert.Nil(t, view.ApplicationInfo)
	assert.Nil(t, view.Permissions)
	assert.Equal(t, "com.example.notes", view.BundleName)

	view = info.AbilityView(a, GetAbilityInfoWithApplication, 0)
	require.NotNil(t, view.ApplicationInfo)
	assert.Equal(t, int32(10000), view.ApplicationInfo.UID)
	assert.True(t, view.ApplicationInfo.Enabled)
}
