package bundle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu         sync.Mutex
	records    map[string]map[string]*types.InnerBundleInfo
	failSave   bool
	failDelete bool
	saves      int
	deletes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]map[string]*types.InnerBundleInfo)}
}

func (s *fakeStore) SaveStorageBundleInfo(ctx context.Context, deviceID string, info *types.InnerBundleInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSave {
		return errStoreDown
	}
	if s.records[info.BundleName] == nil {
		s.records[info.BundleName] = make(map[string]*types.InnerBundleInfo)
	}
	s.records[info.BundleName][deviceID] = info.Clone()
	return nil
}

func (s *fakeStore) DeleteStorageBundleInfo(ctx context.Context, deviceID string, info *types.InnerBundleInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failDelete {
		return errStoreDown
	}
	delete(s.records[info.BundleName], deviceID)
	if len(s.records[info.BundleName]) == 0 {
		delete(s.records, info.BundleName)
	}
	return nil
}

func (s *fakeStore) LoadAllData(ctx context.Context) (map[string]map[string]*types.InnerBundleInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]*types.InnerBundleInfo, len(s.records))
	for name, devices := range s.records {
		out[name] = make(map[string]*types.InnerBundleInfo, len(devices))
		for deviceID, info := range devices {
			out[name][deviceID] = info.Clone()
		}
	}
	return out, nil
}

func (s *fakeStore) stored(name string) (*types.InnerBundleInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.records[name][types.CurrentDeviceID]
	return info, ok
}

func (s *fakeStore) setFailSave(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = fail
}

func (s *fakeStore) setFailDelete(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete = fail
}

const testBundle = "com.example.notes"

func newTestManager(t *testing.T) (*Manager, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewManager(store, zap.NewNop()), store
}

func newTestInfo(name string) *types.InnerBundleInfo {
	return &types.InnerBundleInfo{
		BundleName:  name,
		VersionCode: 1,
		VersionName: "1.0.0",
		HasEntry:    true,
		MainAbility: "MainAbility",
		ApplicationInfo: types.ApplicationInfo{
			Name:        name,
			BundleName:  name,
			Permissions: []string{"ohos.permission.INTERNET"},
			Metadata:    map[string][]types.Metadata{"entry": {{Name: "theme", Value: "dark"}}},
		},
		Modules: map[string]*types.HapModuleInfo{
			"entry": {
				Name:       "entry",
				ModuleType: types.ModuleEntry,
				HapPath:    "/data/app/" + name + "/entry.hap",
				Metadata:   []types.Metadata{{Name: "widget"}},
				Abilities: []types.AbilityInfo{
					{
						Name:        "MainAbility",
						BundleName:  name,
						ModuleName:  "entry",
						Label:       "Notes",
						Type:        types.AbilityTypePage,
						Permissions: []string{"ohos.permission.CAMERA"},
						Metadata:    []types.Metadata{{Name: "form", Value: "main"}},
					},
					{Name: "ViewAbility", BundleName: name, ModuleName: "entry", Type: types.AbilityTypePage},
					{Name: "NotesData", BundleName: name, ModuleName: "entry", Type: types.AbilityTypeData, URI: "dataability://" + name + ".data"},
				},
				Extensions: []types.ExtensionAbilityInfo{
					{Name: "NotesShare", BundleName: name, ModuleName: "entry", Type: types.ExtensionDataShare, URI: "datashare://" + name + ".share"},
				},
			},
		},
		Skills: map[string][]types.Skill{
			"MainAbility": {{Actions: []string{types.ActionHome}, Entities: []string{types.EntityHome}}},
			"ViewAbility": {{Actions: []string{"VIEW"}}},
		},
		ExtensionSkills: map[string][]types.Skill{
			"NotesShare": {{Actions: []string{"SHARE"}}},
		},
	}
}

// install runs a full fresh install of info for user 0
func install(t *testing.T, m *Manager, info *types.InnerBundleInfo) {
	t.Helper()
	ctx := context.Background()

	userInfo := &types.InnerBundleUserInfo{
		BundleName:     info.BundleName,
		BundleUserInfo: types.BundleUserInfo{UserID: types.DefaultUserID, Enabled: true},
	}
	require.NoError(t, m.GenerateUidAndGid(userInfo))
	info.AddUserInfo(userInfo)

	require.True(t, m.UpdateBundleInstallState(ctx, info.BundleName, types.InstallStart))
	require.NoError(t, m.AddInnerBundleInfo(ctx, info.BundleName, info))
	require.True(t, m.UpdateBundleInstallState(ctx, info.BundleName, types.InstallSuccess))
}
