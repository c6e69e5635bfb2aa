package types

// BundleUserInfo is the per-user state of an installed bundle
type BundleUserInfo struct {
	UserID            int32    `json:"user_id"`
	Enabled           bool     `json:"enabled"`
	DisabledAbilities []string `json:"disabled_abilities,omitempty"`
	InstallTime       int64    `json:"install_time"`
	UpdateTime        int64    `json:"update_time"`
}

// InnerBundleUserInfo binds a bundle to one user with its uid and gids
type InnerBundleUserInfo struct {
	BundleName     string         `json:"bundle_name"`
	UID            int32          `json:"uid"`
	GIDs           []int32        `json:"gids,omitempty"`
	AccessTokenID  uint32         `json:"access_token_id,omitempty"`
	BundleUserInfo BundleUserInfo `json:"bundle_user_info"`
}

func (u *InnerBundleUserInfo) clone() *InnerBundleUserInfo {
	out := *u
	if u.GIDs != nil {
		out.GIDs = make([]int32, len(u.GIDs))
		copy(out.GIDs, u.GIDs)
	}
	out.BundleUserInfo.DisabledAbilities = cloneStrings(u.BundleUserInfo.DisabledAbilities)
	return &out
}

// Clone returns a deep copy
func (u *InnerBundleUserInfo) Clone() *InnerBundleUserInfo {
	return u.clone()
}

// BundleInfo is the caller-facing snapshot of one bundle for one user
type BundleInfo struct {
	Name            string                 `json:"name"`
	VersionCode     uint32                 `json:"version_code"`
	VersionName     string                 `json:"version_name,omitempty"`
	Vendor          string                 `json:"vendor,omitempty"`
	AppID           string                 `json:"app_id,omitempty"`
	EntryModuleName string                 `json:"entry_module_name,omitempty"`
	MainEntry       string                 `json:"main_entry,omitempty"`
	IsKeepAlive     bool                   `json:"is_keep_alive"`
	IsLauncherApp   bool                   `json:"is_launcher_app"`
	UID             int32                  `json:"uid"`
	GID             int32                  `json:"gid"`
	UserID          int32                  `json:"user_id"`
	InstallTime     int64                  `json:"install_time"`
	UpdateTime      int64                  `json:"update_time"`
	ModuleNames     []string               `json:"module_names,omitempty"`
	ModuleDirs      []string               `json:"module_dirs,omitempty"`
	ModuleResPaths  []string               `json:"module_res_paths,omitempty"`
	ReqPermissions  []string               `json:"req_permissions,omitempty"`
	DefPermissions  []string               `json:"def_permissions,omitempty"`
	ApplicationInfo ApplicationInfo        `json:"application_info"`
	AbilityInfos    []AbilityInfo          `json:"ability_infos,omitempty"`
	ExtensionInfos  []ExtensionAbilityInfo `json:"extension_infos,omitempty"`
}
