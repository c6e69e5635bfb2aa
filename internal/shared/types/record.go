package types

import (
	"sort"
	"strings"
)

// InnerBundleInfo is the canonical record of one installed bundle on one device.
// The registry owns every InnerBundleInfo; callers only ever see copies.
type InnerBundleInfo struct {
	BundleName        string                         `json:"bundle_name" validate:"required,bundlename"`
	Status            BundleStatus                   `json:"status"`
	VersionCode       uint32                         `json:"version_code"`
	VersionName       string                         `json:"version_name,omitempty"`
	Vendor            string                         `json:"vendor,omitempty"`
	ProvisionID       string                         `json:"provision_id,omitempty"`
	AppFeature        string                         `json:"app_feature,omitempty"`
	AppPrivilegeLevel string                         `json:"app_privilege_level,omitempty"`
	AllowedACLs       []string                       `json:"allowed_acls,omitempty"`
	IsLauncherApp     bool                           `json:"is_launcher_app"`
	IsKeepAlive       bool                           `json:"is_keep_alive"`
	HasEntry          bool                           `json:"has_entry"`
	MainAbility       string                         `json:"main_ability,omitempty"`
	ReqPermissions    []string                       `json:"req_permissions,omitempty"`
	DefPermissions    []string                       `json:"def_permissions,omitempty"`
	ApplicationInfo   ApplicationInfo                `json:"application_info"`
	Modules           map[string]*HapModuleInfo      `json:"modules" validate:"required,min=1,dive"`
	Skills            map[string][]Skill             `json:"skills,omitempty"`
	ExtensionSkills   map[string][]Skill             `json:"extension_skills,omitempty"`
	UserInfos         map[int32]*InnerBundleUserInfo `json:"user_infos,omitempty"`
}

// Clone returns a deep copy of the record
func (i *InnerBundleInfo) Clone() *InnerBundleInfo {
	out := *i
	out.AllowedACLs = cloneStrings(i.AllowedACLs)
	out.ReqPermissions = cloneStrings(i.ReqPermissions)
	out.DefPermissions = cloneStrings(i.DefPermissions)
	out.ApplicationInfo = i.ApplicationInfo.clone()
	out.Modules = make(map[string]*HapModuleInfo, len(i.Modules))
	for name, m := range i.Modules {
		out.Modules[name] = m.clone()
	}
	out.Skills = cloneSkillMap(i.Skills)
	out.ExtensionSkills = cloneSkillMap(i.ExtensionSkills)
	out.UserInfos = make(map[int32]*InnerBundleUserInfo, len(i.UserInfos))
	for id, u := range i.UserInfos {
		out.UserInfos[id] = u.clone()
	}
	return &out
}

func cloneSkillMap(in map[string][]Skill) map[string][]Skill {
	if in == nil {
		return nil
	}
	out := make(map[string][]Skill, len(in))
	for name, skills := range in {
		cp := make([]Skill, len(skills))
		for j, s := range skills {
			cp[j] = Skill{
				Actions:  cloneStrings(s.Actions),
				Entities: cloneStrings(s.Entities),
			}
			if s.URIs != nil {
				cp[j].URIs = make([]SkillURI, len(s.URIs))
				copy(cp[j].URIs, s.URIs)
			}
		}
		out[name] = cp
	}
	return out
}

// IsDisabled reports whether an installer currently holds the record
func (i *InnerBundleInfo) IsDisabled() bool {
	return i.Status == BundleDisabled
}

// IsSystemApp reports whether the bundle is a system application
func (i *InnerBundleInfo) IsSystemApp() bool {
	return i.ApplicationInfo.IsSystemApp
}

// ============================================================================
// Users
// ============================================================================

// UserInfo returns the per-user info for userID
func (i *InnerBundleInfo) UserInfo(userID int32) (*InnerBundleUserInfo, bool) {
	u, ok := i.UserInfos[userID]
	return u, ok
}

// HasUserInfo reports whether the bundle is installed for userID
func (i *InnerBundleInfo) HasUserInfo(userID int32) bool {
	_, ok := i.UserInfos[userID]
	return ok
}

// UserIDs returns installed user ids in ascending order
func (i *InnerBundleInfo) UserIDs() []int32 {
	ids := make([]int32, 0, len(i.UserInfos))
	for id := range i.UserInfos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// AddUserInfo installs the bundle for the user described by u
func (i *InnerBundleInfo) AddUserInfo(u *InnerBundleUserInfo) {
	if i.UserInfos == nil {
		i.UserInfos = make(map[int32]*InnerBundleUserInfo)
	}
	cp := u.clone()
	cp.BundleName = i.BundleName
	i.UserInfos[u.BundleUserInfo.UserID] = cp
}

// RemoveUserInfo drops the per-user info for userID
func (i *InnerBundleInfo) RemoveUserInfo(userID int32) bool {
	if _, ok := i.UserInfos[userID]; !ok {
		return false
	}
	delete(i.UserInfos, userID)
	return true
}

// ResponseUserID picks the user whose view answers a request for requestUserID.
// System-user installs (below StartUserID) serve every regular user.
func (i *InnerBundleInfo) ResponseUserID(requestUserID int32) int32 {
	if len(i.UserInfos) == 0 {
		return InvalidUserID
	}
	if requestUserID == AnyUserID || requestUserID == AllUserID {
		return i.UserIDs()[0]
	}
	if i.HasUserInfo(requestUserID) {
		return requestUserID
	}
	if requestUserID < StartUserID {
		return InvalidUserID
	}
	for _, id := range i.UserIDs() {
		if id < StartUserID {
			return id
		}
	}
	return InvalidUserID
}

// UID returns the uid for userID or InvalidUID
func (i *InnerBundleInfo) UID(userID int32) int32 {
	if u, ok := i.UserInfos[userID]; ok {
		return u.UID
	}
	return InvalidUID
}

// GIDs returns a copy of the gids for userID
func (i *InnerBundleInfo) GIDs(userID int32) []int32 {
	u, ok := i.UserInfos[userID]
	if !ok {
		return nil
	}
	out := make([]int32, len(u.GIDs))
	copy(out, u.GIDs)
	return out
}

// ApplicationEnabled reports the per-user application switch
func (i *InnerBundleInfo) ApplicationEnabled(userID int32) bool {
	u, ok := i.UserInfos[userID]
	if !ok {
		return false
	}
	return u.BundleUserInfo.Enabled
}

// SetApplicationEnabled flips the per-user application switch
func (i *InnerBundleInfo) SetApplicationEnabled(enabled bool, userID int32) bool {
	u, ok := i.UserInfos[userID]
	if !ok {
		return false
	}
	u.BundleUserInfo.Enabled = enabled
	return true
}

// AbilityEnabled reports whether the ability is enabled for userID
func (i *InnerBundleInfo) AbilityEnabled(moduleName, abilityName string, userID int32) bool {
	u, ok := i.UserInfos[userID]
	if !ok {
		return false
	}
	return !contains(u.BundleUserInfo.DisabledAbilities, abilityKey(moduleName, abilityName))
}

// SetAbilityEnabled updates the per-user disabled-ability list
func (i *InnerBundleInfo) SetAbilityEnabled(moduleName, abilityName string, enabled bool, userID int32) bool {
	if _, ok := i.FindAbility(moduleName, abilityName); !ok {
		return false
	}
	u, ok := i.UserInfos[userID]
	if !ok {
		return false
	}
	key := abilityKey(moduleName, abilityName)
	disabled := u.BundleUserInfo.DisabledAbilities[:0:0]
	for _, k := range u.BundleUserInfo.DisabledAbilities {
		if k != key {
			disabled = append(disabled, k)
		}
	}
	if !enabled {
		disabled = append(disabled, key)
	}
	u.BundleUserInfo.DisabledAbilities = disabled
	return true
}

func abilityKey(moduleName, abilityName string) string {
	return moduleName + "/" + abilityName
}

// ============================================================================
// Modules and components
// ============================================================================

// ModuleNames returns installed module names in ascending order
func (i *InnerBundleInfo) ModuleNames() []string {
	names := make([]string, 0, len(i.Modules))
	for name := range i.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasModule reports whether the module is installed
func (i *InnerBundleInfo) HasModule(moduleName string) bool {
	_, ok := i.Modules[moduleName]
	return ok
}

// EntryModule returns the entry module name, if any
func (i *InnerBundleInfo) EntryModule() string {
	for _, name := range i.ModuleNames() {
		if i.Modules[name].IsEntry() {
			return name
		}
	}
	return ""
}

// Abilities returns pointers into the record for every ability, modules in
// name order and abilities in declaration order. Internal use only.
func (i *InnerBundleInfo) Abilities() []*AbilityInfo {
	var out []*AbilityInfo
	for _, name := range i.ModuleNames() {
		m := i.Modules[name]
		for idx := range m.Abilities {
			out = append(out, &m.Abilities[idx])
		}
	}
	return out
}

// Extensions is the extension counterpart of Abilities
func (i *InnerBundleInfo) Extensions() []*ExtensionAbilityInfo {
	var out []*ExtensionAbilityInfo
	for _, name := range i.ModuleNames() {
		m := i.Modules[name]
		for idx := range m.Extensions {
			out = append(out, &m.Extensions[idx])
		}
	}
	return out
}

// FindAbility locates an ability. An empty moduleName searches every module.
func (i *InnerBundleInfo) FindAbility(moduleName, abilityName string) (*AbilityInfo, bool) {
	for _, a := range i.Abilities() {
		if a.Name == abilityName && (moduleName == "" || a.ModuleName == moduleName) {
			return a, true
		}
	}
	return nil, false
}

// FindExtension locates an extension. An empty moduleName searches every module.
func (i *InnerBundleInfo) FindExtension(moduleName, extensionName string) (*ExtensionAbilityInfo, bool) {
	for _, e := range i.Extensions() {
		if e.Name == extensionName && (moduleName == "" || e.ModuleName == moduleName) {
			return e, true
		}
	}
	return nil, false
}

// FindAbilityByURI matches data abilities whose declared uri equals authority
func (i *InnerBundleInfo) FindAbilityByURI(authority string) (*AbilityInfo, bool) {
	for _, a := range i.Abilities() {
		if a.Type != AbilityTypeData || !strings.HasPrefix(a.URI, DataAbilityURIPrefix) {
			continue
		}
		if strings.TrimPrefix(a.URI, DataAbilityURIPrefix) == authority {
			return a, true
		}
	}
	return nil, false
}

// FindExtensionByURI matches data-share extensions whose declared uri equals authority
func (i *InnerBundleInfo) FindExtensionByURI(authority string) (*ExtensionAbilityInfo, bool) {
	for _, e := range i.Extensions() {
		if !strings.HasPrefix(e.URI, DataShareURIPrefix) {
			continue
		}
		if strings.TrimPrefix(e.URI, DataShareURIPrefix) == authority {
			return e, true
		}
	}
	return nil, false
}

// AddModuleInfo merges the modules and skills of newInfo into the record
func (i *InnerBundleInfo) AddModuleInfo(newInfo *InnerBundleInfo) {
	if i.Modules == nil {
		i.Modules = make(map[string]*HapModuleInfo)
	}
	for name, m := range newInfo.Modules {
		i.Modules[name] = m.clone()
		i.ApplicationInfo.ModuleSourceDirs = appendUnique(i.ApplicationInfo.ModuleSourceDirs, m.HapPath)
	}
	i.mergeSkills(newInfo)
	i.mergeHeader(newInfo)
}

// UpdateModuleInfo replaces modules of the same name with those in newInfo
func (i *InnerBundleInfo) UpdateModuleInfo(newInfo *InnerBundleInfo) {
	for name := range newInfo.Modules {
		if _, ok := i.Modules[name]; ok {
			i.dropModuleSkills(name)
		}
	}
	i.AddModuleInfo(newInfo)
}

// RemoveModuleInfo deletes a module and the skills of its components
func (i *InnerBundleInfo) RemoveModuleInfo(moduleName string) bool {
	m, ok := i.Modules[moduleName]
	if !ok {
		return false
	}
	i.dropModuleSkills(moduleName)
	delete(i.Modules, moduleName)

	dirs := i.ApplicationInfo.ModuleSourceDirs[:0:0]
	for _, d := range i.ApplicationInfo.ModuleSourceDirs {
		if d != m.HapPath {
			dirs = append(dirs, d)
		}
	}
	i.ApplicationInfo.ModuleSourceDirs = dirs
	delete(i.ApplicationInfo.Metadata, moduleName)

	if m.IsEntry() {
		i.HasEntry = false
		i.MainAbility = ""
	}
	return true
}

func (i *InnerBundleInfo) dropModuleSkills(moduleName string) {
	m := i.Modules[moduleName]
	for _, a := range m.Abilities {
		delete(i.Skills, a.Name)
	}
	for _, e := range m.Extensions {
		delete(i.ExtensionSkills, e.Name)
	}
}

func (i *InnerBundleInfo) mergeSkills(newInfo *InnerBundleInfo) {
	if len(newInfo.Skills) > 0 && i.Skills == nil {
		i.Skills = make(map[string][]Skill)
	}
	for name, skills := range cloneSkillMap(newInfo.Skills) {
		i.Skills[name] = skills
	}
	if len(newInfo.ExtensionSkills) > 0 && i.ExtensionSkills == nil {
		i.ExtensionSkills = make(map[string][]Skill)
	}
	for name, skills := range cloneSkillMap(newInfo.ExtensionSkills) {
		i.ExtensionSkills[name] = skills
	}
}

func (i *InnerBundleInfo) mergeHeader(newInfo *InnerBundleInfo) {
	if newInfo.VersionCode >= i.VersionCode {
		i.VersionCode = newInfo.VersionCode
		i.VersionName = newInfo.VersionName
		i.ApplicationInfo.VersionCode = newInfo.VersionCode
		i.ApplicationInfo.VersionName = newInfo.VersionName
	}
	if newInfo.HasEntry {
		i.HasEntry = true
		i.MainAbility = newInfo.MainAbility
		i.ApplicationInfo.EntryDir = newInfo.ApplicationInfo.EntryDir
	}
	for module, md := range newInfo.ApplicationInfo.Metadata {
		if i.ApplicationInfo.Metadata == nil {
			i.ApplicationInfo.Metadata = make(map[string][]Metadata)
		}
		i.ApplicationInfo.Metadata[module] = cloneMetadata(md)
	}
	for _, p := range newInfo.ReqPermissions {
		i.ReqPermissions = appendUnique(i.ReqPermissions, p)
	}
	for _, p := range newInfo.DefPermissions {
		i.DefPermissions = appendUnique(i.DefPermissions, p)
	}
}

func appendUnique(list []string, value string) []string {
	if value == "" || contains(list, value) {
		return list
	}
	return append(list, value)
}

// ============================================================================
// Views
// ============================================================================

// ApplicationInfoFor builds the application view for userID
func (i *InnerBundleInfo) ApplicationInfoFor(flags ApplicationFlag, userID int32) ApplicationInfo {
	app := i.ApplicationInfo.clone()
	app.BundleName = i.BundleName
	app.IsLauncherApp = i.IsLauncherApp
	app.VersionCode = i.VersionCode
	app.VersionName = i.VersionName
	if u, ok := i.UserInfos[userID]; ok {
		app.UID = u.UID
		app.AccessTokenID = u.AccessTokenID
		app.Enabled = u.BundleUserInfo.Enabled
	} else {
		app.UID = InvalidUID
		app.Enabled = false
	}
	if !flags.Has(GetApplicationInfoWithPermission) {
		app.Permissions = nil
	}
	if !flags.Has(GetApplicationInfoWithMetadata) {
		app.Metadata = nil
	}
	return app
}

// AbilityView copies an ability and applies flag post-processing
func (i *InnerBundleInfo) AbilityView(a *AbilityInfo, flags AbilityFlag, userID int32) AbilityInfo {
	out := a.clone()
	out.BundleName = i.BundleName
	out.Enabled = i.AbilityEnabled(a.ModuleName, a.Name, userID)
	out.ApplicationInfo = nil
	if !flags.Has(GetAbilityInfoWithPermission) {
		out.Permissions = nil
	}
	if !flags.Has(GetAbilityInfoWithMetadata) {
		out.Metadata = nil
	}
	if flags.Has(GetAbilityInfoWithApplication) {
		appFlags := GetBasicApplicationInfo
		if flags.Has(GetAbilityInfoWithPermission) {
			appFlags |= GetApplicationInfoWithPermission
		}
		if flags.Has(GetAbilityInfoWithMetadata) {
			appFlags |= GetApplicationInfoWithMetadata
		}
		app := i.ApplicationInfoFor(appFlags, userID)
		out.ApplicationInfo = &app
	}
	return out
}

// ExtensionView copies an extension and applies flag post-processing
func (i *InnerBundleInfo) ExtensionView(e *ExtensionAbilityInfo, flags ExtensionFlag, userID int32) ExtensionAbilityInfo {
	out := e.clone()
	out.BundleName = i.BundleName
	out.Enabled = i.ApplicationEnabled(userID)
	out.ApplicationInfo = nil
	if !flags.Has(GetExtensionInfoWithPermission) {
		out.Permissions = nil
	}
	if !flags.Has(GetExtensionInfoWithMetadata) {
		out.Metadata = nil
	}
	if flags.Has(GetExtensionInfoWithApplication) {
		appFlags := GetBasicApplicationInfo
		if flags.Has(GetExtensionInfoWithPermission) {
			appFlags |= GetApplicationInfoWithPermission
		}
		if flags.Has(GetExtensionInfoWithMetadata) {
			appFlags |= GetApplicationInfoWithMetadata
		}
		app := i.ApplicationInfoFor(appFlags, userID)
		out.ApplicationInfo = &app
	}
	return out
}

// ModuleView copies a module for callers
func (i *InnerBundleInfo) ModuleView(moduleName string) (HapModuleInfo, bool) {
	m, ok := i.Modules[moduleName]
	if !ok {
		return HapModuleInfo{}, false
	}
	return *m.clone(), true
}

// BundleInfoFor builds the bundle view for userID under flags
func (i *InnerBundleInfo) BundleInfoFor(flags BundleFlag, userID int32) BundleInfo {
	appFlags := GetBasicApplicationInfo
	if flags.Has(GetBundleWithRequestedPermission) {
		appFlags |= GetApplicationInfoWithPermission
	}
	if flags.Has(GetBundleWithMetadata) {
		appFlags |= GetApplicationInfoWithMetadata
	}

	info := BundleInfo{
		Name:            i.BundleName,
		VersionCode:     i.VersionCode,
		VersionName:     i.VersionName,
		Vendor:          i.Vendor,
		AppID:           i.appID(),
		EntryModuleName: i.EntryModule(),
		MainEntry:       i.MainAbility,
		IsKeepAlive:     i.IsKeepAlive,
		IsLauncherApp:   i.IsLauncherApp,
		UID:             InvalidUID,
		GID:             InvalidUID,
		UserID:          userID,
		ApplicationInfo: i.ApplicationInfoFor(appFlags, userID),
	}
	if u, ok := i.UserInfos[userID]; ok {
		info.UID = u.UID
		if len(u.GIDs) > 0 {
			info.GID = u.GIDs[0]
		}
		info.InstallTime = u.BundleUserInfo.InstallTime
		info.UpdateTime = u.BundleUserInfo.UpdateTime
	}
	for _, name := range i.ModuleNames() {
		m := i.Modules[name]
		info.ModuleNames = append(info.ModuleNames, name)
		info.ModuleDirs = append(info.ModuleDirs, m.HapPath)
		info.ModuleResPaths = append(info.ModuleResPaths, m.ResourcePath)
	}
	if flags.Has(GetBundleWithRequestedPermission) {
		info.ReqPermissions = cloneStrings(i.ReqPermissions)
		info.DefPermissions = cloneStrings(i.DefPermissions)
	}

	abilityFlags := GetAbilityInfoDefault
	if flags.Has(GetBundleWithRequestedPermission) {
		abilityFlags |= GetAbilityInfoWithPermission
	}
	if flags.Has(GetBundleWithMetadata) {
		abilityFlags |= GetAbilityInfoWithMetadata
	}
	if flags.Has(GetBundleWithAbilities) {
		for _, a := range i.Abilities() {
			if !flags.Has(GetBundleWithDisable) && !i.AbilityEnabled(a.ModuleName, a.Name, userID) {
				continue
			}
			info.AbilityInfos = append(info.AbilityInfos, i.AbilityView(a, abilityFlags, userID))
		}
	}
	if flags.Has(GetBundleWithExtensionInfo) {
		extFlags := ExtensionFlag(abilityFlags) &^ ExtensionFlag(GetAbilityInfoWithApplication)
		for _, e := range i.Extensions() {
			info.ExtensionInfos = append(info.ExtensionInfos, i.ExtensionView(e, extFlags, userID))
		}
	}
	return info
}

func (i *InnerBundleInfo) appID() string {
	if i.ProvisionID == "" {
		return i.BundleName
	}
	return i.BundleName + "_" + i.ProvisionID
}
