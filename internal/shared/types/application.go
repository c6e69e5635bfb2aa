package types

// ApplicationInfo is the application-level view of a bundle
type ApplicationInfo struct {
	Name             string                `json:"name"`
	BundleName       string                `json:"bundle_name"`
	Description      string                `json:"description,omitempty"`
	Label            string                `json:"label,omitempty"`
	LabelID          uint32                `json:"label_id,omitempty"`
	IconID           uint32                `json:"icon_id,omitempty"`
	DescriptionID    uint32                `json:"description_id,omitempty"`
	CodePath         string                `json:"code_path,omitempty"`
	EntryDir         string                `json:"entry_dir,omitempty"`
	DataDir          string                `json:"data_dir,omitempty"`
	Process          string                `json:"process,omitempty"`
	EntityType       string                `json:"entity_type,omitempty"`
	Flags            int32                 `json:"flags,omitempty"`
	UID              int32                 `json:"uid"`
	AccessTokenID    uint32                `json:"access_token_id,omitempty"`
	VersionCode      uint32                `json:"version_code,omitempty"`
	VersionName      string                `json:"version_name,omitempty"`
	Removable        bool                  `json:"removable"`
	IsSystemApp      bool                  `json:"is_system_app"`
	IsLauncherApp    bool                  `json:"is_launcher_app"`
	Debug            bool                  `json:"debug,omitempty"`
	Enabled          bool                  `json:"enabled"`
	Permissions      []string              `json:"permissions,omitempty"`
	ModuleSourceDirs []string              `json:"module_source_dirs,omitempty"`
	Metadata         map[string][]Metadata `json:"metadata,omitempty"`
}

func (a ApplicationInfo) clone() ApplicationInfo {
	out := a
	out.Permissions = cloneStrings(a.Permissions)
	out.ModuleSourceDirs = cloneStrings(a.ModuleSourceDirs)
	if a.Metadata != nil {
		out.Metadata = make(map[string][]Metadata, len(a.Metadata))
		for module, md := range a.Metadata {
			out.Metadata[module] = cloneMetadata(md)
		}
	}
	return out
}
