package types

// AbilityType classifies a UI or service component
type AbilityType string

const (
	AbilityTypeUnknown AbilityType = "unknown"
	AbilityTypePage    AbilityType = "page"
	AbilityTypeService AbilityType = "service"
	AbilityTypeData    AbilityType = "data"
	AbilityTypeForm    AbilityType = "form"
)

// ExtensionType classifies an extension ability
type ExtensionType string

const (
	ExtensionForm             ExtensionType = "form"
	ExtensionWorkScheduler    ExtensionType = "workScheduler"
	ExtensionInputMethod      ExtensionType = "inputMethod"
	ExtensionService          ExtensionType = "service"
	ExtensionAccessibility    ExtensionType = "accessibility"
	ExtensionDataShare        ExtensionType = "dataShare"
	ExtensionFileShare        ExtensionType = "fileShare"
	ExtensionStaticSubscriber ExtensionType = "staticSubscriber"
	ExtensionWallpaper        ExtensionType = "wallpaper"
	ExtensionBackup           ExtensionType = "backup"
	ExtensionWindow           ExtensionType = "window"
	ExtensionUnspecified      ExtensionType = "unspecified"
)

// Metadata is a name/value pair declared on a component or module
type Metadata struct {
	Name     string `json:"name" validate:"required"`
	Value    string `json:"value,omitempty"`
	Resource string `json:"resource,omitempty"`
}

// AbilityInfo describes a declared ability. Copies returned by queries carry
// ApplicationInfo only when requested.
type AbilityInfo struct {
	Name            string           `json:"name" validate:"required"`
	BundleName      string           `json:"bundle_name"`
	ModuleName      string           `json:"module_name"`
	Label           string           `json:"label,omitempty"`
	Description     string           `json:"description,omitempty"`
	LabelID         uint32           `json:"label_id,omitempty"`
	IconID          uint32           `json:"icon_id,omitempty"`
	DescriptionID   uint32           `json:"description_id,omitempty"`
	Type            AbilityType      `json:"type"`
	LaunchMode      string           `json:"launch_mode,omitempty"`
	Visible         bool             `json:"visible"`
	Enabled         bool             `json:"enabled"`
	Process         string           `json:"process,omitempty"`
	URI             string           `json:"uri,omitempty"`
	ReadPermission  string           `json:"read_permission,omitempty"`
	WritePermission string           `json:"write_permission,omitempty"`
	DeviceTypes     []string         `json:"device_types,omitempty"`
	Permissions     []string         `json:"permissions,omitempty"`
	Metadata        []Metadata       `json:"metadata,omitempty"`
	ApplicationInfo *ApplicationInfo `json:"application_info,omitempty"`
}

func (a AbilityInfo) clone() AbilityInfo {
	out := a
	out.DeviceTypes = cloneStrings(a.DeviceTypes)
	out.Permissions = cloneStrings(a.Permissions)
	out.Metadata = cloneMetadata(a.Metadata)
	if a.ApplicationInfo != nil {
		app := a.ApplicationInfo.clone()
		out.ApplicationInfo = &app
	}
	return out
}

// ExtensionAbilityInfo describes a declared extension ability
type ExtensionAbilityInfo struct {
	Name            string           `json:"name" validate:"required"`
	BundleName      string           `json:"bundle_name"`
	ModuleName      string           `json:"module_name"`
	Label           string           `json:"label,omitempty"`
	Description     string           `json:"description,omitempty"`
	LabelID         uint32           `json:"label_id,omitempty"`
	IconID          uint32           `json:"icon_id,omitempty"`
	Type            ExtensionType    `json:"type"`
	Visible         bool             `json:"visible"`
	Enabled         bool             `json:"enabled"`
	Process         string           `json:"process,omitempty"`
	URI             string           `json:"uri,omitempty"`
	ReadPermission  string           `json:"read_permission,omitempty"`
	WritePermission string           `json:"write_permission,omitempty"`
	Permissions     []string         `json:"permissions,omitempty"`
	Metadata        []Metadata       `json:"metadata,omitempty"`
	ApplicationInfo *ApplicationInfo `json:"application_info,omitempty"`
}

func (e ExtensionAbilityInfo) clone() ExtensionAbilityInfo {
	out := e
	out.Permissions = cloneStrings(e.Permissions)
	out.Metadata = cloneMetadata(e.Metadata)
	if e.ApplicationInfo != nil {
		app := e.ApplicationInfo.clone()
		out.ApplicationInfo = &app
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMetadata(in []Metadata) []Metadata {
	if in == nil {
		return nil
	}
	out := make([]Metadata, len(in))
	copy(out, in)
	return out
}
