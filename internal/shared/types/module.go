package types

// ModuleType distinguishes entry and feature HAPs
type ModuleType string

const (
	ModuleEntry   ModuleType = "entry"
	ModuleFeature ModuleType = "feature"
)

// HapModuleInfo describes one installed module of a bundle
type HapModuleInfo struct {
	Name             string                 `json:"name" validate:"required"`
	Package          string                 `json:"package,omitempty"`
	ModuleType       ModuleType             `json:"module_type"`
	Description      string                 `json:"description,omitempty"`
	HapPath          string                 `json:"hap_path,omitempty"`
	ResourcePath     string                 `json:"resource_path,omitempty"`
	MainAbility      string                 `json:"main_ability,omitempty"`
	ColorMode        string                 `json:"color_mode,omitempty"`
	InstallationFree bool                   `json:"installation_free,omitempty"`
	ReqCapabilities  []string               `json:"req_capabilities,omitempty"`
	DeviceTypes      []string               `json:"device_types,omitempty"`
	Metadata         []Metadata             `json:"metadata,omitempty" validate:"dive"`
	Abilities        []AbilityInfo          `json:"abilities,omitempty" validate:"dive"`
	Extensions       []ExtensionAbilityInfo `json:"extensions,omitempty" validate:"dive"`
}

// IsEntry reports whether this is the entry module
func (m *HapModuleInfo) IsEntry() bool {
	return m.ModuleType == ModuleEntry
}

func (m *HapModuleInfo) clone() *HapModuleInfo {
	out := *m
	out.ReqCapabilities = cloneStrings(m.ReqCapabilities)
	out.DeviceTypes = cloneStrings(m.DeviceTypes)
	out.Metadata = cloneMetadata(m.Metadata)
	if m.Abilities != nil {
		out.Abilities = make([]AbilityInfo, len(m.Abilities))
		for i, a := range m.Abilities {
			out.Abilities[i] = a.clone()
		}
	}
	if m.Extensions != nil {
		out.Extensions = make([]ExtensionAbilityInfo, len(m.Extensions))
		for i, e := range m.Extensions {
			out.Extensions[i] = e.clone()
		}
	}
	return &out
}
