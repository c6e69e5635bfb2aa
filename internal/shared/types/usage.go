package types

// ModuleUsageRecord tracks launches of one module's main ability
type ModuleUsageRecord struct {
	BundleName     string `json:"bundle_name"`
	ModuleName     string `json:"module_name"`
	AbilityName    string `json:"ability_name"`
	LabelID        uint32 `json:"label_id,omitempty"`
	DescriptionID  uint32 `json:"description_id,omitempty"`
	IconID         uint32 `json:"icon_id,omitempty"`
	LaunchedCount  uint32 `json:"launched_count"`
	LastLaunchTime int64  `json:"last_launch_time"`
	Removed        bool   `json:"removed"`
}

// Key returns the storage key of the record
func (r ModuleUsageRecord) Key() string {
	return r.BundleName + "/" + r.ModuleName
}
