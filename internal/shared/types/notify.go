package types

// NotifyType names the bundle lifecycle event being reported
type NotifyType string

const (
	NotifyInstall           NotifyType = "INSTALL"
	NotifyUpdate            NotifyType = "UPDATE"
	NotifyUninstallBundle   NotifyType = "UNINSTALL_BUNDLE"
	NotifyUninstallModule   NotifyType = "UNINSTALL_MODULE"
	NotifyAbilityEnable     NotifyType = "ABILITY_ENABLE"
	NotifyApplicationEnable NotifyType = "APPLICATION_ENABLE"
)

// NotifyData is the payload delivered to bundle status callbacks
type NotifyData struct {
	BundleName  string     `json:"bundle_name"`
	ModuleName  string     `json:"module_name,omitempty"`
	AbilityName string     `json:"ability_name,omitempty"`
	ResultCode  int32      `json:"result_code"`
	Type        NotifyType `json:"type"`
	UID         int32      `json:"uid"`
	UserID      int32      `json:"user_id"`
}
