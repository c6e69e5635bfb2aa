package types

// PreInstallBundleInfo records a factory-shipped bundle
type PreInstallBundleInfo struct {
	BundleName    string   `json:"bundle_name" yaml:"bundle_name" toml:"bundle_name" validate:"required,bundlename"`
	VersionCode   uint32   `json:"version_code" yaml:"version_code" toml:"version_code"`
	BundlePaths   []string `json:"bundle_paths" yaml:"bundle_paths" toml:"bundle_paths" validate:"required,min=1,dive,required"`
	AppType       string   `json:"app_type,omitempty" yaml:"app_type" toml:"app_type" validate:"omitempty,oneof=system third-party"`
	Removable     bool     `json:"removable" yaml:"removable" toml:"removable"`
	IsUninstalled bool     `json:"is_uninstalled" yaml:"is_uninstalled" toml:"is_uninstalled"`
}

// Clone returns a deep copy
func (p PreInstallBundleInfo) Clone() PreInstallBundleInfo {
	p.BundlePaths = cloneStrings(p.BundlePaths)
	return p
}

// HasBundlePath reports whether path is one of the recorded HAP paths
func (p PreInstallBundleInfo) HasBundlePath(path string) bool {
	return contains(p.BundlePaths, path)
}
