package paths

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mount points
const (
	Storage = "/storage"
	Cache   = "/cache"
)

// Storage subdirectories
const (
	// NativeApps holds code of bundles shipped with the system image
	NativeApps = "/storage/native-apps"

	// Apps holds code of user-installed bundles
	Apps = "/storage/apps"

	// Data holds per-bundle data directories
	Data = "/storage/data"

	// System holds bundle manager state
	System = "/storage/system"

	// PreInstall holds factory pre-install lists
	PreInstall = "/storage/system/etc/preinstall"
)

// Bundle returns the on-device layout of one bundle
type Bundle struct {
	Name   string
	System bool
}

// CodeDir returns the bundle's code directory
func (b Bundle) CodeDir() string {
	if b.System {
		return filepath.Join(NativeApps, b.Name)
	}
	return filepath.Join(Apps, b.Name)
}

// ModuleDir returns the source directory of one module
func (b Bundle) ModuleDir(module string) string {
	return filepath.Join(b.CodeDir(), module)
}

// DataDir returns the bundle's data directory
func (b Bundle) DataDir() string {
	return filepath.Join(Data, b.Name)
}

// CacheDir returns the bundle's cache directory
func (b Bundle) CacheDir() string {
	return filepath.Join(Cache, b.Name)
}

// ForBundle returns the layout for a bundle
func ForBundle(name string, system bool) Bundle {
	return Bundle{Name: name, System: system}
}

// IsSystemPath checks if path is system-protected
func IsSystemPath(path string) bool {
	return within(path, System) || within(path, NativeApps)
}

// within reports whether path is root or below it
func within(path, root string) bool {
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// ValidateBundleName checks if a bundle name is safe for path construction
func ValidateBundleName(name string) error {
	if name == "" {
		return fmt.Errorf("bundle name cannot be empty")
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("bundle name cannot be an absolute path")
	}
	if filepath.Clean(name) != name || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("bundle name contains invalid path components")
	}
	return nil
}
