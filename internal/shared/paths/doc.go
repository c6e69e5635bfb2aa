// Package paths provides the on-device directory layout of installed bundles.
//
// System bundles live under NativeApps, user-installed bundles under Apps.
// Data and cache directories are keyed by bundle name.
//
// Example Usage:
//
//	import "github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/paths"
//
//	layout := paths.ForBundle("com.example.notes", false)
//	codeDir := layout.CodeDir()   // /storage/apps/com.example.notes
//	dataDir := layout.DataDir()   // /storage/data/com.example.notes
package paths
