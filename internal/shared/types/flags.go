package types

// BundleFlag selects the substructures populated in a BundleInfo
type BundleFlag int32

const (
	GetBundleDefault                 BundleFlag = 0x00000000
	GetBundleWithAbilities           BundleFlag = 0x00000001
	GetBundleWithRequestedPermission BundleFlag = 0x00000010
	GetBundleWithExtensionInfo       BundleFlag = 0x00000020
	GetBundleWithMetadata            BundleFlag = 0x00000040
	GetBundleWithDisable             BundleFlag = 0x00000200
)

// Has reports whether all bits of f are set
func (b BundleFlag) Has(f BundleFlag) bool { return b&f == f }

// AbilityFlag controls ability query filtering and post-processing
type AbilityFlag int32

const (
	GetAbilityInfoDefault         AbilityFlag = 0x00000000
	GetAbilityInfoWithPermission  AbilityFlag = 0x00000002
	GetAbilityInfoWithApplication AbilityFlag = 0x00000004
	GetAbilityInfoWithMetadata    AbilityFlag = 0x00000020
	GetAbilityInfoSystemAppOnly   AbilityFlag = 0x00000080
	GetAbilityInfoWithDisable     AbilityFlag = 0x00000100
)

// Has reports whether all bits of f are set
func (a AbilityFlag) Has(f AbilityFlag) bool { return a&f == f }

// ApplicationFlag selects the parts of an ApplicationInfo copy
type ApplicationFlag int32

const (
	GetBasicApplicationInfo          ApplicationFlag = 0x00000000
	GetApplicationInfoWithPermission ApplicationFlag = 0x00000008
	GetApplicationInfoWithMetadata   ApplicationFlag = 0x00000040
	GetApplicationInfoWithDisable    ApplicationFlag = 0x00000200
)

// Has reports whether all bits of f are set
func (a ApplicationFlag) Has(f ApplicationFlag) bool { return a&f == f }

// ExtensionFlag controls extension query post-processing
type ExtensionFlag int32

const (
	GetExtensionInfoDefault         ExtensionFlag = 0x00000000
	GetExtensionInfoWithPermission  ExtensionFlag = 0x00000002
	GetExtensionInfoWithApplication ExtensionFlag = 0x00000004
	GetExtensionInfoWithMetadata    ExtensionFlag = 0x00000020
)

// Has reports whether all bits of f are set
func (e ExtensionFlag) Has(f ExtensionFlag) bool { return e&f == f }
