package types

// Identity ranges. A uid is userID*BaseUserRange + bundleID.
const (
	BaseUserRange = 200000
	BaseAppUID    = 10000
	MaxAppUID     = 65535
	RootUID       = 0
	MaxSysUID     = 2899
	InvalidUID    = -1
)

// User id sentinels
const (
	DefaultUserID     int32 = 0
	StartUserID       int32 = 100
	InvalidUserID     int32 = -1
	UnspecifiedUserID int32 = -2
	AllUserID         int32 = -3
	AnyUserID         int32 = -4
)

// CurrentDeviceID keys the local view of every bundle record. Other device ids
// hold distributed views synced from remote devices.
const CurrentDeviceID = "PHONE-001"

// Well-known intent vocabulary
const (
	ActionHome     = "action.system.home"
	WantActionHome = "ohos.want.action.home"
	EntityHome     = "entity.system.home"
)

// URI prefixes resolved by the query engine
const (
	DataAbilityURIPrefix = "dataability://"
	DataShareURIPrefix   = "datashare://"
	URISeparator         = "/"
)

// MaxUsageRecords caps GetUsageRecords results
const MaxUsageRecords = 1000
