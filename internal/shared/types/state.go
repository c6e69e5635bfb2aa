package types

// InstallState is the lifecycle phase of a bundle. Exactly one state exists per
// bundle name while it is known to the registry.
type InstallState int

const (
	InstallStart InstallState = iota
	InstallSuccess
	InstallFail
	UninstallStart
	UninstallSuccess
	UninstallFail
	UpdatingStart
	UpdatingSuccess
	UpdatingFail
	RollBack
	UserChange
)

var installStateNames = map[InstallState]string{
	InstallStart:     "INSTALL_START",
	InstallSuccess:   "INSTALL_SUCCESS",
	InstallFail:      "INSTALL_FAIL",
	UninstallStart:   "UNINSTALL_START",
	UninstallSuccess: "UNINSTALL_SUCCESS",
	UninstallFail:    "UNINSTALL_FAIL",
	UpdatingStart:    "UPDATING_START",
	UpdatingSuccess:  "UPDATING_SUCCESS",
	UpdatingFail:     "UPDATING_FAIL",
	RollBack:         "ROLL_BACK",
	UserChange:       "USER_CHANGE",
}

// String returns the string representation of the state
func (s InstallState) String() string {
	if name, ok := installStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseInstallState resolves a state by its string form
func ParseInstallState(name string) (InstallState, bool) {
	for state, n := range installStateNames {
		if n == name {
			return state, true
		}
	}
	return 0, false
}

// AllInstallStates lists every state in declaration order
func AllInstallStates() []InstallState {
	return []InstallState{
		InstallStart, InstallSuccess, InstallFail,
		UninstallStart, UninstallSuccess, UninstallFail,
		UpdatingStart, UpdatingSuccess, UpdatingFail,
		RollBack, UserChange,
	}
}

// BundleStatus marks whether an installer currently holds the record
type BundleStatus string

const (
	BundleEnabled  BundleStatus = "ENABLED"
	BundleDisabled BundleStatus = "DISABLED"
)
