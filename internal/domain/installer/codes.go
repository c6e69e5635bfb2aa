package installer

// Code is an installer status-receiver result code
type Code int32

// Result codes. Values are stable across releases.
const (
	ErrOK                              Code = 0
	ErrInstallInternalError            Code = 1
	ErrInstallStateError               Code = 2
	ErrInstallParamError               Code = 3
	ErrInstallUserNotExist             Code = 4
	ErrInstallAlreadyExist             Code = 5
	ErrInstallVersionDowngrade         Code = 6
	ErrUninstallMissingInstalledBundle Code = 7
	ErrUninstallMissingInstalledModule Code = 8
	ErrUninstallSystemApp              Code = 9
)

var codeNames = map[Code]string{
	ErrOK:                              "OK",
	ErrInstallInternalError:            "INSTALL_INTERNAL_ERROR",
	ErrInstallStateError:               "INSTALL_STATE_ERROR",
	ErrInstallParamError:               "INSTALL_PARAM_ERROR",
	ErrInstallUserNotExist:             "INSTALL_USER_NOT_EXIST",
	ErrInstallAlreadyExist:             "INSTALL_ALREADY_EXIST",
	ErrInstallVersionDowngrade:         "INSTALL_VERSION_DOWNGRADE",
	ErrUninstallMissingInstalledBundle: "UNINSTALL_MISSING_INSTALLED_BUNDLE",
	ErrUninstallMissingInstalledModule: "UNINSTALL_MISSING_INSTALLED_MODULE",
	ErrUninstallSystemApp:              "UNINSTALL_SYSTEM_APP",
}

// String returns the status-receiver name of the code
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Result is the outcome of one installer operation
type Result struct {
	Code        Code   `json:"code"`
	Message     string `json:"message,omitempty"`
	BundleName  string `json:"bundle_name"`
	UID         int32  `json:"uid,omitempty"`
	OperationID string `json:"operation_id"`
}

// OK reports whether the operation succeeded
func (r Result) OK() bool {
	return r.Code == ErrOK
}
