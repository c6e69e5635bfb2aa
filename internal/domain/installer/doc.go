// Package installer drives the bundle registry through install and
// uninstall.
//
// Every operation opens an install-state transition, calls one registry
// mutator, closes the transition and reports the result to the
// notification hub. HAP parsing and signature checks happen before Install
// is called; the installer receives an already-parsed record.
//
// Flows:
//   - Fresh install: INSTALL_START, add, INSTALL_SUCCESS (INSTALL_FAIL on error)
//   - Module add or replace: UPDATING_START, UPDATING_SUCCESS, mutate,
//     INSTALL_SUCCESS (ROLL_BACK then INSTALL_SUCCESS on error)
//   - New user: USER_CHANGE, add user, INSTALL_SUCCESS
//   - Uninstall: UNINSTALL_START, then UNINSTALL_SUCCESS for the last user
//     or remove user and INSTALL_SUCCESS (UNINSTALL_FAIL on error)
//
// Example Usage:
//
//	in := installer.New(registry, hub, logger).WithMetrics(metrics)
//	res := in.Install(ctx, record, 100, installer.InstallOptions{})
//	if !res.OK() {
//	    log.Printf("install failed: %s", res.Code)
//	}
package installer
