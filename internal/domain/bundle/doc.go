// Package bundle provides the bundle data registry for the bundle manager.
//
// The registry is the in-memory catalog of installed application bundles.
// Every mutation is gated by an install-state machine and persisted to a
// Store before it becomes visible to readers.
//
// Components:
//   - Manager: bundle map, install states, identity allocator, user set
//   - State machine: legal predecessor table for every install state
//   - Query engine: explicit, implicit, launcher and uri resolution
//
// Locking:
//   - mu guards the bundle map and is always taken before stateMu
//   - stateMu guards the install-state table
//   - idMu and userMu are leaves
//
// Users:
//   - UnspecifiedUserID resolves to the user of the calling uid (WithCallingUID)
//   - AnyUserID picks the lowest user holding the bundle
//   - AllUserID aggregates across users in list queries
//   - unknown user ids fail closed
//
// Example Usage:
//
//	mgr := bundle.NewManager(store, logger)
//	if err := mgr.LoadDataFromPersistentStorage(ctx); err != nil {
//	    return err
//	}
//	mgr.UpdateBundleInstallState(ctx, name, types.InstallStart)
//	err := mgr.AddInnerBundleInfo(ctx, name, info)
//	mgr.UpdateBundleInstallState(ctx, name, types.InstallSuccess)
//	info, ok := mgr.GetBundleInfo(ctx, name, types.GetBundleDefault, types.DefaultUserID)
package bundle
