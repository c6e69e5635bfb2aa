// Package notify provides the notification hub of the bundle manager.
//
// The hub is told about completed installer operations and fans them out
// to listeners. It never watches the registry itself.
//
// Components:
//   - Hub: bundle status callbacks and permission-change listeners
//   - LocalBroadcaster: in-process CloudEvents subscribers
//   - SinkBroadcaster: CloudEvents HTTP delivery with retries
//   - GuardedBroadcaster: circuit breaker around a failing sink
//   - MultiBroadcaster: fan-out to several broadcasters
//
// Features:
//   - Listener identity by endpoint equality
//   - Dead endpoints pruned through DeathNotifier
//   - Scoped (per uid) and unscoped permission listeners
//   - Successful results published as usual.event.PACKAGE_* broadcasts
//
// Example Usage:
//
//	hub := notify.NewHub(notify.NewLocalBroadcaster(), "bundlemgr", logger)
//	hub.RegisterBundleStatusCallback(listener)
//	hub.NotifyBundleStatus(ctx, types.NotifyData{
//	    BundleName: "com.example.notes",
//	    Type:       types.NotifyInstall,
//	})
package notify
