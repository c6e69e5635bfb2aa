// Package main is the entry point for the bundle manager service.
//
// The service keeps the registry of installed application bundles, answers
// queries against it, runs install and uninstall operations and reports
// bundle status changes to listeners and system broadcasts.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -db /data/bms/bundlemgr.db -preinstall /system/etc/preinstall
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
