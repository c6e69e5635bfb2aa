// Package storage persists bundle records and side tables in SQLite.
//
// Every row carries a JSON payload (zstd-compressed when enabled) and a
// SHA-256 digest of the stored bytes. Writes are upserts and deletes of
// missing keys succeed, so every operation is idempotent under retry.
//
// Tables:
//   - bundles: primary records keyed by (bundle_name, device_id)
//   - preinstall: factory pre-install list keyed by bundle_name
//   - module_usage: launch statistics keyed by bundle/module
package storage
