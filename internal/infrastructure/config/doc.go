// Package config provides 12-factor configuration management for the bundle
// manager service.
//
// Configuration is loaded from environment variables with sensible defaults
// and validated after loading. CLI flags can override environment variables
// for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout)
//   - Storage: SQLite database path and record compression
//   - PreInstall: Directory of factory pre-install lists
//   - Events: CloudEvents sink for system broadcasts
//   - Logging: Log level and output format
//   - RateLimit: Per-caller rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - BMS_DB_PATH, BMS_COMPRESS, BMS_PREINSTALL_DIR
//   - BMS_EVENT_SINK, BMS_EVENT_SOURCE, BMS_EVENT_RETRIES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
