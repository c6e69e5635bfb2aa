// Package server wires the bundle manager service together.
//
// This package orchestrates all components:
//   - SQLite storage for records, pre-install rows and usage
//   - Bundle registry restored from storage on start
//   - Notification hub with in-process and sink broadcasters
//   - Installer, pre-install seeding and usage tracking
//   - HTTP routing and middleware
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Open storage and restore the registry and side tables
//  4. Seed the pre-install table from factory lists
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Shutdown(ctx)
package server
