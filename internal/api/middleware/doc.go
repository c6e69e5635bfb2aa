// Package middleware provides the gin middleware of the HTTP adapter.
//
// Middleware:
//   - CORS: gin-contrib/cors with the caller headers allowed
//   - RateLimit: per-caller token buckets with idle eviction
//   - GlobalRateLimit: one bucket for every caller
//   - CallingUID: X-Calling-Uid into the request context
//   - RequestID: X-Request-Id propagation
//   - Logger: structured request logs
package middleware
