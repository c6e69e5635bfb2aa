// Package http is the gin request/response adapter of the bundle manager.
//
// Every route maps to one registry, installer or side-table call. Lookups
// that find nothing answer 404; installer results map their status code to
// an HTTP status and carry the code name in the body.
//
// Routes (under /v1):
//   - /bundles: list, get, install, uninstall, enablement, launch want
//   - /query: want, launcher, extension, URI and metadata resolution
//   - /uids/:uid: uid to bundle lookups
//   - /users: registered user ids
//   - /preinstall, /usage: side tables
//   - /events: websocket bundle status stream for ?bundle=
//
// The calling uid is read from the X-Calling-Uid header. Requests for the
// unspecified user resolve to the caller's user.
package http
