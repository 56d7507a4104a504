// Package middleware exposes HTTP middleware adapters for session-cookie
// authorization enforcement built on top of tasknest.Engine validation.
//
// # Guards
//
//   - [Guard] — verifies the session cookie against the session store.
//
// The guard reads the session cookie, calls Engine.Authenticate, and injects
// the validated session into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Issue or destroy sessions (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Authenticate.
package middleware
