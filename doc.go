// Package tasknest implements the authentication and session core of the
// tasknest web backend: user registration, credential login with email or
// username identifiers, server-side session issuance in Redis, and single or
// all-device logout.
//
// The entry point is [Engine], constructed through the fluent [Builder]
// returned by [New]. All dependencies (Redis client, credential store, audit
// sink) are injected explicitly; the package holds no global state.
//
// Credential persistence is abstracted behind the [UserStore] interface. The
// credential subpackage provides the PostgreSQL implementation; tests inject
// in-memory doubles.
package tasknest
