// Package authgate gates web routes behind a hosted credential provider.
//
// The provider owns accounts, password verification, token issuance, and
// email delivery. This package is the orchestration layer on top of it:
//
// Route classification:
//   - Paths are partitioned into public, auth-entry, and protected sets via
//     a RouteTable of glob patterns. The partition is total: unmatched paths
//     fall back to an explicit default class chosen at construction time.
//
// Session resolution:
//   - SessionReader resolves the request's cookies to a Subject, validating
//     the access token locally against the provider's signing keys and
//     attempting at most one bounded refresh round trip when it has expired.
//     It distinguishes "no session", "invalid session", and "provider
//     unreachable" so policy can fail open or closed per route class.
//
// Gating:
//   - RequestGate runs as middleware before any page handler. It combines
//     the route class and the reader outcome into an allow-or-redirect
//     decision, persists rotated credentials back to the client, and
//     carries the originally requested path through the sign-in redirect.
//
// Auth flows:
//   - Command handlers (sign-up, sign-in, sign-out, password reset, email
//     verification) validate input shape, delegate to the Provider, and map
//     provider failures into the package error taxonomy. AuthController
//     wires them to HTTP routes.
package authgate
