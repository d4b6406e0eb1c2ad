// Package hosted implements the authgate Provider against a hosted
// credential service speaking a GoTrue-style REST API: password grants and
// refresh grants on /token, account creation on /signup, recovery emails on
// /recover, and one-time token exchange on /verify.
package hosted
