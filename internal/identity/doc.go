// Package identity resolves who is calling.
//
// The rest of the system consumes a single fact: the stable user ID of
// the authenticated caller, read from the request context via
// UserFromContext. How that ID was proven is this package's concern
// alone.
//
// Exactly one credential scheme is supported: a bearer JWT signed with
// HS256 against a configured secret, with the user ID in the "sub"
// claim. The Service issues these tokens at login and the Middleware
// verifies them per request. There is no trusted-header fallback; a
// header naming an email is an assertion, not a proof, and is ignored.
//
// Passwords are stored as bcrypt hashes. Login responds identically for
// unknown emails and wrong passwords, in message and in timing.
package identity
