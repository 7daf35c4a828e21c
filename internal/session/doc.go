// ABOUTME: Package documentation for the session service
// ABOUTME: Explains the send-message protocol and its failure semantics

// Package session orchestrates chat lifecycle and message exchange.
//
// The service sits between the HTTP layer and the chat store. Lifecycle
// operations (create, list, load, delete) delegate to the store with the
// caller's owner ID attached, so a chat is never visible outside its
// owner's scope.
//
// SendMessage is the interesting path. It validates the message, loads
// the chat, calls the inference engine, and then appends the user and
// assistant turns in a single store transaction. The ordering matters:
// the engine is called before anything is written, so a failed
// generation leaves the chat exactly as it was. There is no partial
// exchange where a user turn exists without its reply.
//
// On the first successful exchange the chat's title is derived from the
// first user message. Derivation is idempotent: it only applies while
// the chat still carries the sentinel title, enforced by a conditional
// update in the store.
package session
