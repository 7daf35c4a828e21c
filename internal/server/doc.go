// ABOUTME: Package documentation for the HTTP server
// ABOUTME: Describes the endpoint surface and error mapping

// Package server provides the chatrelay HTTP API.
//
// # Endpoints
//
// Open:
//
//	POST /auth/register   create an account
//	POST /auth/login      exchange credentials for a bearer token
//	GET  /health          liveness probe
//	GET  /health/ready    readiness probe (checks the inference engine)
//
// Bearer token required:
//
//	POST   /chats/new       create an empty chat
//	GET    /chats           list the caller's chats
//	GET    /chats/{id}      load a chat with its messages
//	POST   /chats/message   send a message and get the reply
//	DELETE /chats/{id}      delete a chat
//
// # Error Mapping
//
// Domain errors map onto statuses: validation failures are 400, bad or
// missing tokens are 401, a chat outside the caller's scope is 404
// (indistinguishable from one that never existed), an engine timeout is
// 504, and any other engine failure is 502. Everything else is a
// generic 500; details stay in the log.
//
// All error bodies are JSON: {"error": "..."}.
package server
