// Package inference is the boundary to the external text-generation engine.
//
// The engine is a synchronous request/response service:
//
//	POST /chat  {"message": ..., "session_id": ..., "hf_token": ...}
//	         -> {"response": ..., "model": ...}
//	POST /clear {"session_id": ...}
//	GET  /health
//
// Every call carries a hard timeout (default 60s). Failures fall into
// three classes the session layer maps to HTTP statuses:
//
//   - ErrTimeout: no answer within the timeout
//   - ErrUnreachable: connection-level failure
//   - ErrUpstream: engine answered but signaled failure or sent no text
//
// The client never retries. A failed send surfaces to the user, who can
// simply resubmit; silent retries could double generation cost.
package inference
