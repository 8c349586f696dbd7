// Package inbound contains the transport-agnostic guarded dispatcher.
//
// Request-handling layers register named operations together with their
// access guards; Dispatch resolves the caller, runs the guard's checks, and
// only then invokes the handler. Authentication, authorization, and
// infrastructure failures keep their distinct error categories through the
// dispatch envelope.
package inbound
