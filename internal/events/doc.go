// Package events provides a minimal in-memory event bus used to decouple
// the engine's execution loop from best-effort follow-up work such as media
// caching and lifecycle notifications. Emission is synchronous; handlers
// that must not block the emitter spawn their own goroutines.
package events
