// Package mediacache stores local copies of generated media. Tool result
// URLs expire; the cache fetches each remote artifact once, assigns it an
// opaque handle, and serves the bytes from its own storage from then on.
// Caching is best-effort and decoupled from result persistence: a failed
// fetch never fails the task, it only leaves the handle unattached.
package mediacache
