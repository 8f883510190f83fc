// Package api implements the HTTP control surface: authentication, task
// CRUD, queue control (run, stop, policy, state), page scanning for bulk
// import, and media serving. Handlers depend on the store, scheduler, and
// media cache through narrow interfaces and translate errors into sanitized
// JSON responses.
package api
