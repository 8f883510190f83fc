// Package capture turns execution outcomes into persistent task state. A
// success appends to the result history and marks the task completed, a
// failure records the error message, and redirect or cancelled outcomes
// leave the task pending for another attempt. Media caching is decoupled
// through the event emitter so a slow or failing fetch never blocks the
// queue.
package capture
