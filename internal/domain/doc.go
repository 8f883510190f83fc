// Package domain defines the core entities of the prompt automation engine:
// tasks, their execution status, and the results captured from generation
// tools. Entities validate themselves and carry no persistence or transport
// concerns.
package domain
