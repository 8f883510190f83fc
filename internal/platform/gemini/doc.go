// Package gemini provides a channel.Channel backed by the Gemini API
// instead of a driven web page. It covers text-only tasks: prompts go
// straight to the API and the reply becomes the task result, with no DOM
// involved. Image and video tasks are rejected so the scheduler can surface
// a clear failure instead of a silent wrong-mode run.
package gemini
