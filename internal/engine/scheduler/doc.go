// Package scheduler sequences queued tasks through the execution channel one
// at a time. It owns the run lifecycle (Idle -> Running -> Idle/Stopped), the
// retry and auto-advance policies, redirect-and-retry cycles, and the
// randomized inter-task delay that keeps submissions from presenting a fixed
// cadence to the remote service.
package scheduler
