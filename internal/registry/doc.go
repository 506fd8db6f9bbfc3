// Package registry drives the application lifecycle: submit creates an
// immutable snapshot in the submitted state, and approve or reject moves
// it exactly once to a terminal state, mirroring the outcome onto the
// user and notifying them. Concurrent admin actions on one application
// are settled by a conditional database update, so no locking is needed.
package registry
