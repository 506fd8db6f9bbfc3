// Package router orchestrates every inbound update. Each update first
// passes the duplicate guard, then dispatches on origin: private chat
// traffic runs through the per-user state machine (idle, awaiting an
// admin message, collecting application files) under a per-user lock,
// while admin-group traffic bypasses user state and resolves through
// the thread map. All user-visible failure text stays generic; detail
// goes to the logs.
package router
