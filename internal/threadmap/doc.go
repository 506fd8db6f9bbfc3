// Package threadmap owns the reverse-routing table between admin-group
// posts and the users they concern. Every relayed user message and every
// application summary gets exactly one entry, keyed by the group message
// id, before any admin has a chance to reply to it.
package threadmap
