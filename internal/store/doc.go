// Package store provides persistence for club-relay entities.
//
// # Entities
//
//   - User: Telegram identity plus conversational state and application status
//   - DraftApplication: in-progress file collection with a 24h expiry
//   - Application: immutable snapshot created at submit time
//   - ThreadMapEntry: admin-group post to originating user link
//   - MessageLog: append-only record of every relayed item
//
// # Implementations
//
// SQLiteStore is the production implementation (modernc.org/sqlite, WAL
// mode, schema auto-created). File collections are stored as JSON documents
// inside their row; there are no relational joins beyond id lookup.
// MockStore is an in-memory implementation for tests.
//
// # Status transitions
//
// Application status changes go through FinalizeApplication, whose
// conditional UPDATE provides per-application-id serialization: concurrent
// approve/reject attempts race on the row and exactly one wins.
package store
