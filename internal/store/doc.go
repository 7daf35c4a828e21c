// Package store provides persistent storage for chatrelay using SQLite.
//
// # Architecture
//
// Two interfaces cover the persistence surface:
//
//   - ChatStore: owner-scoped chat CRUD and atomic message append
//   - UserStore: account records for the identity layer
//
// SQLiteStore implements both in a single struct; Store combines them.
//
// # Ownership scoping
//
// Every chat operation takes an ownerID and filters on it in SQL. A chat
// that exists but belongs to someone else is reported as ErrNotFound,
// identically to a chat that never existed, so the API cannot be used to
// probe which chat IDs are taken.
//
// # Atomic append
//
// AppendMessages runs the ownership check, the message inserts, the
// updated_at bump, and the conditional title derivation in one SQLite
// transaction. Two concurrent sends against the same chat serialize at
// the database; neither can overwrite the other's appended rows. The
// title update matches only the sentinel value ("New Chat"), so a title
// is derived at most once per chat no matter how often it races.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Foreign keys give whole-chat deletion: removing a chat row cascades to
// its messages. Use NewSQLiteStore(":memory:") in tests.
package store
