// Package audit records protect, unprotect and keygen operations.
//
// Entries are JSON Lines appended to the file named by [audit] log_path in
// the tool config. Every entry carries an operation ID (a random UUID)
// shared by all entries written for one command invocation, so a run that
// touches several files can be grouped back together:
//
//	{"ts":"2026-01-02T03:04:05.000000Z","op_id":"...","user":"deploy","op":"protect","file":"web.config","sections":["appSettings"],"algorithm":"http://www.w3.org/2001/04/xmlenc#aes128-cbc"}
//
// Audit logging is best-effort. A failed write never fails the operation
// being recorded.
package audit
