// Package session carries a per-browser session ID in a signed cookie and
// routes one-shot flash messages through it.
//
// The cookie value is "<uuid>.<mac>", where mac is an HMAC-SHA256 of the
// ID keyed with a key derived from the configured secret. A cookie that
// does not verify is replaced with a fresh session. Flashes live in a
// FlashStore keyed by session ID; MemoryStore keeps at most one per
// session, expires unread ones after a TTL and is swept by RunJanitor.
package session
