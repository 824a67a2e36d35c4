// Package interaction holds the core's three in-memory, mutex-guarded
// maps: the reply-context store (C2), the tweak-session store (C3), and
// the short-token bimap that keeps tweak callback-data under the
// platform's 64-byte limit. None of this is persisted across restarts.
package interaction

import (
	"sync"
	"time"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// DefaultReplyContextTTL is the default lifetime of a stored reply
// context before it is reaped (§3).
const DefaultReplyContextTTL = time.Hour

type replyContextKey struct {
	chatID    string
	messageID int
}

type replyContextEntry struct {
	ctx       protocol.ReplyContext
	expiresAt time.Time
}

// ReplyContextStore maps (chatId, messageId) of a bot-sent prompt message
// to the typed context needed to interpret the user's text reply to it.
type ReplyContextStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[replyContextKey]replyContextEntry
}

// NewReplyContextStore builds a store with the given per-entry TTL. A
// non-positive ttl falls back to DefaultReplyContextTTL.
func NewReplyContextStore(ttl time.Duration) *ReplyContextStore {
	if ttl <= 0 {
		ttl = DefaultReplyContextTTL
	}
	return &ReplyContextStore{ttl: ttl, m: make(map[replyContextKey]replyContextEntry)}
}

// Put stores ctx under (chatID, messageID), refreshing its TTL.
func (s *ReplyContextStore) Put(chatID string, messageID int, ctx protocol.ReplyContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[replyContextKey{chatID, messageID}] = replyContextEntry{ctx: ctx, expiresAt: time.Now().Add(s.ttl)}
}

// Take returns and removes the context stored under (chatID, messageID).
// A context is consumed exactly once: subsequent calls for the same key
// return ok=false until a new one is stored (invariant #4).
func (s *ReplyContextStore) Take(chatID string, messageID int) (protocol.ReplyContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := replyContextKey{chatID, messageID}
	entry, ok := s.m[key]
	if !ok {
		return protocol.ReplyContext{}, false
	}
	delete(s.m, key)
	if time.Now().After(entry.expiresAt) {
		return protocol.ReplyContext{}, false
	}
	return entry.ctx, true
}

// Remove drops a context without returning it, used when a prompt
// message is superseded before the user replies.
func (s *ReplyContextStore) Remove(chatID string, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, replyContextKey{chatID, messageID})
}

// ReapExpired deletes every entry whose TTL has passed and returns the
// count removed. The eviction path is a no-op for anything already
// consumed by Take, since that delete already happened under the lock.
func (s *ReplyContextStore) ReapExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.m {
		if now.After(e.expiresAt) {
			delete(s.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of live entries, used for diagnostics.
func (s *ReplyContextStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
