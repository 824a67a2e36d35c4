package interaction

import (
	"sync"
	"time"
)

// DefaultTweakSessionTTL is the default lifetime of an untouched tweak
// session before it is considered expired (§3, S6).
const DefaultTweakSessionTTL = time.Hour

// TweakSession is the in-process draft of a derived generation's
// parameters plus the UI bookkeeping needed to render and later restore
// the tweak menu. Kept as a struct rather than a map with dunder keys
// (§9 design note): Payload only ever holds tool-input values, so it can
// be handed straight to ToolDefinition.FilterKnownInputs without first
// stripping bookkeeping fields out of it.
type TweakSession struct {
	GenerationID    string
	MasterAccountID string

	CanonicalToolID string
	ToolDisplayName string

	// Payload is the overlay of the ancestor's requestPayload plus any
	// per-parameter edits applied so far.
	Payload map[string]any
	Dirty   bool

	MenuChatID   string
	MenuMsgID    int
	IsNewMenu    bool
	OrigKeyboard any // opaque transport-specific keyboard snapshot, restored on cancel/restore

	lastTouched time.Time
}

func sessionKey(generationID, masterAccountID string) string {
	return generationID + "_" + masterAccountID
}

// TweakSessionStore maps (generationId, masterAccountId) to its pending
// TweakSession (C3).
type TweakSessionStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]*TweakSession
}

// NewTweakSessionStore builds a store with the given idle TTL. A
// non-positive ttl falls back to DefaultTweakSessionTTL.
func NewTweakSessionStore(ttl time.Duration) *TweakSessionStore {
	if ttl <= 0 {
		ttl = DefaultTweakSessionTTL
	}
	return &TweakSessionStore{ttl: ttl, m: make(map[string]*TweakSession)}
}

// Create initializes and stores a new session, overwriting any existing
// one for the same key (tweak-open always re-initializes, §4.4 step 1).
func (s *TweakSessionStore) Create(session *TweakSession) {
	session.lastTouched = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sessionKey(session.GenerationID, session.MasterAccountID)] = session
}

// Get returns the session for (generationId, masterAccountId) if present
// and not expired by idle TTL.
func (s *TweakSessionStore) Get(generationID, masterAccountID string) (*TweakSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[sessionKey(generationID, masterAccountID)]
	if !ok {
		return nil, false
	}
	if time.Since(sess.lastTouched) > s.ttl {
		delete(s.m, sessionKey(generationID, masterAccountID))
		return nil, false
	}
	return sess, true
}

// Touch refreshes a session's idle timer, called whenever it is mutated.
func (s *TweakSessionStore) Touch(generationID, masterAccountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.m[sessionKey(generationID, masterAccountID)]; ok {
		sess.lastTouched = time.Now()
	}
}

// Delete removes a session, used on apply or cancel.
func (s *TweakSessionStore) Delete(generationID, masterAccountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sessionKey(generationID, masterAccountID))
}

// ReapExpired deletes every session whose idle TTL has passed and
// returns the count removed.
func (s *TweakSessionStore) ReapExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, sess := range s.m {
		if now.Sub(sess.lastTouched) > s.ttl {
			delete(s.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of live sessions, used for diagnostics.
func (s *TweakSessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
