package interaction

import (
	"crypto/rand"
	"sync"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const tokenLength = 8

// TokenBimap aliases a tweak session key with a random 8-char token so
// callback-data referencing it stays under the platform's 64-byte limit.
type TokenBimap struct {
	mu         sync.Mutex
	tokenToKey map[string]string
	keyToToken map[string]string
	tokenToGen map[string]string
}

// NewTokenBimap builds an empty bimap.
func NewTokenBimap() *TokenBimap {
	return &TokenBimap{
		tokenToKey: make(map[string]string),
		keyToToken: make(map[string]string),
		tokenToGen: make(map[string]string),
	}
}

// TokenFor returns the existing token for key, minting a fresh one on
// first use so repeated tweak-menu renders reuse the same token.
func (b *TokenBimap) TokenFor(generationID, masterAccountID string) (string, error) {
	key := sessionKey(generationID, masterAccountID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if tok, ok := b.keyToToken[key]; ok {
		return tok, nil
	}

	for {
		tok, err := randomToken()
		if err != nil {
			return "", err
		}
		if _, collision := b.tokenToKey[tok]; collision {
			continue
		}
		b.tokenToKey[tok] = key
		b.keyToToken[key] = tok
		b.tokenToGen[tok] = generationID
		return tok, nil
	}
}

// Resolve returns the sessionKey a token was minted for.
func (b *TokenBimap) Resolve(token string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key, ok := b.tokenToKey[token]
	return key, ok
}

// ResolveGenerationID returns just the generationId half of the session a
// token was minted for. Handlers pair it with the caller's own
// masterAccountId (already authenticated by C1 on the inbound event)
// instead of splitting the composite sessionKey back apart.
func (b *TokenBimap) ResolveGenerationID(token string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	gen, ok := b.tokenToGen[token]
	return gen, ok
}

// Release drops the token<->key mapping, called alongside session
// deletion on apply or cancel.
func (b *TokenBimap) Release(generationID, masterAccountID string) {
	key := sessionKey(generationID, masterAccountID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if tok, ok := b.keyToToken[key]; ok {
		delete(b.tokenToKey, tok)
		delete(b.keyToToken, key)
		delete(b.tokenToGen, tok)
	}
}

func randomToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, tokenLength)
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out), nil
}
