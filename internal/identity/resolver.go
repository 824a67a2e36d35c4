// Package identity resolves a platform-specific user id to a stable
// internal masterAccountId, caching the mapping per process so repeated
// button presses within the same interaction don't each round-trip to
// the data API (C1).
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// maxCachedIdentities caps the resolver's cache to bound memory under a
// rotating or spoofed stream of platform ids, mirroring the bounded-map
// pattern used for rate limiting elsewhere in this codebase.
const maxCachedIdentities = 16384

// Resolver maps (platform, platformId) to masterAccountId.
type Resolver struct {
	client *dataapi.Client

	mu    sync.RWMutex
	cache map[string]string
}

// New builds a Resolver backed by client.
func New(client *dataapi.Client) *Resolver {
	return &Resolver{
		client: client,
		cache:  make(map[string]string),
	}
}

func cacheKey(platform, platformID string) string {
	return platform + ":" + platformID
}

// Resolve returns the masterAccountId for (platform, platformId),
// creating the account on first sight via the data API. Resolution is
// idempotent: two calls for the same pair within this process return the
// same value without a second network round trip (invariant #1).
func (r *Resolver) Resolve(ctx context.Context, platform, platformID string, platformCtx *protocol.PlatformContext) (string, error) {
	key := cacheKey(platform, platformID)

	r.mu.RLock()
	if maid, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return maid, nil
	}
	r.mu.RUnlock()

	resp, err := r.client.FindOrCreateUser(ctx, dataapi.FindOrCreateRequest{
		Platform:        platform,
		PlatformID:      platformID,
		PlatformContext: platformCtx,
	})
	if err != nil {
		return "", fmt.Errorf("identity: resolve %s/%s: %w", platform, platformID, err)
	}

	r.mu.Lock()
	if len(r.cache) >= maxCachedIdentities {
		for k := range r.cache {
			delete(r.cache, k)
			break
		}
	}
	r.cache[key] = resp.MasterAccountID
	r.mu.Unlock()

	return resp.MasterAccountID, nil
}

// Forget drops a cached mapping, used after a platform-link merge
// invalidates the previously resolved masterAccountId.
func (r *Resolver) Forget(platform, platformID string) {
	r.mu.Lock()
	delete(r.cache, cacheKey(platform, platformID))
	r.mu.Unlock()
}
