// Package toolregistry resolves ToolDefinition values (§3) from the tool
// registry collaborator: a sibling internal service, not part of the
// documented data-API surface (§6), that owns canonical tool ids, input
// schemas and delivery modes. Display-name lookup is the stable handle
// across tool-id migrations (§3) so every derived-generation path
// resolves by display name, never by id.
package toolregistry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

const serviceKeyHeader = "X-Internal-Client-Key"

// cacheTTL bounds how long a resolved ToolDefinition is trusted before a
// fresh lookup is made, so a registry-side schema edit is picked up
// without a process restart.
const cacheTTL = 5 * time.Minute

// Registry resolves tool definitions by canonical id or display name.
type Registry interface {
	ByID(ctx context.Context, toolID string) (*protocol.ToolDefinition, error)
	ByDisplayName(ctx context.Context, displayName string) (*protocol.ToolDefinition, error)
	List(ctx context.Context) ([]protocol.ToolDefinition, error)
}

type cacheEntry struct {
	def       protocol.ToolDefinition
	expiresAt time.Time
}

// HTTPRegistry is an HTTP-backed Registry, built the same way as
// internal/dataapi.Client: service-key header, JSON in/out, logged.
type HTTPRegistry struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *slog.Logger

	mu        sync.RWMutex
	byID      map[string]cacheEntry
	byDisplay map[string]cacheEntry
}

// NewHTTPRegistry builds a Registry against the tool-definition service
// at baseURL.
func NewHTTPRegistry(baseURL, serviceKey string, timeout time.Duration, log *slog.Logger) *HTTPRegistry {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &HTTPRegistry{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		byID:       make(map[string]cacheEntry),
		byDisplay:  make(map[string]cacheEntry),
	}
}

// ByID resolves a tool by its canonical id, consulting the cache first.
func (r *HTTPRegistry) ByID(ctx context.Context, toolID string) (*protocol.ToolDefinition, error) {
	r.mu.RLock()
	if e, ok := r.byID[toolID]; ok && time.Now().Before(e.expiresAt) {
		r.mu.RUnlock()
		def := e.def
		return &def, nil
	}
	r.mu.RUnlock()

	var def protocol.ToolDefinition
	if err := r.get(ctx, "/internal/v1/tools/by-id/"+url.PathEscape(toolID), &def); err != nil {
		return nil, fmt.Errorf("toolregistry: by id %q: %w", toolID, err)
	}
	r.store(def)
	return &def, nil
}

// ByDisplayName resolves a tool by its user-facing label, the stable
// handle used by the tweak and rerun paths (§3).
func (r *HTTPRegistry) ByDisplayName(ctx context.Context, displayName string) (*protocol.ToolDefinition, error) {
	r.mu.RLock()
	if e, ok := r.byDisplay[displayName]; ok && time.Now().Before(e.expiresAt) {
		r.mu.RUnlock()
		def := e.def
		return &def, nil
	}
	r.mu.RUnlock()

	var def protocol.ToolDefinition
	if err := r.get(ctx, "/internal/v1/tools/by-display-name/"+url.PathEscape(displayName), &def); err != nil {
		return nil, fmt.Errorf("toolregistry: by display name %q: %w", displayName, err)
	}
	r.store(def)
	return &def, nil
}

// List returns every registered tool, used by the settings menu's "All
// Tools" page (§4.3).
func (r *HTTPRegistry) List(ctx context.Context) ([]protocol.ToolDefinition, error) {
	var defs []protocol.ToolDefinition
	if err := r.get(ctx, "/internal/v1/tools", &defs); err != nil {
		return nil, fmt.Errorf("toolregistry: list: %w", err)
	}
	for _, d := range defs {
		r.store(d)
	}
	return defs, nil
}

func (r *HTTPRegistry) store(def protocol.ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := cacheEntry{def: def, expiresAt: time.Now().Add(cacheTTL)}
	r.byID[def.ToolID] = entry
	r.byDisplay[def.DisplayName] = entry
}

func (r *HTTPRegistry) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(serviceKeyHeader, r.serviceKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return decodeJSON(resp, out)
}
