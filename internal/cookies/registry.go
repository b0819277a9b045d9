package cookies

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/elsanchez/vidqueue/internal/repository"
)

// Registry caches the cookie file of each platform's active account.
// CookieFile is safe to call from any goroutine.
type Registry struct {
	accounts repository.AccountRepository

	mu    sync.RWMutex
	files map[string]registryEntry
}

type registryEntry struct {
	accountID int64
	path      string
}

// NewRegistry creates an empty registry; call Reload to populate it
func NewRegistry(accounts repository.AccountRepository) *Registry {
	return &Registry{accounts: accounts, files: map[string]registryEntry{}}
}

// Reload replaces the cache with the active accounts in the store
func (r *Registry) Reload(ctx context.Context) error {
	active, err := r.accounts.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active accounts: %w", err)
	}

	files := make(map[string]registryEntry, len(active))
	for _, acc := range active {
		files[acc.Platform] = registryEntry{accountID: acc.ID, path: acc.CookiePath}
	}

	r.mu.Lock()
	r.files = files
	r.mu.Unlock()
	return nil
}

// CookieFile returns the active account's file when it still exists on disk
func (r *Registry) CookieFile(platform string) (string, bool) {
	r.mu.RLock()
	entry, ok := r.files[platform]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	if _, err := os.Stat(entry.path); err != nil {
		return "", false
	}
	return entry.path, true
}

// MarkUsed records that platform's active account was handed to yt-dlp
func (r *Registry) MarkUsed(ctx context.Context, platform string) error {
	r.mu.RLock()
	entry, ok := r.files[platform]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return r.accounts.UpdateLastUsed(ctx, entry.accountID)
}

// Len returns how many platforms have an active account
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}
