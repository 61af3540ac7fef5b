// Package advisor produces advisory price, product and site scores from the catalog.
// Results are memoized by a SHA-256 hash of every input that affects them, so a
// changed catalog can never be answered from a stale entry.
package advisor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

const maxCacheEntries = 1024

type Advisor struct {
	mu    sync.Mutex
	price map[string]*PriceAnalysis
	site  map[string]*SiteReport
}

func New() *Advisor {
	return &Advisor{
		price: make(map[string]*PriceAnalysis),
		site:  make(map[string]*SiteReport),
	}
}

// ClearCache drops every memoized result.
func (a *Advisor) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.price)
	clear(a.site)
}

func contentKey(parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		// Encoding plain structs, maps and slices of them cannot fail.
		_ = enc.Encode(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func lookup[V any](a *Advisor, cache map[string]*V, key string, compute func() *V) *V {
	a.mu.Lock()
	if v, ok := cache[key]; ok {
		a.mu.Unlock()
		return v
	}
	a.mu.Unlock()

	v := compute()

	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := cache[key]; ok {
		return existing
	}
	if len(cache) >= maxCacheEntries {
		clear(cache)
	}
	cache[key] = v
	return v
}
