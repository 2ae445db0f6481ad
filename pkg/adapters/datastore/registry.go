package datastore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// AdapterInfo describes a registered adapter.
type AdapterInfo struct {
	Type        string   `json:"type"`         // "postgres", "sqlserver", "rest"
	DisplayName string   `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string   `json:"description"`
	Schemes     []string `json:"schemes"` // address schemes routed to this adapter
}

// AdapterRegistration contains info and the factory for opening stores.
type AdapterRegistration struct {
	Info    AdapterInfo
	Factory func(ctx context.Context, cfg Config) (Store, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the factory for a store type.
// Returns nil if type is not registered.
func GetFactory(storeType string) func(ctx context.Context, cfg Config) (Store, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[storeType]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(storeType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[storeType]
	return ok
}

// ResolveType maps an address to the adapter registered for its scheme.
func ResolveType(address string) (string, error) {
	scheme := addressScheme(address)
	if scheme == "" {
		return "", fmt.Errorf("datastore address has no scheme")
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, reg := range registry {
		for _, s := range reg.Info.Schemes {
			if s == scheme {
				return reg.Info.Type, nil
			}
		}
	}
	return "", fmt.Errorf("no datastore adapter for scheme %q (not compiled in)", scheme)
}

func addressScheme(address string) string {
	address = strings.TrimSpace(address)
	if u, err := url.Parse(address); err == nil && u.Scheme != "" {
		return strings.ToLower(u.Scheme)
	}
	if i := strings.Index(address, ":"); i > 0 {
		return strings.ToLower(address[:i])
	}
	return ""
}
