package datastore

import (
	"context"
	"fmt"
)

// StoreFactory opens stores from the registry.
type StoreFactory interface {
	// Open connects to the datastore described by cfg.
	Open(ctx context.Context, cfg Config) (Store, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []AdapterInfo
}

type registryFactory struct{}

// NewStoreFactory returns a factory that uses the global registry.
func NewStoreFactory() StoreFactory {
	return &registryFactory{}
}

func (f *registryFactory) Open(ctx context.Context, cfg Config) (Store, error) {
	storeType := cfg.Type
	if storeType == "" {
		t, err := ResolveType(cfg.Address)
		if err != nil {
			return nil, err
		}
		storeType = t
	}

	factory := GetFactory(storeType)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datastore type: %s (not compiled in)", storeType)
	}
	return factory(ctx, cfg)
}

func (f *registryFactory) ListTypes() []AdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements StoreFactory at compile time.
var _ StoreFactory = (*registryFactory)(nil)
