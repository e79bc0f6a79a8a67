package adaptor

import (
	"fmt"

	"github.com/Laisky/errors/v2"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/polyrelay/polyrelay/common/config"
)

// Builder constructs an adaptor for one (provider, model) pair.
type Builder func(provider, model string, defaults config.ProviderDefaults) (Adaptor, error)

// Registry caches constructed adaptors keyed by provider, resolved model id
// and defaults fingerprint. Entries are immutable after construction, so
// concurrent reads need no synchronization beyond the cache itself;
// singleflight collapses duplicate concurrent constructions for one key.
type Registry struct {
	cache *gocache.Cache
	group singleflight.Group
	build Builder
}

func NewRegistry(build Builder) *Registry {
	return &Registry{
		cache: gocache.New(gocache.NoExpiration, 0),
		build: build,
	}
}

func registryKey(provider, model string, defaults config.ProviderDefaults) string {
	return fmt.Sprintf("%s|%s|%s", provider, model, defaults.Fingerprint())
}

// Get returns the cached adaptor for the key, constructing it on miss.
func (r *Registry) Get(provider, model string, defaults config.ProviderDefaults) (Adaptor, error) {
	key := registryKey(provider, model, defaults)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(Adaptor), nil
	}

	built, err, _ := r.group.Do(key, func() (any, error) {
		if cached, ok := r.cache.Get(key); ok {
			return cached.(Adaptor), nil
		}
		instance, err := r.build(provider, model, defaults)
		if err != nil {
			return nil, errors.Wrapf(err, "build adaptor for %s/%s", provider, model)
		}
		r.cache.Set(key, instance, gocache.NoExpiration)
		return instance, nil
	})
	if err != nil {
		return nil, err
	}
	return built.(Adaptor), nil
}

// Reset drops every cached adaptor. Tests use this to swap builders.
func (r *Registry) Reset() {
	r.cache.Flush()
}
