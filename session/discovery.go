package session

import (
	"context"
	"sync"
	"time"

	"github.com/sachinacharyaa/popChain/metrics"
	"github.com/sachinacharyaa/popChain/types"
)

// Providers are not guaranteed to be reachable the moment the gateway comes
// up, so the startup sweep retries on a short bounded schedule and then
// stops.
var sweepSchedule = []time.Duration{
	0,
	100 * time.Millisecond,
	500 * time.Millisecond,
	1000 * time.Millisecond,
}

// Registry probes the configured provider endpoints and keeps the set of
// descriptors that answered the most recent sweep.
type Registry struct {
	dial         DialFunc
	probeTimeout time.Duration
	candidates   []types.ProviderDescriptor

	lk    sync.Mutex
	alive map[string]types.ProviderDescriptor
}

func NewRegistry(candidates []types.ProviderDescriptor, probeTimeout time.Duration, dial DialFunc) *Registry {
	return &Registry{
		dial:         dial,
		probeTimeout: probeTimeout,
		candidates:   candidates,
		alive:        make(map[string]types.ProviderDescriptor),
	}
}

// Discover probes every candidate endpoint and returns the descriptors that
// answered, in candidate order. It has no side effects beyond refreshing the
// registry's view and is safe to call repeatedly.
func (r *Registry) Discover(ctx context.Context) []types.ProviderDescriptor {
	found := make([]*types.ProviderDescriptor, len(r.candidates))

	var wg sync.WaitGroup
	for i, candidate := range r.candidates {
		wg.Add(1)
		go func(i int, candidate types.ProviderDescriptor) {
			defer wg.Done()
			desc, err := r.probe(ctx, candidate)
			if err != nil {
				log.Debugf("provider %s not reachable at %s: %s", candidate.Name, candidate.URL, err)
				return
			}
			found[i] = desc
		}(i, candidate)
	}
	wg.Wait()

	out := make([]types.ProviderDescriptor, 0, len(found))
	alive := make(map[string]types.ProviderDescriptor)
	for _, desc := range found {
		if desc == nil {
			continue
		}
		out = append(out, *desc)
		alive[desc.Name] = *desc
	}

	r.lk.Lock()
	r.alive = alive
	r.lk.Unlock()

	metrics.ProviderDiscovered.Set(ctx, int64(len(out)))
	return out
}

func (r *Registry) probe(ctx context.Context, candidate types.ProviderDescriptor) (*types.ProviderDescriptor, error) {
	pctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	api, closer, err := r.dial(pctx, candidate)
	if err != nil {
		return nil, err
	}
	defer closer()

	remote, err := api.Describe(pctx)
	if err != nil {
		return nil, err
	}

	// the provider's self-declared identity wins, the endpoint stays ours
	desc := candidate
	if remote.Name != "" {
		desc.Name = remote.Name
	}
	if remote.Icon != "" {
		desc.Icon = remote.Icon
	}
	return &desc, nil
}

// Sweep runs the discovery schedule relative to now, then returns.
func (r *Registry) Sweep(ctx context.Context) {
	start := time.Now()
	for _, offset := range sweepSchedule {
		if wait := offset - time.Since(start); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}
		found := r.Discover(ctx)
		log.Infof("discovery sweep at +%s found %d providers", offset, len(found))
	}
}

// Lookup returns the discovered descriptor with the given name.
func (r *Registry) Lookup(name string) (types.ProviderDescriptor, bool) {
	r.lk.Lock()
	defer r.lk.Unlock()

	desc, ok := r.alive[name]
	return desc, ok
}
