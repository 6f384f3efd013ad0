// Package discovery resolves toolkit whitelists into a normalized tool
// catalog by trying client adapters in a fixed priority order.
package discovery

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/golovatskygroup/toolbridge/internal/cache"
	"github.com/golovatskygroup/toolbridge/internal/catalog"
)

// ToolSource is one way of listing a toolkit's tools. Sources are
// stateless beyond connection config and are held for the lifetime of
// one workflow run.
type ToolSource interface {
	Name() string
	ListTools(ctx context.Context, toolkit string) ([]any, error)
}

// Resolver walks an ordered set of sources per toolkit and produces a
// deduplicated catalog, consulting a file cache before any network call.
type Resolver struct {
	sources     []ToolSource
	cachePath   string
	cacheTTL    time.Duration
	callTimeout time.Duration
	norm        *catalog.Normalizer
	log         zerolog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithCache points the resolver at a cache file with the given TTL.
// An empty path disables caching.
func WithCache(path string, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cachePath = path
		r.cacheTTL = ttl
	}
}

// WithCallTimeout bounds each source invocation. Zero leaves calls
// unbounded, matching the historical behavior.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.callTimeout = d
	}
}

// WithLogger sets the resolver's logger. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
		r.norm = catalog.NewNormalizer(log)
	}
}

// NewResolver builds a Resolver over sources in priority order.
func NewResolver(sources []ToolSource, opts ...Option) *Resolver {
	r := &Resolver{
		sources: sources,
		log:     zerolog.Nop(),
	}
	r.norm = catalog.NewNormalizer(r.log)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CacheKey derives the batch-level cache key: the sorted, comma-joined
// toolkit set. The whole entry is keyed on the batch, so changing the
// requested set invalidates it even when most toolkits overlap.
func CacheKey(toolkits []string) string {
	sorted := append([]string(nil), toolkits...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Resolve returns the normalized, deduplicated catalog for the given
// toolkits. A cache hit skips all network activity. On a miss every
// toolkit is resolved through the sources in order; the first source
// returning a non-empty result wins, an error-free empty result is
// inconclusive unless the source was the last, and a source error is
// logged and skipped. A single failing source never aborts discovery.
func (r *Resolver) Resolve(ctx context.Context, toolkits []string) []catalog.Record {
	key := CacheKey(toolkits)

	if r.cachePath != "" {
		var cached []catalog.Record
		// An empty cached catalog counts as a miss: a run during an
		// outage must not pin emptiness on later runs for a full TTL.
		if cache.Load(r.cachePath, key, r.cacheTTL, &cached) && len(cached) > 0 {
			r.log.Info().Int("tools", len(cached)).Msg("loaded tool catalog from cache")
			return cached
		}
	}

	var records []catalog.Record
	for _, toolkit := range toolkits {
		records = append(records, r.resolveToolkit(ctx, toolkit)...)
	}
	records = catalog.Dedup(records)

	if r.cachePath != "" {
		if err := cache.Save(r.cachePath, key, records); err != nil {
			r.log.Debug().Err(err).Msg("failed to save tool catalog cache")
		} else {
			r.log.Info().Int("tools", len(records)).Msg("saved tool catalog to cache")
		}
	}
	return records
}

func (r *Resolver) resolveToolkit(ctx context.Context, toolkit string) []catalog.Record {
	r.log.Info().Str("toolkit", toolkit).Msg("fetching tools for toolkit")

	for i, src := range r.sources {
		items, err := r.listTools(ctx, src, toolkit)
		if err != nil {
			r.log.Debug().Err(err).
				Str("source", src.Name()).
				Str("toolkit", toolkit).
				Msg("tool source failed")
			continue
		}
		last := i == len(r.sources)-1
		if len(items) == 0 && !last {
			// Inconclusive: the source answered but saw nothing.
			continue
		}
		return r.norm.NormalizeAll(toolkit, items)
	}
	return nil
}

func (r *Resolver) listTools(ctx context.Context, src ToolSource, toolkit string) ([]any, error) {
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}
	return src.ListTools(ctx, toolkit)
}
