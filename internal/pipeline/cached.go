package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"arc-tracer/internal/arc"
	"arc-tracer/internal/cache"
	"arc-tracer/internal/observability"

	"github.com/pkg/errors"
)

// CachedRunner memoizes a Runner by image digest and parameters. Runs are
// pure, so a hit is equivalent to re-running. Only successful runs are
// stored; cache failures fall through to the wrapped runner.
type CachedRunner struct {
	next   Runner
	client cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

var _ Runner = (*CachedRunner)(nil)

// NewCachedRunner wraps next with client.
func NewCachedRunner(next Runner, client cache.Client, ttl time.Duration, logger *observability.Logger) *CachedRunner {
	if logger == nil {
		logger = observability.Nop()
	}
	return &CachedRunner{next: next, client: client, ttl: ttl, logger: logger}
}

// Run returns the cached instructions for data and params, or computes and
// stores them.
func (c *CachedRunner) Run(ctx context.Context, data []byte, params Params) ([]arc.Instruction, error) {
	cfg, err := params.resolve()
	if err != nil {
		return nil, err
	}

	key := cacheKey(data, cfg)
	log := c.logger.WithContext(ctx).WithOperation("cache")

	if raw, err := c.client.Get(ctx, key); err == nil {
		var ins []arc.Instruction
		if err := json.Unmarshal(raw, &ins); err == nil {
			log.Debug().Str("key", key).Int("instructions", len(ins)).Msg("cache hit")
			return ins, nil
		}
		log.Warn().Str("key", key).Msg("discarding corrupt cache entry")
		_ = c.client.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Msg("cache read failed")
	}

	ins, err := c.next.Run(ctx, data, params)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(ins)
	if err == nil {
		err = c.client.Set(ctx, key, raw, c.ttl)
	}
	if err != nil {
		log.Warn().Err(err).Msg("cache write failed")
	}
	return ins, nil
}

// cacheKey derives the cache key of a run from the image digest and the
// canonical form of its parameters.
func cacheKey(data []byte, r resolved) string {
	img := sha256.Sum256(data)
	p := sha256.Sum256([]byte(r.canonical()))
	return cache.Key("run", hex.EncodeToString(img[:]), hex.EncodeToString(p[:8]))
}
