package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/logging"
)

// Cache stores model replies by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Cached serves repeated requests from a Cache. Cache failures are logged
// and never fail the call.
type Cached struct {
	next     Generator
	cache    Cache
	model    string
	log      *zap.Logger
	onLookup func(hit bool)
}

func NewCached(next Generator, cache Cache, model string, log *zap.Logger, onLookup func(hit bool)) *Cached {
	if onLookup == nil {
		onLookup = func(bool) {}
	}
	return &Cached{next: next, cache: cache, model: model, log: logging.OrNop(log), onLookup: onLookup}
}

func (c *Cached) Generate(ctx context.Context, req Request) (string, error) {
	key := CacheKey(c.model, req)
	if v, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn("llm cache get failed", zap.Error(err))
	} else if ok {
		c.onLookup(true)
		return v, nil
	}
	c.onLookup(false)

	out, err := c.next.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if out != "" {
		if err := c.cache.Set(ctx, key, out); err != nil {
			c.log.Warn("llm cache set failed", zap.Error(err))
		}
	}
	return out, nil
}

// CacheKey derives a stable key from everything that influences the reply.
func CacheKey(model string, req Request) string {
	h := sha256.New()
	for _, part := range []string{
		model,
		req.Instruction,
		strconv.FormatFloat(req.Temperature, 'g', -1, 64),
		strconv.FormatFloat(req.TopP, 'g', -1, 64),
		strconv.FormatInt(req.MaxOutputTokens, 10),
		req.Text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "readease:llm:" + hex.EncodeToString(h.Sum(nil))
}
