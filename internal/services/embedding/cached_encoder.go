// File: internal/services/embedding/cached_encoder.go
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// CachedEncoder consults a Cache before delegating to the wrapped encoder.
// Cache failures are logged and treated as misses.
type CachedEncoder struct {
	inner  Encoder
	cache  Cache
	prefix string
	logger Logger
}

func NewCachedEncoder(inner Encoder, cache Cache, prefix string, logger Logger) *CachedEncoder {
	if prefix == "" {
		prefix = DefaultConfig().CacheKeyPrefix
	}
	return &CachedEncoder{inner: inner, cache: cache, prefix: prefix, logger: logger}
}

func (c *CachedEncoder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + ":" + c.inner.ModelID() + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEncoder) ModelID() string {
	return c.inner.ModelID()
}

func (c *CachedEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
	} else if ok {
		return vec, nil
	}

	vec, err := c.inner.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, vec); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}
	return vec, nil
}

// EncodeBatch serves hits from the cache and sends only misses to the
// wrapped encoder, in one batch.
func (c *CachedEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		vec, ok, err := c.cache.Get(ctx, c.key(text))
		if err != nil {
			c.logger.Warn("embedding cache read failed", "error", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.EncodeBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, NewError(ErrTypeDimension, "encode_batch", "encoder returned wrong number of vectors", nil)
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		if err := c.cache.Set(ctx, c.key(texts[i]), vectors[j]); err != nil {
			c.logger.Warn("embedding cache write failed", "error", err)
		}
	}
	return out, nil
}

func (c *CachedEncoder) Close() error {
	return c.inner.Close()
}
