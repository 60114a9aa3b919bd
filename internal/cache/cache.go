package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte-payload cache with per-entry TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// VectorKey derives the cache key for one embedded text. The provider, model
// and dimensionality are part of the key: a truncated, renormalized vector is
// only valid under the exact contract that produced it.
func VectorKey(provider, model string, dim int, text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("katharsis:v1:%s:%s:%d:%s", provider, model, dim, hex.EncodeToString(hash[:]))
}

// Vectors wraps a Cache with embedding-vector encoding.
type Vectors struct {
	cache Cache
	ttl   time.Duration
}

// NewVectors creates a vector cache over the given backing cache.
func NewVectors(c Cache, ttl time.Duration) *Vectors {
	return &Vectors{cache: c, ttl: ttl}
}

// Get returns the cached vector for key, or nil when absent or corrupt.
func (v *Vectors) Get(key string) []float32 {
	data, ok := v.cache.Get(key)
	if !ok {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		_ = v.cache.Delete(key)
		return nil
	}
	return vec
}

// Set stores a vector under key.
func (v *Vectors) Set(key string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	return v.cache.Set(key, data, v.ttl)
}
