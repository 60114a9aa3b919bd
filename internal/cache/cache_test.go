package cache

import (
	"testing"
	"time"
)

func TestVectorKeyDistinguishesContract(t *testing.T) {
	base := VectorKey("openai", "small", 256, "some text")
	if base == VectorKey("ollama", "small", 256, "some text") {
		t.Error("provider not part of the key")
	}
	if base == VectorKey("openai", "large", 256, "some text") {
		t.Error("model not part of the key")
	}
	if base == VectorKey("openai", "small", 128, "some text") {
		t.Error("dimensionality not part of the key")
	}
	if base == VectorKey("openai", "small", 256, "other text") {
		t.Error("text not part of the key")
	}
	if base != VectorKey("openai", "small", 256, "some text") {
		t.Error("identical contract produced different keys")
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("got %q/%v", got, ok)
	}
	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived delete")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	if err := c.Set("katharsis:v1:test:key", []byte("payload"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get("katharsis:v1:test:key")
	if !ok || string(got) != "payload" {
		t.Fatalf("got %q/%v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("hit on missing key")
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("katharsis:v1:test:key"); ok {
		t.Error("entry survived clear")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry served")
	}
}

func TestLayeredCachePromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	// Seed the disk layer directly, then read through a fresh layered cache.
	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Minute)
	got, ok := layered.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("got %q/%v", got, ok)
	}
}

func TestVectorsRoundTrip(t *testing.T) {
	v := NewVectors(NewMemoryCache(time.Minute, time.Minute), time.Minute)
	key := VectorKey("hash", "", 3, "text")
	if err := v.Set(key, []float32{0.1, 0.2, 0.3}); err != nil {
		t.Fatal(err)
	}
	got := v.Get(key)
	if len(got) != 3 || got[1] != 0.2 {
		t.Fatalf("got %v", got)
	}
	if v.Get(VectorKey("hash", "", 3, "other")) != nil {
		t.Error("hit on missing key")
	}
}

func TestVectorsCorruptEntryDropped(t *testing.T) {
	mem := NewMemoryCache(time.Minute, time.Minute)
	v := NewVectors(mem, time.Minute)
	key := VectorKey("hash", "", 3, "text")
	if err := mem.Set(key, []byte("not json"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if got := v.Get(key); got != nil {
		t.Fatalf("corrupt entry decoded to %v", got)
	}
	if _, ok := mem.Get(key); ok {
		t.Error("corrupt entry not evicted")
	}
}
