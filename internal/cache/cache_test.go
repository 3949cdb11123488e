package cache

import (
	"testing"
	"time"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "value" {
		t.Fatalf("Get = %q, %v; want value, true", got, ok)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatal("expected expired entry to miss")
	}

	if err := c.Set("forever", []byte("y"), NoExpiry); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := c.Get("forever"); !ok {
		t.Fatal("expected NoExpiry entry to survive")
	}
}

func TestLayeredCachePromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set(URLKey("https://example.org"), []byte("page"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	layered := NewLayeredCache(dir, time.Hour)
	got, ok := layered.Get(URLKey("https://example.org"))
	if !ok || string(got) != "page" {
		t.Fatalf("Get = %q, %v; want page, true", got, ok)
	}
	if _, ok := layered.memory.Get(URLKey("https://example.org")); !ok {
		t.Fatal("expected disk hit to be promoted into memory")
	}
}

func TestURLKeyStable(t *testing.T) {
	a := URLKey("https://example.org/a")
	b := URLKey("https://example.org/a")
	if a != b {
		t.Fatalf("URLKey not stable: %q vs %q", a, b)
	}
	if a == URLKey("https://example.org/b") {
		t.Fatal("distinct URLs should have distinct keys")
	}
}
