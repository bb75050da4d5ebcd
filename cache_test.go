package spacetraveling

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPostCacheServesFromMemory(t *testing.T) {
	src := &fakeSource{}
	src.put(postDoc(t, "a", "A", map[string][]string{"h": {"x"}}, "h"))
	c := NewPostCache(src, time.Minute, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Props(ctx, "a"); err != nil {
			t.Fatalf("Props failed: %v", err)
		}
		if _, err := c.Paths(ctx); err != nil {
			t.Fatalf("Paths failed: %v", err)
		}
	}
	if got := src.lookupCount(); got != 1 {
		t.Errorf("lookups = %d, want 1", got)
	}
	if len(src.queries) != 1 {
		t.Errorf("queries = %d, want 1", len(src.queries))
	}
}

func TestPostCacheInvalidate(t *testing.T) {
	src := &fakeSource{}
	src.put(postDoc(t, "a", "Antes", map[string][]string{"h": {"x"}}, "h"))
	c := NewPostCache(src, time.Minute, false)
	ctx := context.Background()

	if _, err := c.Props(ctx, "a"); err != nil {
		t.Fatalf("Props failed: %v", err)
	}
	src.put(postDoc(t, "a", "Depois", map[string][]string{"h": {"x"}}, "h"))
	src.put(postDoc(t, "b", "Novo", map[string][]string{"h": {"x"}}, "h"))

	stale, _ := c.Props(ctx, "a")
	if stale.Post.Data.Title != "Antes" {
		t.Fatalf("expected cached title before invalidation, got %q", stale.Post.Data.Title)
	}

	c.Invalidate()
	fresh, err := c.Props(ctx, "a")
	if err != nil {
		t.Fatalf("Props failed: %v", err)
	}
	if fresh.Post.Data.Title != "Depois" {
		t.Errorf("Title = %q, want Depois", fresh.Post.Data.Title)
	}
	paths, err := c.Paths(ctx)
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if !paths.Contains("b") {
		t.Error("expected refreshed paths to contain b")
	}
}

func TestPostCacheExpires(t *testing.T) {
	src := &fakeSource{}
	src.put(postDoc(t, "a", "A", map[string][]string{"h": {"x"}}, "h"))
	c := NewPostCache(src, 50*time.Millisecond, false)
	ctx := context.Background()

	if _, err := c.Props(ctx, "a"); err != nil {
		t.Fatalf("Props failed: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	if _, err := c.Props(ctx, "a"); err != nil {
		t.Fatalf("Props failed: %v", err)
	}
	if got := src.lookupCount(); got != 2 {
		t.Errorf("lookups = %d, want 2", got)
	}
}

func TestPostCacheDoesNotCacheMisses(t *testing.T) {
	src := &fakeSource{}
	c := NewPostCache(src, time.Minute, true)
	ctx := context.Background()

	if _, err := c.Props(ctx, "tarde"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	src.put(postDoc(t, "tarde", "Tarde", map[string][]string{"h": {"x"}}, "h"))
	props, err := c.Props(ctx, "tarde")
	if err != nil {
		t.Fatalf("Props failed after publish: %v", err)
	}
	if props.Post.UID != "tarde" {
		t.Errorf("UID = %q", props.Post.UID)
	}
}
