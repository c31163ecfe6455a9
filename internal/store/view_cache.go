package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	viewKeyPrefix = "handover:view:"
	genKeyPrefix  = "handover:viewgen:"

	// generationTTL must outlive any view entry so a counter never restarts under a live key.
	generationTTL = 24 * time.Hour
)

// ViewCache stores composed handover views as JSON under
// handover:view:<id>:<generation>. Every write bumps handover:viewgen:<id>, so
// a view built before the write lands under a generation nobody reads again.
// A nil *ViewCache is valid and caches nothing.
type ViewCache struct {
	kv  KV
	ttl time.Duration
}

func NewViewCache(kv KV, ttl time.Duration) *ViewCache {
	return &ViewCache{kv: kv, ttl: ttl}
}

func viewKey(handoverID string, gen int64) string {
	return viewKeyPrefix + handoverID + ":" + strconv.FormatInt(gen, 10)
}

// Generation returns the current view generation; read it before building a view.
func (c *ViewCache) Generation(ctx context.Context, handoverID string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	raw, err := c.kv.Get(ctx, genKeyPrefix+handoverID)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse view generation %s: %w", handoverID, err)
	}
	return gen, nil
}

// Get decodes the view cached for gen into dst; ErrMiss when absent or the cache is off.
func (c *ViewCache) Get(ctx context.Context, handoverID string, gen int64, dst any) error {
	if c == nil {
		return ErrMiss
	}
	raw, err := c.kv.Get(ctx, viewKey(handoverID, gen))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode cached view %s: %w", handoverID, err)
	}
	return nil
}

// Put stores a view built after reading gen.
func (c *ViewCache) Put(ctx context.Context, handoverID string, gen int64, view any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view %s: %w", handoverID, err)
	}
	return c.kv.Set(ctx, viewKey(handoverID, gen), string(b), c.ttl)
}

// Invalidate starts a new generation; every write to a handover or its children calls it.
func (c *ViewCache) Invalidate(ctx context.Context, handoverID string) error {
	if c == nil {
		return nil
	}
	gen, err := c.kv.Incr(ctx, genKeyPrefix+handoverID, generationTTL)
	if err != nil {
		return err
	}
	return c.kv.Del(ctx, viewKey(handoverID, gen-1))
}

// Purge drops every cached view. Run after a schema change so no view in the old shape is served.
func (c *ViewCache) Purge(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	keys, err := c.kv.ScanKeys(ctx, viewKeyPrefix+"*")
	if err != nil {
		return 0, err
	}
	return len(keys), c.kv.Del(ctx, keys...)
}
