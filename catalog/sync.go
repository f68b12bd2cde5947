package catalog

import (
	"context"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/sdr-catalog/confdb"
	"github.com/signalsfoundry/sdr-catalog/internal/logging"
	"github.com/signalsfoundry/sdr-catalog/model"
)

const tracerName = "github.com/signalsfoundry/sdr-catalog/catalog"

// Sync reconciles every persistable collection back into its backing
// context and flushes the store. Reconciliation is best effort: a single
// record's failure is skipped, never aborting the pass. Only a store-level
// flush failure is returned.
func (c *Catalog) Sync(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "catalog.sync")
	defer span.End()
	start := time.Now()

	c.mu.Lock()
	c.syncRecentLocked(ctx)
	c.syncUILocked(ctx)
	c.syncBookmarksLocked(ctx)
	c.syncLocationsLocked(ctx)
	c.syncTLESourcesLocked(ctx)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveSyncDuration(time.Since(start).Seconds())
	}
	return c.store.Flush()
}

func (c *Catalog) syncContext(ctx context.Context, name string) *confdb.Context {
	cc, err := c.store.Context(name)
	if err != nil {
		c.log.Warn(ctx, "skipping collection sync",
			logging.String("context", name),
			logging.Any("error", err))
		return nil
	}
	return cc
}

func (c *Catalog) recordSync(collection, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordSyncOutcome(collection, outcome)
	}
}

// Full rewrite: the recent list carries no positional semantics.
func (c *Catalog) syncRecentLocked(ctx context.Context) {
	cc := c.syncContext(ctx, ctxRecent)
	if cc == nil {
		return
	}
	cc.Clear()
	for _, label := range c.recent {
		cc.Append(confdb.MakeField(label))
		c.recordSync(ctxRecent, "written")
	}
}

// Positional reconciliation: only modified entries are written, in place.
func (c *Catalog) syncUILocked(ctx context.Context) {
	cc := c.syncContext(ctx, ctxUIConfig)
	if cc == nil {
		return
	}
	for i, e := range c.uiConfig {
		if e.borrowed {
			continue
		}
		if err := cc.Put(e.obj, i); err != nil {
			cc.Append(e.obj)
		}
		c.recordSync(ctxUIConfig, "written")
	}
}

// Positional reconciliation. Unsaved bookmarks are appended and the
// assigned position reported back immediately, so a second sync issues an
// in-place put instead of a duplicate append.
func (c *Catalog) syncBookmarksLocked(ctx context.Context) {
	cc := c.syncContext(ctx, ctxBookmarks)
	if cc == nil {
		return
	}
	for _, freq := range slices.Sorted(maps.Keys(c.bookmarks)) {
		bm := c.bookmarks[freq]
		pos, assigned := bm.Slot.Pos()
		if assigned && !bm.Dirty {
			continue
		}

		obj, err := encodeBookmark(bm.Info)
		if err != nil {
			c.log.Debug(ctx, "skipping unsyncable bookmark",
				logging.Int64("frequency", freq),
				logging.Any("error", err))
			c.recordSync(ctxBookmarks, "skipped")
			continue
		}

		if !assigned {
			bm.Slot = model.SlotAt(cc.Append(obj))
		} else if err := cc.Put(obj, pos); err != nil {
			// The slot vanished (an earlier positional delete shifted
			// the context); append and rebind.
			bm.Slot = model.SlotAt(cc.Append(obj))
		}
		c.recordSync(ctxBookmarks, "written")
	}
}

// Full rewrite of the user layer; system entries are never written back.
func (c *Catalog) syncLocationsLocked(ctx context.Context) {
	cc := c.syncContext(ctx, ctxUserLocations)
	if cc != nil {
		cc.Clear()
		for _, name := range slices.Sorted(maps.Keys(c.locations)) {
			entry := c.locations[name]
			if !entry.User() {
				continue
			}
			obj, err := encodeLocation(entry.Value)
			if err != nil {
				c.log.Debug(ctx, "skipping unsyncable location",
					logging.String("name", name),
					logging.Any("error", err))
				c.recordSync(ctxUserLocations, "skipped")
				continue
			}
			cc.Append(obj)
			c.recordSync(ctxUserLocations, "written")
		}
	}

	// QTH is a single-slot rewrite.
	qc := c.syncContext(ctx, ctxQTH)
	if qc == nil {
		return
	}
	qc.Clear()
	if c.qth != nil {
		if obj, err := encodeLocation(*c.qth); err == nil {
			qc.Append(obj)
		}
	}
}

// Full rewrite of the user layer.
func (c *Catalog) syncTLESourcesLocked(ctx context.Context) {
	cc := c.syncContext(ctx, ctxUserTLE)
	if cc == nil {
		return
	}
	cc.Clear()
	for _, name := range slices.Sorted(maps.Keys(c.tleSources)) {
		entry := c.tleSources[name]
		if !entry.User() {
			continue
		}
		obj, err := encodeTLESource(entry.Value)
		if err != nil {
			c.recordSync(ctxUserTLE, "skipped")
			continue
		}
		cc.Append(obj)
		c.recordSync(ctxUserTLE, "written")
	}
}
