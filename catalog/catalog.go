// Package catalog implements the process-wide layered configuration
// catalog: one merged, queryable, mutable view over the collections backed
// by the confdb store, the local TLE directory, and the enumeration
// surfaces of the external signal-processing library.
package catalog

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/signalsfoundry/sdr-catalog/confdb"
	"github.com/signalsfoundry/sdr-catalog/internal/logging"
	"github.com/signalsfoundry/sdr-catalog/model"
	"github.com/signalsfoundry/sdr-catalog/orbit"
	"github.com/signalsfoundry/sdr-catalog/taskctrl"
)

// Backing context names, matching the original configuration database.
const (
	ctxLocations     = "locations"
	ctxUserLocations = "user_locations"
	ctxQTH           = "qth"
	ctxTLE           = "tle"
	ctxUserTLE       = "user_tle"
	ctxPalettes      = "palettes"
	ctxAutoGains     = "autogains"
	ctxFATs          = "frequency_allocations"
	ctxBookmarks     = "bookmarks"
	ctxUIConfig      = "uiconfig"
	ctxRecent        = "recent"
)

// Metrics receives catalog gauge and sync updates. Satisfied by
// observability.CatalogCollector; a nil Metrics disables reporting.
type Metrics interface {
	SetCollectionCounts(bookmarks, locations, tleSources, satellites, profiles int)
	RecordSyncOutcome(collection, outcome string)
	ObserveSyncDuration(seconds float64)
}

// Config assembles a Catalog's collaborators.
type Config struct {
	Store   *confdb.Store
	Library Library // may be nil; subsystem gates then fail
	TLEDir  string  // local TLE directory; empty disables orbit loading
	Workers int     // background task workers, minimum one
	Logger  logging.Logger
	Metrics Metrics
}

type uiEntry struct {
	obj confdb.Object
	// borrowed entries came from the store and were never modified; sync
	// leaves them alone.
	borrowed bool
}

// Catalog is the merged in-memory registry. One instance per process,
// constructed at startup and passed by reference to every consumer.
type Catalog struct {
	mu sync.RWMutex

	store   *confdb.Store
	lib     Library
	log     logging.Logger
	metrics Metrics
	tleDir  string
	tasks   *taskctrl.Controller

	profiles        map[string]model.SourceConfig
	networkProfiles map[string]model.SourceConfig
	devices         []model.Device
	bookmarks       map[int64]*model.Bookmark
	locations       map[string]model.Layered[model.Location]
	tleSources      map[string]model.Layered[model.TLESource]
	satellites      map[string]orbit.Orbit
	spectrumUnits   map[string]model.SpectrumUnit
	palettes        []confdb.Object
	autoGains       []confdb.Object
	fats            []confdb.Object
	uiConfig        []uiEntry
	recent          []string
	qth             *model.Location

	gates map[Subsystem]*gate
}

// Open loads every collection and returns the ready catalog. The caller
// owns the instance and must Close it at teardown.
func Open(cfg Config) (*Catalog, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}

	c := &Catalog{
		store:           cfg.Store,
		lib:             cfg.Library,
		log:             log,
		metrics:         cfg.Metrics,
		tleDir:          cfg.TLEDir,
		tasks:           taskctrl.New(cfg.Workers, log),
		profiles:        make(map[string]model.SourceConfig),
		networkProfiles: make(map[string]model.SourceConfig),
		bookmarks:       make(map[int64]*model.Bookmark),
		satellites:      make(map[string]orbit.Orbit),
		spectrumUnits:   make(map[string]model.SpectrumUnit),
		gates:           newGates(),
	}

	c.registerBuiltinUnits()

	if err := c.load(); err != nil {
		c.tasks.Close()
		return nil, err
	}

	c.publishCounts()
	return c, nil
}

// Close stops the background task controller. It does not sync; callers
// decide whether unsynced state is worth persisting.
func (c *Catalog) Close() {
	c.tasks.Close()
}

// TaskController exposes the catalog-owned background task controller.
func (c *Catalog) TaskController() *taskctrl.Controller { return c.tasks }

// Read-only display units shipped with every catalog. Users may register
// more.
func (c *Catalog) registerBuiltinUnits() {
	c.RegisterSpectrumUnit("dBFS", 1.0, 0.0)
	c.RegisterSpectrumUnit("dBK", 1.0, -228.60)
	c.RegisterSpectrumUnit("dBW/Hz", 1.0, 0.0)
	c.RegisterSpectrumUnit("dBm/Hz", 1.0, -30.0)
	c.RegisterSpectrumUnit("dBJy", 1.0, 0.0)

	// The AB magnitude zero point sits at 3631 Jy; 1 mag = -4 dB.
	c.RegisterSpectrumUnit("mag (AB)", -4.0, -2.5*math.Log10(3631))
}

func (c *Catalog) load() error {
	var err error

	c.locations, err = loadLayered(c.store,
		[]Layer{
			{Context: ctxLocations, Owner: model.OwnerSystem, Save: false},
			{Context: ctxUserLocations, Owner: model.OwnerUser, Save: true},
		},
		decodeLocation,
		func(l model.Location) string { return l.Name },
		c.log)
	if err != nil {
		return err
	}
	if err := c.loadQTH(); err != nil {
		return err
	}

	c.tleSources, err = loadLayered(c.store,
		[]Layer{
			{Context: ctxTLE, Owner: model.OwnerSystem, Save: false},
			{Context: ctxUserTLE, Owner: model.OwnerUser, Save: true},
		},
		decodeTLESource,
		func(s model.TLESource) string { return s.Name },
		c.log)
	if err != nil {
		return err
	}

	if c.palettes, err = loadNamedObjects(c.store, ctxPalettes); err != nil {
		return err
	}
	if c.autoGains, err = loadNamedObjects(c.store, ctxAutoGains); err != nil {
		return err
	}
	if c.fats, err = loadNamedObjects(c.store, ctxFATs); err != nil {
		return err
	}

	if err := c.loadBookmarks(); err != nil {
		return err
	}
	if err := c.loadUIConfig(); err != nil {
		return err
	}
	if err := c.loadRecent(); err != nil {
		return err
	}
	return c.loadSatellites()
}

func (c *Catalog) loadQTH() error {
	cc, err := c.store.Context(ctxQTH)
	if err != nil {
		return err
	}
	cc.SetSave(true)

	if rec, ok := cc.At(0); ok && rec.Class == "Location" {
		if loc, err := decodeLocation(rec); err == nil {
			c.qth = &loc
		}
	}
	return nil
}

func (c *Catalog) loadBookmarks() error {
	cc, err := c.store.Context(ctxBookmarks)
	if err != nil {
		return err
	}
	cc.SetSave(true)

	ctx := context.Background()
	for i, rec := range cc.List() {
		info, err := decodeBookmark(rec)
		if err != nil {
			c.log.Debug(ctx, "skipping malformed bookmark",
				logging.Int("position", i),
				logging.Any("error", err))
			continue
		}
		if _, dup := c.bookmarks[info.Frequency]; dup {
			continue
		}
		c.bookmarks[info.Frequency] = &model.Bookmark{
			Info: info,
			Slot: model.SlotAt(i),
		}
	}
	return nil
}

func (c *Catalog) loadUIConfig() error {
	cc, err := c.store.Context(ctxUIConfig)
	if err != nil {
		return err
	}
	cc.SetSave(true)

	for _, rec := range cc.List() {
		c.uiConfig = append(c.uiConfig, uiEntry{obj: rec, borrowed: true})
	}
	return nil
}

func (c *Catalog) loadRecent() error {
	cc, err := c.store.Context(ctxRecent)
	if err != nil {
		return err
	}
	cc.SetSave(true)

	for _, rec := range cc.List() {
		if rec.IsField() {
			c.recent = append(c.recent, rec.Value)
		}
	}
	return nil
}

func (c *Catalog) loadSatellites() error {
	if c.tleDir == "" {
		return nil
	}
	orbits, err := orbit.LoadDir(c.tleDir)
	if err != nil {
		return err
	}
	for _, o := range orbits {
		c.satellites[o.Name()] = o
	}
	return nil
}

// publishCounts pushes collection sizes to the metrics sink. Callers must
// not hold c.mu.
func (c *Catalog) publishCounts() {
	if c.metrics == nil {
		return
	}
	c.mu.RLock()
	bookmarks := len(c.bookmarks)
	locations := len(c.locations)
	tleSources := len(c.tleSources)
	satellites := len(c.satellites)
	profiles := len(c.profiles)
	c.mu.RUnlock()
	c.metrics.SetCollectionCounts(bookmarks, locations, tleSources, satellites, profiles)
}
