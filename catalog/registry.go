package catalog

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/signalsfoundry/sdr-catalog/confdb"
	"github.com/signalsfoundry/sdr-catalog/internal/logging"
	"github.com/signalsfoundry/sdr-catalog/model"
	"github.com/signalsfoundry/sdr-catalog/orbit"
)

// All mutators are atomic: a failed call leaves the catalog exactly as it
// was. Collisions and immutability violations report false, never an error.

// ---- Bookmarks ----

// RegisterBookmark inserts a bookmark iff its frequency is not taken.
func (c *Catalog) RegisterBookmark(info model.BookmarkInfo) bool {
	c.mu.Lock()
	if _, exists := c.bookmarks[info.Frequency]; exists {
		c.mu.Unlock()
		return false
	}
	c.bookmarks[info.Frequency] = &model.Bookmark{Info: info, Dirty: true}
	c.mu.Unlock()

	c.publishCounts()
	return true
}

// ReplaceBookmark upserts a bookmark. Any previous entry at the same
// frequency loses its backing slot (the record is deleted from the store
// right away) and the fresh value starts unsaved.
func (c *Catalog) ReplaceBookmark(info model.BookmarkInfo) {
	c.mu.Lock()
	c.removeBookmarkLocked(info.Frequency)
	c.bookmarks[info.Frequency] = &model.Bookmark{Info: info, Dirty: true}
	c.mu.Unlock()

	c.publishCounts()
}

// RemoveBookmark deletes a bookmark. A slot-assigned bookmark's backing
// record is removed from the store immediately, not at sync time.
func (c *Catalog) RemoveBookmark(freq int64) bool {
	c.mu.Lock()
	removed := c.removeBookmarkLocked(freq)
	c.mu.Unlock()

	if removed {
		c.publishCounts()
	}
	return removed
}

func (c *Catalog) removeBookmarkLocked(freq int64) bool {
	bm, ok := c.bookmarks[freq]
	if !ok {
		return false
	}
	delete(c.bookmarks, freq)

	if pos, assigned := bm.Slot.Pos(); assigned {
		if err := c.removeRecord(ctxBookmarks, pos); err != nil {
			c.log.Warn(context.Background(), "bookmark record delete failed",
				logging.Int64("frequency", freq),
				logging.Any("error", err))
		}
	}
	return true
}

func (c *Catalog) removeRecord(name string, pos int) error {
	cc, err := c.store.Context(name)
	if err != nil {
		return err
	}
	return cc.Remove(pos)
}

// Bookmark looks up a bookmark by frequency.
func (c *Catalog) Bookmark(freq int64) (model.Bookmark, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bm, ok := c.bookmarks[freq]
	if !ok {
		return model.Bookmark{}, false
	}
	return *bm, true
}

// Bookmarks returns every bookmark in ascending frequency order.
func (c *Catalog) Bookmarks() []model.Bookmark {
	return c.BookmarksFrom(0)
}

// BookmarksFrom returns, in ascending order, every bookmark whose frequency
// is at or above freq ("find nearest at or after").
func (c *Catalog) BookmarksFrom(freq int64) []model.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()

	freqs := slices.Sorted(maps.Keys(c.bookmarks))
	start, _ := slices.BinarySearch(freqs, freq)

	out := make([]model.Bookmark, 0, len(freqs)-start)
	for _, f := range freqs[start:] {
		out = append(out, *c.bookmarks[f])
	}
	return out
}

// ---- Locations ----

// RegisterLocation inserts a user-owned location iff the name is free.
func (c *Catalog) RegisterLocation(loc model.Location) bool {
	c.mu.Lock()
	if _, exists := c.locations[loc.Name]; exists {
		c.mu.Unlock()
		return false
	}
	c.locations[loc.Name] = model.Layered[model.Location]{Value: loc, Owner: model.OwnerUser}
	c.mu.Unlock()

	c.publishCounts()
	return true
}

// RemoveLocation deletes a location. System-owned entries are refused.
func (c *Catalog) RemoveLocation(name string) bool {
	c.mu.Lock()
	entry, ok := c.locations[name]
	if !ok || !entry.User() {
		c.mu.Unlock()
		return false
	}
	delete(c.locations, name)
	c.mu.Unlock()

	c.publishCounts()
	return true
}

// Location looks up a location by name.
func (c *Catalog) Location(name string) (model.Layered[model.Location], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.locations[name]
	return entry, ok
}

// Locations returns every location in name order.
func (c *Catalog) Locations() []model.Layered[model.Location] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Layered[model.Location], 0, len(c.locations))
	for _, name := range slices.Sorted(maps.Keys(c.locations)) {
		out = append(out, c.locations[name])
	}
	return out
}

// QTH returns the home location, if one is set.
func (c *Catalog) QTH() (model.Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.qth == nil {
		return model.Location{}, false
	}
	return *c.qth, true
}

// SetQTH replaces the home location and pushes the site into the external
// library.
func (c *Catalog) SetQTH(loc model.Location) {
	c.mu.Lock()
	c.qth = &loc
	lib := c.lib
	c.mu.Unlock()

	if lib != nil {
		lib.SetQTH(loc.Site)
	}
}

// ---- TLE sources ----

// RegisterTLESource inserts a user-owned TLE source iff the name is free.
func (c *Catalog) RegisterTLESource(src model.TLESource) bool {
	c.mu.Lock()
	if _, exists := c.tleSources[src.Name]; exists {
		c.mu.Unlock()
		return false
	}
	c.tleSources[src.Name] = model.Layered[model.TLESource]{Value: src, Owner: model.OwnerUser}
	c.mu.Unlock()

	c.publishCounts()
	return true
}

// RemoveTLESource deletes a TLE source. System-owned entries are refused.
func (c *Catalog) RemoveTLESource(name string) bool {
	c.mu.Lock()
	entry, ok := c.tleSources[name]
	if !ok || !entry.User() {
		c.mu.Unlock()
		return false
	}
	delete(c.tleSources, name)
	c.mu.Unlock()

	c.publishCounts()
	return true
}

// TLESource looks up a TLE source by name.
func (c *Catalog) TLESource(name string) (model.Layered[model.TLESource], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.tleSources[name]
	return entry, ok
}

// TLESources returns every TLE source in name order.
func (c *Catalog) TLESources() []model.Layered[model.TLESource] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Layered[model.TLESource], 0, len(c.tleSources))
	for _, name := range slices.Sorted(maps.Keys(c.tleSources)) {
		out = append(out, c.tleSources[name])
	}
	return out
}

// ---- Satellites ----

// RegisterTLE parses a TLE string, persists it under the local TLE
// directory, and catalogs the orbit, overwriting any previous orbit of the
// same name.
func (c *Catalog) RegisterTLE(data string) (orbit.Orbit, error) {
	o, err := orbit.ParseTLE(data)
	if err != nil {
		return orbit.Orbit{}, err
	}
	if c.tleDir == "" {
		return orbit.Orbit{}, fmt.Errorf("catalog: no TLE directory configured")
	}
	if _, err := orbit.WriteFile(c.tleDir, o); err != nil {
		return orbit.Orbit{}, err
	}

	c.RegisterOrbit(o)
	return o, nil
}

// RegisterOrbit upserts an already-parsed orbit (startup scan, watcher).
func (c *Catalog) RegisterOrbit(o orbit.Orbit) {
	c.mu.Lock()
	c.satellites[o.Name()] = o
	c.mu.Unlock()

	c.publishCounts()
}

// Satellite looks up an orbit by satellite name.
func (c *Catalog) Satellite(name string) (orbit.Orbit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.satellites[name]
	return o, ok
}

// Satellites returns every catalogued orbit in name order.
func (c *Catalog) Satellites() []orbit.Orbit {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]orbit.Orbit, 0, len(c.satellites))
	for _, name := range slices.Sorted(maps.Keys(c.satellites)) {
		out = append(out, c.satellites[name])
	}
	return out
}

// ---- Spectrum units ----

// RegisterSpectrumUnit inserts a display unit iff the name is free.
func (c *Catalog) RegisterSpectrumUnit(name string, dbPerUnit, zeroPoint float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.spectrumUnits[name]; exists {
		return false
	}
	c.spectrumUnits[name] = model.SpectrumUnit{Name: name, DBPerUnit: dbPerUnit, ZeroPoint: zeroPoint}
	return true
}

// ReplaceSpectrumUnit unconditionally upserts a display unit.
func (c *Catalog) ReplaceSpectrumUnit(name string, dbPerUnit, zeroPoint float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spectrumUnits[name] = model.SpectrumUnit{Name: name, DBPerUnit: dbPerUnit, ZeroPoint: zeroPoint}
}

// RemoveSpectrumUnit deletes a display unit.
func (c *Catalog) RemoveSpectrumUnit(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.spectrumUnits[name]; !exists {
		return false
	}
	delete(c.spectrumUnits, name)
	return true
}

// SpectrumUnit looks up a display unit by name.
func (c *Catalog) SpectrumUnit(name string) (model.SpectrumUnit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.spectrumUnits[name]
	return u, ok
}

// SpectrumUnits returns every display unit in name order.
func (c *Catalog) SpectrumUnits() []model.SpectrumUnit {
	return c.SpectrumUnitsFrom("")
}

// SpectrumUnitsFrom returns, in name order, every unit whose name is
// lexicographically at or after name.
func (c *Catalog) SpectrumUnitsFrom(name string) []model.SpectrumUnit {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := slices.Sorted(maps.Keys(c.spectrumUnits))
	start, _ := slices.BinarySearch(names, name)

	out := make([]model.SpectrumUnit, 0, len(names)-start)
	for _, n := range names[start:] {
		out = append(out, c.spectrumUnits[n])
	}
	return out
}

// ---- Profiles and devices ----

// Profile looks up a source profile by label.
func (c *Catalog) Profile(label string) (model.SourceConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[label]
	return p, ok
}

// Profiles returns every source profile in label order.
func (c *Catalog) Profiles() []model.SourceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.SourceConfig, 0, len(c.profiles))
	for _, label := range slices.Sorted(maps.Keys(c.profiles)) {
		out = append(out, c.profiles[label])
	}
	return out
}

// SaveProfile upserts a profile and registers it with the external library.
func (c *Catalog) SaveProfile(cfg model.SourceConfig) error {
	c.mu.Lock()
	c.profiles[cfg.Label] = cfg
	lib := c.lib
	c.mu.Unlock()

	c.publishCounts()

	if lib == nil {
		return nil
	}
	if err := lib.RegisterProfile(cfg); err != nil {
		return fmt.Errorf("catalog: register profile %q: %w", cfg.Label, err)
	}
	return nil
}

// Devices returns the devices found by the last walk.
func (c *Catalog) Devices() []model.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.devices)
}

// DeviceAt returns the device at the given walk index.
func (c *Catalog) DeviceAt(index int) (model.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.devices) {
		return model.Device{}, false
	}
	return c.devices[index], true
}

// NetworkProfile looks up a remote profile by label.
func (c *Catalog) NetworkProfile(label string) (model.SourceConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.networkProfiles[label]
	return p, ok
}

// NetworkProfiles returns every remote profile in label order.
func (c *Catalog) NetworkProfiles() []model.SourceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.SourceConfig, 0, len(c.networkProfiles))
	for _, label := range slices.Sorted(maps.Keys(c.networkProfiles)) {
		out = append(out, c.networkProfiles[label])
	}
	return out
}

// ---- Opaque read-only collections ----

// Palettes returns the merged palette records.
func (c *Catalog) Palettes() []confdb.Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.palettes)
}

// AutoGains returns the merged auto-gain preset records.
func (c *Catalog) AutoGains() []confdb.Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.autoGains)
}

// FATs returns the merged frequency-allocation table records.
func (c *Catalog) FATs() []confdb.Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.fats)
}

// ---- UI configuration ----

// UIConfig returns a snapshot of the UI configuration records.
func (c *Catalog) UIConfig() []confdb.Object {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]confdb.Object, len(c.uiConfig))
	for i, e := range c.uiConfig {
		out[i] = e.obj.Clone()
	}
	return out
}

// PutUIConfig stores a UI record at the given position, growing the
// collection as needed. The entry is marked modified and will be written
// back on the next sync.
func (c *Catalog) PutUIConfig(pos int, obj confdb.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.uiConfig) <= pos {
		c.uiConfig = append(c.uiConfig, uiEntry{borrowed: true})
	}
	c.uiConfig[pos] = uiEntry{obj: obj.Clone(), borrowed: false}
}

// ---- Recent profiles (MRU) ----

// NotifyRecent moves a profile label to the head of the recent list,
// reporting whether it was already present.
func (c *Catalog) NotifyRecent(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := c.removeRecentLocked(name)
	c.recent = append([]string{name}, c.recent...)
	return found
}

// RemoveRecent deletes a label from the recent list.
func (c *Catalog) RemoveRecent(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeRecentLocked(name)
}

func (c *Catalog) removeRecentLocked(name string) bool {
	found := false
	c.recent = slices.DeleteFunc(c.recent, func(s string) bool {
		if s == name {
			found = true
			return true
		}
		return false
	})
	return found
}

// ClearRecent empties the recent list.
func (c *Catalog) ClearRecent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent = nil
}

// Recent returns the recent-profile labels, most recent first.
func (c *Catalog) Recent() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.recent)
}
