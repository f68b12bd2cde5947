package catalog

import (
	"iter"

	"github.com/signalsfoundry/sdr-catalog/model"
)

// Library is the boundary to the external signal-processing library. Each
// enumeration is a lazy, finite, restartable sequence; the catalog consumes
// them with ordinary iteration.
type Library interface {
	// Per-subsystem initializers. Idempotent from the caller's
	// perspective; a failure leaves the subsystem uninitialized.
	InitSources() error
	InitEstimators() error
	InitSpectrumSources() error
	InitInspectors() error

	// Enumerations. Profiles and Devices cover the local installation;
	// RemoteProfiles covers devices discovered on the network.
	Profiles() iter.Seq[model.SourceConfig]
	Devices() iter.Seq[model.Device]
	RemoteProfiles() iter.Seq[model.SourceConfig]

	// DetectDevices asks the library to re-probe the hardware.
	DetectDevices() error

	// RegisterProfile pushes a profile definition into the library.
	RegisterProfile(model.SourceConfig) error

	// SetQTH pushes the observer site into the library.
	SetQTH(model.Site)
}

// walkProfiles upserts every enumerated profile, keyed by label. Unlabeled
// profiles are collected under a placeholder so they stay visible.
func (c *Catalog) walkProfiles() {
	if c.lib == nil {
		return
	}
	for cfg := range c.lib.Profiles() {
		if cfg.Label == "" {
			cfg.Label = "(Null profile)"
		}
		c.mu.Lock()
		c.profiles[cfg.Label] = cfg
		c.mu.Unlock()
	}
	c.publishCounts()
}

// RefreshDevices clears the device list and re-walks the library, so the
// last walk wins; stale entries never survive a refresh.
func (c *Catalog) RefreshDevices() {
	if c.lib == nil {
		return
	}
	c.mu.Lock()
	c.devices = nil
	c.mu.Unlock()

	for dev := range c.lib.Devices() {
		c.mu.Lock()
		c.devices = append(c.devices, dev)
		c.mu.Unlock()
	}
}

// RefreshNetworkProfiles clears the remote profile set and re-walks the
// library's network discoveries. Configurations are cloned so they never
// alias library-owned state.
func (c *Catalog) RefreshNetworkProfiles() {
	if c.lib == nil {
		return
	}
	c.mu.Lock()
	c.networkProfiles = make(map[string]model.SourceConfig)
	c.mu.Unlock()

	for cfg := range c.lib.RemoteProfiles() {
		clone := cfg.Clone()
		c.mu.Lock()
		c.networkProfiles[clone.Label] = clone
		c.mu.Unlock()
	}
}

// DetectDevices re-probes the hardware and refreshes the device list.
func (c *Catalog) DetectDevices() error {
	if c.lib == nil {
		return errNoLibrary
	}
	if err := c.lib.DetectDevices(); err != nil {
		return err
	}
	c.RefreshDevices()
	return nil
}
