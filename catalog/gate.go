package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/sdr-catalog/internal/logging"
)

var errNoLibrary = errors.New("catalog: no external library configured")

// Subsystem identifies an independently-enabled library subsystem.
type Subsystem int

const (
	SubsystemSources Subsystem = iota
	SubsystemEstimators
	SubsystemSpectrumSources
	SubsystemInspectors
)

func (s Subsystem) String() string {
	switch s {
	case SubsystemSources:
		return "sources"
	case SubsystemEstimators:
		return "estimators"
	case SubsystemSpectrumSources:
		return "spectrum_sources"
	case SubsystemInspectors:
		return "inspectors"
	default:
		return fmt.Sprintf("subsystem(%d)", int(s))
	}
}

// GateState is the lifecycle of one subsystem's one-shot initializer.
type GateState int

const (
	GateUninitialized GateState = iota
	GateInitializing
	GateReady
	GateFailed // retryable: the next init attempt transitions back to Initializing
)

type gate struct {
	state GateState
	err   error
}

func newGates() map[Subsystem]*gate {
	return map[Subsystem]*gate{
		SubsystemSources:         {},
		SubsystemEstimators:      {},
		SubsystemSpectrumSources: {},
		SubsystemInspectors:      {},
	}
}

// SubsystemState reports a gate's current state.
func (c *Catalog) SubsystemState(s Subsystem) GateState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if g, ok := c.gates[s]; ok {
		return g.state
	}
	return GateUninitialized
}

// InitSources initializes the capture-source subsystem, then walks the
// library's profiles and local devices into the catalog.
func (c *Catalog) InitSources(ctx context.Context) error {
	return c.runGate(ctx, SubsystemSources, func() error {
		if err := c.lib.InitSources(); err != nil {
			return err
		}
		c.walkProfiles()
		c.RefreshDevices()
		return nil
	})
}

// InitEstimators initializes the parameter-estimator subsystem.
func (c *Catalog) InitEstimators(ctx context.Context) error {
	return c.runGate(ctx, SubsystemEstimators, func() error { return c.lib.InitEstimators() })
}

// InitSpectrumSources initializes the spectrum-source subsystem.
func (c *Catalog) InitSpectrumSources(ctx context.Context) error {
	return c.runGate(ctx, SubsystemSpectrumSources, func() error { return c.lib.InitSpectrumSources() })
}

// InitInspectors initializes the inspector subsystem.
func (c *Catalog) InitInspectors(ctx context.Context) error {
	return c.runGate(ctx, SubsystemInspectors, func() error { return c.lib.InitInspectors() })
}

// runGate drives the state machine for one subsystem. Re-entry on Ready is
// a no-op; a failure records the error and leaves the gate retryable.
// Gates are independent: no gate implies or requires another.
func (c *Catalog) runGate(ctx context.Context, s Subsystem, init func() error) error {
	c.mu.Lock()
	g := c.gates[s]
	switch g.state {
	case GateReady:
		c.mu.Unlock()
		return nil
	case GateInitializing:
		c.mu.Unlock()
		return fmt.Errorf("catalog: subsystem %s is already initializing", s)
	}
	if c.lib == nil {
		c.mu.Unlock()
		return errNoLibrary
	}
	g.state = GateInitializing
	g.err = nil
	c.mu.Unlock()

	err := init()

	c.mu.Lock()
	if err != nil {
		g.state = GateFailed
		g.err = err
	} else {
		g.state = GateReady
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Error(ctx, "subsystem initialization failed",
			logging.String("subsystem", s.String()),
			logging.Any("error", err))
		return fmt.Errorf("catalog: init %s: %w", s, err)
	}
	c.log.Info(ctx, "subsystem initialized", logging.String("subsystem", s.String()))
	return nil
}
