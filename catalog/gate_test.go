package catalog

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"

	"github.com/signalsfoundry/sdr-catalog/model"
)

// fakeLibrary is an in-memory Library for gate and discovery tests.
type fakeLibrary struct {
	mu        sync.Mutex
	initCalls map[Subsystem]int

	sourcesErr error
	detectErr  error
	detects    int

	profiles []model.SourceConfig
	devices  []model.Device
	remotes  []model.SourceConfig

	registered  []model.SourceConfig
	registerErr error
	qth         *model.Site
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{initCalls: make(map[Subsystem]int)}
}

func (f *fakeLibrary) init(s Subsystem, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls[s]++
	return err
}

func (f *fakeLibrary) InitSources() error         { return f.init(SubsystemSources, f.sourcesErr) }
func (f *fakeLibrary) InitEstimators() error      { return f.init(SubsystemEstimators, nil) }
func (f *fakeLibrary) InitSpectrumSources() error { return f.init(SubsystemSpectrumSources, nil) }
func (f *fakeLibrary) InitInspectors() error      { return f.init(SubsystemInspectors, nil) }

func (f *fakeLibrary) calls(s Subsystem) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls[s]
}

func seqOf[T any](items []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}

func (f *fakeLibrary) Profiles() iter.Seq[model.SourceConfig]       { return seqOf(f.profiles) }
func (f *fakeLibrary) Devices() iter.Seq[model.Device]              { return seqOf(f.devices) }
func (f *fakeLibrary) RemoteProfiles() iter.Seq[model.SourceConfig] { return seqOf(f.remotes) }

func (f *fakeLibrary) DetectDevices() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detects++
	return f.detectErr
}

func (f *fakeLibrary) RegisterProfile(cfg model.SourceConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, cfg)
	return nil
}

func (f *fakeLibrary) SetQTH(site model.Site) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qth = &site
}

func TestInitSourcesWalksLibrary(t *testing.T) {
	lib := newFakeLibrary()
	lib.profiles = []model.SourceConfig{
		{Label: "RTL-SDR @ 2 Msps"},
		{Label: ""}, // unlabeled profiles stay visible under a placeholder
	}
	lib.devices = []model.Device{{Desc: "Generic RTL2832U", Driver: "rtlsdr"}}

	cat, _ := openTestCatalog(t, t.TempDir(), t.TempDir(), lib)

	if err := cat.InitSources(context.Background()); err != nil {
		t.Fatalf("InitSources: %v", err)
	}
	if got := cat.SubsystemState(SubsystemSources); got != GateReady {
		t.Fatalf("state = %v, want ready", got)
	}

	if len(cat.Profiles()) != 2 {
		t.Fatalf("Profiles = %d entries, want 2", len(cat.Profiles()))
	}
	if _, ok := cat.Profile("(Null profile)"); !ok {
		t.Fatal("unlabeled profile should be catalogued under the placeholder")
	}
	if len(cat.Devices()) != 1 {
		t.Fatalf("Devices = %d entries, want 1", len(cat.Devices()))
	}

	// Re-entry on a ready gate is a no-op.
	if err := cat.InitSources(context.Background()); err != nil {
		t.Fatalf("second InitSources: %v", err)
	}
	if lib.calls(SubsystemSources) != 1 {
		t.Fatalf("library init ran %d times, want 1", lib.calls(SubsystemSources))
	}
}

func TestGateFailureIsRetryable(t *testing.T) {
	lib := newFakeLibrary()
	lib.sourcesErr = errors.New("driver scan failed")

	cat, _ := openTestCatalog(t, t.TempDir(), t.TempDir(), lib)

	if err := cat.InitSources(context.Background()); err == nil {
		t.Fatal("InitSources should propagate the failure")
	}
	if got := cat.SubsystemState(SubsystemSources); got != GateFailed {
		t.Fatalf("state = %v after failure, want failed", got)
	}

	lib.sourcesErr = nil
	if err := cat.InitSources(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := cat.SubsystemState(SubsystemSources); got != GateReady {
		t.Fatalf("state = %v after retry, want ready", got)
	}
	if lib.calls(SubsystemSources) != 2 {
		t.Fatalf("library init ran %d times, want 2", lib.calls(SubsystemSources))
	}
}

func TestGatesAreIndependent(t *testing.T) {
	cat, _ := openTestCatalog(t, t.TempDir(), t.TempDir(), newFakeLibrary())

	if err := cat.InitEstimators(context.Background()); err != nil {
		t.Fatalf("InitEstimators: %v", err)
	}
	if got := cat.SubsystemState(SubsystemEstimators); got != GateReady {
		t.Fatalf("estimators = %v, want ready", got)
	}
	for _, s := range []Subsystem{SubsystemSources, SubsystemSpectrumSources, SubsystemInspectors} {
		if got := cat.SubsystemState(s); got != GateUninitialized {
			t.Fatalf("%s = %v, want untouched", s, got)
		}
	}
}

func TestInitWithoutLibrary(t *testing.T) {
	cat, _ := openTestCatalog(t, t.TempDir(), t.TempDir(), nil)

	if err := cat.InitInspectors(context.Background()); !errors.Is(err, errNoLibrary) {
		t.Fatalf("InitInspectors = %v, want errNoLibrary", err)
	}
	if got := cat.SubsystemState(SubsystemInspectors); got != GateUninitialized {
		t.Fatalf("state = %v, want uninitialized", got)
	}
}
