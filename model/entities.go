package model

// Owner indicates which configuration layer an entity was loaded from.
type Owner int

const (
	OwnerSystem Owner = iota // read-only, shipped with the installation
	OwnerUser                // writable, lives in the user's config directory
)

func (o Owner) String() string {
	if o == OwnerUser {
		return "user"
	}
	return "system"
}

// Layered pairs an entity with the layer that owns it. Merge, dedup and
// immutability rules are written once against this wrapper instead of
// per-type boolean flags.
type Layered[T any] struct {
	Value T
	Owner Owner
}

// User reports whether the entry may be removed or written back.
func (l Layered[T]) User() bool { return l.Owner == OwnerUser }

// Site is an observer position on Earth.
type Site struct {
	Lat float64 // degrees, north positive
	Lon float64 // degrees, east positive
	Alt float64 // metres above sea level
}

// Location is a named observer location (e.g. a city or an observatory).
type Location struct {
	Name    string
	Country string
	Site    Site
}

// TLESource is a named URL from which TLE sets can be fetched.
type TLESource struct {
	Name string
	URL  string
}

// SpectrumUnit describes how spectrum power readings map to a display unit.
type SpectrumUnit struct {
	Name      string
	DBPerUnit float64 // dB per unit step
	ZeroPoint float64 // offset of the unit's zero w.r.t. dBFS
}

// SourceConfig is an opaque capture source configuration (a "profile").
// The catalog only cares about its label; parameters pass through untouched.
type SourceConfig struct {
	Label  string
	Params map[string]string
}

// Clone returns a deep copy, so catalogued profiles never alias records
// still owned by the enumerating library.
func (c SourceConfig) Clone() SourceConfig {
	out := SourceConfig{Label: c.Label}
	if c.Params != nil {
		out.Params = make(map[string]string, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return out
}

// Device describes a discovered capture device.
type Device struct {
	Desc   string
	Driver string
	Remote bool
}
