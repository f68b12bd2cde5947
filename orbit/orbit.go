// Package orbit parses TLE sets into propagatable satellite orbits and
// manages the on-disk TLE directory.
package orbit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// ErrBadTLE is returned when TLE data cannot be parsed.
var ErrBadTLE = errors.New("orbit: malformed TLE")

// Orbit is a named satellite orbit derived from a TLE set.
type Orbit struct {
	name         string
	line1, line2 string
	sat          satellite.Satellite
}

// Name returns the satellite name, taken from the TLE title line when
// present, otherwise from the catalog number.
func (o Orbit) Name() string { return o.name }

// Lines returns the two TLE element lines.
func (o Orbit) Lines() (string, string) { return o.line1, o.line2 }

// PositionECEF propagates the orbit to t and returns the Earth-fixed
// position in metres.
func (o Orbit) PositionECEF(t time.Time) (x, y, z float64) {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(o.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	const kmToM = 1000.0
	return posECEF.X * kmToM, posECEF.Y * kmToM, posECEF.Z * kmToM
}

// ParseTLE parses a two- or three-line TLE set. The optional first line is
// the satellite name.
func ParseTLE(data string) (Orbit, error) {
	var lines []string
	for _, raw := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		if s := strings.TrimRight(raw, " \t"); strings.TrimSpace(s) != "" {
			lines = append(lines, s)
		}
	}

	var name, line1, line2 string
	switch len(lines) {
	case 2:
		line1, line2 = lines[0], lines[1]
	case 3:
		name, line1, line2 = strings.TrimSpace(lines[0]), lines[1], lines[2]
	default:
		return Orbit{}, fmt.Errorf("%w: expected 2 or 3 lines, got %d", ErrBadTLE, len(lines))
	}

	if !validElementLine(line1, '1') || !validElementLine(line2, '2') {
		return Orbit{}, fmt.Errorf("%w: bad element lines", ErrBadTLE)
	}
	if name == "" {
		name = "NORAD " + strings.TrimSpace(line1[2:7])
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return Orbit{name: name, line1: line1, line2: line2, sat: sat}, nil
}

func validElementLine(line string, num byte) bool {
	return len(line) >= 69 && line[0] == num && line[1] == ' '
}

// LoadFile reads one TLE set from path.
func LoadFile(path string) (Orbit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Orbit{}, fmt.Errorf("orbit: read %s: %w", path, err)
	}
	return ParseTLE(string(data))
}

// LoadDir parses every *.tle file under dir. Unreadable or malformed files
// are skipped. A missing directory yields no orbits, not an error.
func LoadDir(dir string) ([]Orbit, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("orbit: read dir %s: %w", dir, err)
	}

	var orbits []Orbit
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".tle") {
			continue
		}
		o, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		orbits = append(orbits, o)
	}
	return orbits, nil
}

var unsafeNameChars = regexp.MustCompile(`[^-a-zA-Z0-9()]`)

// NormalizeName maps a satellite name to a filesystem-safe file stem.
func NormalizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
}

// WriteFile stores the orbit's TLE set under dir as <normalized name>.tle
// and returns the written path.
func WriteFile(dir string, o Orbit) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("orbit: create TLE dir: %w", err)
	}
	path := filepath.Join(dir, NormalizeName(o.name)+".tle")
	data := o.name + "\n" + o.line1 + "\n" + o.line2 + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return "", fmt.Errorf("orbit: write %s: %w", path, err)
	}
	return path, nil
}
