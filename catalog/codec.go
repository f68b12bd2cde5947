package catalog

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/sdr-catalog/confdb"
	"github.com/signalsfoundry/sdr-catalog/model"
)

// Codecs translate between confdb records and typed entities. Decoding is
// tolerant at the collection level: a record that fails here is skipped by
// the loader, never fatal to the load.

var errUnnamed = errors.New("catalog: entity has no name")

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func decodeLocation(o confdb.Object) (model.Location, error) {
	name, ok := o.Get("name")
	if !ok || name == "" {
		return model.Location{}, fmt.Errorf("location record: %w", errUnnamed)
	}

	loc := model.Location{Name: name}
	loc.Country, _ = o.Get("country")

	// Coordinates default to zero when absent, but a present-and-garbled
	// value marks the record malformed.
	for _, f := range []struct {
		field string
		dst   *float64
	}{
		{"lat", &loc.Site.Lat},
		{"lon", &loc.Site.Lon},
		{"alt", &loc.Site.Alt},
	} {
		if _, ok := o.Get(f.field); !ok {
			continue
		}
		v, err := o.GetFloat(f.field)
		if err != nil {
			return model.Location{}, fmt.Errorf("location %q: %w", name, err)
		}
		*f.dst = v
	}
	return loc, nil
}

func encodeLocation(loc model.Location) (confdb.Object, error) {
	if loc.Name == "" {
		return confdb.Object{}, fmt.Errorf("location record: %w", errUnnamed)
	}
	if !finite(loc.Site.Lat) || !finite(loc.Site.Lon) || !finite(loc.Site.Alt) {
		return confdb.Object{}, fmt.Errorf("location %q: non-finite coordinates", loc.Name)
	}
	o := confdb.NewObject("Location")
	o.Set("name", loc.Name)
	o.Set("country", loc.Country)
	o.SetFloat("lat", loc.Site.Lat)
	o.SetFloat("lon", loc.Site.Lon)
	o.SetFloat("alt", loc.Site.Alt)
	return o, nil
}

func decodeTLESource(o confdb.Object) (model.TLESource, error) {
	name, ok := o.Get("name")
	if !ok || name == "" {
		return model.TLESource{}, fmt.Errorf("tle_source record: %w", errUnnamed)
	}
	url, _ := o.Get("url")
	return model.TLESource{Name: name, URL: url}, nil
}

func encodeTLESource(src model.TLESource) (confdb.Object, error) {
	if src.Name == "" {
		return confdb.Object{}, fmt.Errorf("tle_source record: %w", errUnnamed)
	}
	o := confdb.NewObject("tle_source")
	o.Set("name", src.Name)
	o.Set("url", src.URL)
	return o, nil
}

func decodeBookmark(o confdb.Object) (model.BookmarkInfo, error) {
	name, ok := o.Get("name")
	if !ok || name == "" {
		return model.BookmarkInfo{}, fmt.Errorf("bookmark record: %w", errUnnamed)
	}
	freq, err := o.GetInt("frequency")
	if err != nil {
		return model.BookmarkInfo{}, fmt.Errorf("bookmark %q: %w", name, err)
	}

	info := model.BookmarkInfo{Name: name, Frequency: freq}
	info.Color, _ = o.Get("color")

	// Extended demodulation hints are optional and ignored when partial.
	if mod, ok := o.Get("modulation"); ok {
		if low, err := o.GetInt("low_freq_cut"); err == nil {
			if high, err := o.GetInt("high_freq_cut"); err == nil {
				info.Modulation = mod
				info.LowFreqCut = int(low)
				info.HighFreqCut = int(high)
			}
		}
	}
	return info, nil
}

func encodeBookmark(info model.BookmarkInfo) (confdb.Object, error) {
	if info.Name == "" {
		return confdb.Object{}, fmt.Errorf("bookmark record: %w", errUnnamed)
	}
	o := confdb.NewObject("bookmark")
	o.Set("name", info.Name)
	o.SetFloat("frequency", float64(info.Frequency))
	o.Set("color", info.Color)
	o.Set("modulation", info.Modulation)
	o.SetInt("low_freq_cut", int64(info.LowFreqCut))
	o.SetInt("high_freq_cut", int64(info.HighFreqCut))
	return o, nil
}
