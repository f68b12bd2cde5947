package catalog

import (
	"math"
	"testing"

	"github.com/signalsfoundry/sdr-catalog/confdb"
	"github.com/signalsfoundry/sdr-catalog/model"
)

func TestDecodeLocationOptionalCoordinates(t *testing.T) {
	o := confdb.NewObject("Location")
	o.Set("name", "Somewhere")

	loc, err := decodeLocation(o)
	if err != nil {
		t.Fatalf("decodeLocation: %v", err)
	}
	if loc.Site.Lat != 0 || loc.Site.Lon != 0 || loc.Site.Alt != 0 {
		t.Fatalf("absent coordinates should default to zero: %+v", loc.Site)
	}
}

func TestDecodeLocationRejectsGarbledCoordinate(t *testing.T) {
	o := confdb.NewObject("Location")
	o.Set("name", "Somewhere")
	o.Set("lat", "forty point two")

	if _, err := decodeLocation(o); err == nil {
		t.Fatal("garbled latitude should be rejected")
	}
}

func TestLocationCodecRoundTrip(t *testing.T) {
	want := model.Location{
		Name:    "Arecibo",
		Country: "Puerto Rico",
		Site:    model.Site{Lat: 18.34417, Lon: -66.75278, Alt: 497},
	}

	o, err := encodeLocation(want)
	if err != nil {
		t.Fatalf("encodeLocation: %v", err)
	}
	got, err := decodeLocation(o)
	if err != nil {
		t.Fatalf("decodeLocation: %v", err)
	}
	if got != want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestEncodeLocationRejectsNonFinite(t *testing.T) {
	loc := model.Location{Name: "Broken", Site: model.Site{Lat: math.NaN()}}
	if _, err := encodeLocation(loc); err == nil {
		t.Fatal("non-finite coordinates should be rejected")
	}
	loc.Site = model.Site{Lon: math.Inf(1)}
	if _, err := encodeLocation(loc); err == nil {
		t.Fatal("infinite coordinates should be rejected")
	}
}

func TestDecodeBookmarkModulationAllOrNothing(t *testing.T) {
	o := bmObject("APRS", 144800000)
	o.Set("modulation", "fm")
	// low/high cuts are missing, so the whole hint is dropped.

	info, err := decodeBookmark(o)
	if err != nil {
		t.Fatalf("decodeBookmark: %v", err)
	}
	if info.Modulation != "" {
		t.Fatalf("partial hint kept: %q", info.Modulation)
	}

	o.SetInt("low_freq_cut", -12500)
	o.SetInt("high_freq_cut", 12500)
	info, err = decodeBookmark(o)
	if err != nil {
		t.Fatalf("decodeBookmark: %v", err)
	}
	if info.Modulation != "fm" || info.LowFreqCut != -12500 || info.HighFreqCut != 12500 {
		t.Fatalf("complete hint lost: %+v", info)
	}
}

func TestBookmarkCodecRoundTrip(t *testing.T) {
	want := model.BookmarkInfo{
		Name:        "ISS downlink",
		Frequency:   145825000,
		Color:       "#00ff00",
		Modulation:  "fm",
		LowFreqCut:  -7500,
		HighFreqCut: 7500,
	}

	o, err := encodeBookmark(want)
	if err != nil {
		t.Fatalf("encodeBookmark: %v", err)
	}
	got, err := decodeBookmark(o)
	if err != nil {
		t.Fatalf("decodeBookmark: %v", err)
	}
	if got != want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}
