package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bstardust/imgmeta/internal/exif"
)

// GPS section keys written next to the raw GPS tags.
const (
	KeyLatitudeDecimal  = "Latitude (decimal)"
	KeyLongitudeDecimal = "Longitude (decimal)"
	KeyGoogleMaps       = "Google Maps"
	KeyError            = "error"
)

const mapsURLFormat = "https://maps.google.com/?q=%s,%s"

// GPSFix is a decoded position.
type GPSFix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MapsURL   string  `json:"maps_url"`
}

// ToDecimal converts degrees, minutes and seconds to signed decimal degrees
// as d + m/60 + s/3600, negated for S and W. ref must be one of N, S, E or W.
// Signed components from SRATIONAL tags are summed as they are.
func ToDecimal(degrees, minutes, seconds float64, ref string) (float64, error) {
	for _, c := range []float64{degrees, minutes, seconds} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return 0, fmt.Errorf("non-finite coordinate component %v", c)
		}
	}

	dec := degrees + minutes/60 + seconds/3600
	switch normalizeRef(ref) {
	case "N", "E":
		return dec, nil
	case "S", "W":
		return -dec, nil
	case "":
		return 0, errors.New("missing hemisphere reference")
	default:
		return 0, fmt.Errorf("unknown hemisphere reference %q", ref)
	}
}

func normalizeRef(ref string) string {
	return strings.ToUpper(strings.Trim(ref, " \t\r\n\x00"))
}

// DMSFromValue reads a degrees/minutes/seconds triple from a raw GPS value.
func DMSFromValue(v Value) ([3]float64, error) {
	var dms [3]float64
	switch x := v.(type) {
	case exif.Rationals:
		if len(x) != 3 {
			return dms, fmt.Errorf("expected 3 coordinate components, got %d", len(x))
		}
		for i, r := range x {
			f, ok := r.Float()
			if !ok {
				return dms, fmt.Errorf("zero denominator in coordinate component %d", i)
			}
			dms[i] = f
		}
		return dms, nil
	case exif.Opaque:
		switch vals := x.V.(type) {
		case []float64:
			if len(vals) == 3 {
				copy(dms[:], vals)
				return dms, nil
			}
		case []int64:
			if len(vals) == 3 {
				for i, n := range vals {
					dms[i] = float64(n)
				}
				return dms, nil
			}
		}
	}
	return dms, fmt.Errorf("coordinate is not a triple: %s", exif.Normalize(v))
}

// RefFromValue reads a hemisphere reference from a raw GPS value.
func RefFromValue(v Value) (string, bool) {
	switch x := v.(type) {
	case exif.Opaque:
		if s, ok := x.V.(string); ok {
			return s, true
		}
	case exif.Bytes:
		return exif.DecodeText(x), true
	}
	return "", false
}

// NewFix converts both coordinates and builds the maps link.
func NewFix(lat [3]float64, latRef string, lon [3]float64, lonRef string) (GPSFix, error) {
	la, err := ToDecimal(lat[0], lat[1], lat[2], latRef)
	if err != nil {
		return GPSFix{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := ToDecimal(lon[0], lon[1], lon[2], lonRef)
	if err != nil {
		return GPSFix{}, fmt.Errorf("longitude: %w", err)
	}
	return GPSFix{Latitude: la, Longitude: lo, MapsURL: MapsURL(la, lo)}, nil
}

// MapsURL links a position on Google Maps.
func MapsURL(lat, lon float64) string {
	return fmt.Sprintf(mapsURLFormat, exif.FormatFloat(lat), exif.FormatFloat(lon))
}

// Fix returns the decimal position stored in the record's GPS section.
func (r *Record) Fix() (GPSFix, bool) {
	lat, ok := number(r.GPSData, KeyLatitudeDecimal)
	if !ok {
		return GPSFix{}, false
	}
	lon, ok := number(r.GPSData, KeyLongitudeDecimal)
	if !ok {
		return GPSFix{}, false
	}
	url, _ := r.GPSData.String(KeyGoogleMaps)
	if url == "" {
		url = MapsURL(lat, lon)
	}
	return GPSFix{Latitude: lat, Longitude: lon, MapsURL: url}, true
}

func number(f *Fields, key string) (float64, bool) {
	v, ok := f.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		x, err := n.Float64()
		return x, err == nil
	}
	return 0, false
}

// formatDMS renders a coordinate for the GPS section: a triple as
// `d° m' s"`, other lengths comma separated. Zero-denominator components
// show as 0.
func formatDMS(v exif.Rationals) string {
	parts := make([]string, len(v))
	for i, r := range v {
		f, ok := r.Float()
		if !ok {
			parts[i] = "0"
			continue
		}
		parts[i] = exif.FormatFloat(f)
	}
	if len(parts) == 3 {
		return fmt.Sprintf("%s° %s' %s\"", parts[0], parts[1], parts[2])
	}
	return strings.Join(parts, ", ")
}
