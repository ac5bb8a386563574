package metadata

import (
	"strings"
)

// NoMetadata is the summary of a record with nothing worth reporting.
const NoMetadata = "No metadata available"

var dateTags = []string{"DateTimeOriginal", "DateTime", "DateTimeDigitized"}

// Summarize returns a one-line description of rec, e.g.
// "Camera: Canon EOS 5D | Date: 2023:06:01 10:00:00 | GPS: Available".
func Summarize(rec *Record) string {
	if rec == nil {
		return NoMetadata
	}

	var parts []string
	if v, ok := rec.ExifData.Get("Make"); ok {
		model := ""
		if m, ok := rec.ExifData.Get("Model"); ok {
			model = displayString(m)
		}
		parts = append(parts, strings.TrimSpace("Camera: "+displayString(v)+" "+model))
	}
	if date, ok := CaptureDate(rec); ok {
		parts = append(parts, "Date: "+date)
	}
	for _, t := range []struct{ tag, prefix string }{
		{"ExposureTime", "Exposure: "},
		{"FNumber", "F-Number: "},
		{"ISOSpeedRatings", "ISO: "},
	} {
		if v, ok := rec.ExifData.Get(t.tag); ok {
			parts = append(parts, t.prefix+displayString(v))
		}
	}
	if hasGPS(rec) {
		parts = append(parts, "GPS: Available")
	}

	if len(parts) == 0 {
		return NoMetadata
	}
	return strings.Join(parts, " | ")
}

// CaptureDate returns the first available of DateTimeOriginal, DateTime and
// DateTimeDigitized.
func CaptureDate(rec *Record) (string, bool) {
	if rec == nil {
		return "", false
	}
	for _, tag := range dateTags {
		if v, ok := rec.ExifData.Get(tag); ok {
			return displayString(v), true
		}
	}
	return "", false
}

// hasGPS ignores an error-only GPS section.
func hasGPS(rec *Record) bool {
	for _, k := range rec.GPSData.Keys() {
		if k != KeyError {
			return true
		}
	}
	return false
}
