package metadata

import (
	"fmt"

	"github.com/bstardust/imgmeta/internal/exif"
)

// FormattedMetadata groups display values into UI sections. Each section maps
// a label to a display string; tags missing from the record are left out.
type FormattedMetadata struct {
	FileInfo      *Fields `json:"file_info"`
	CameraInfo    *Fields `json:"camera_info"`
	CaptureInfo   *Fields `json:"capture_info"`
	TechnicalInfo *Fields `json:"technical_info"`
	GPSInfo       *Fields `json:"gps_info"`
	OtherInfo     *Fields `json:"other_info"`
}

// Section is a named group of display values.
type Section struct {
	Name   string
	Title  string
	Fields *Fields
}

// Sections lists the sections in display order.
func (m *FormattedMetadata) Sections() []Section {
	return []Section{
		{"file_info", "File Information", m.FileInfo},
		{"camera_info", "Camera", m.CameraInfo},
		{"capture_info", "Capture", m.CaptureInfo},
		{"technical_info", "Technical", m.TechnicalInfo},
		{"gps_info", "GPS", m.GPSInfo},
		{"other_info", "Other", m.OtherInfo},
	}
}

type label struct {
	tag, display string
}

var (
	cameraLabels = []label{
		{"Make", "Camera Make"},
		{"Model", "Camera Model"},
		{"Software", "Software"},
		{"Artist", "Artist"},
		{"Copyright", "Copyright"},
	}
	captureLabels = []label{
		{"DateTime", "Date & Time"},
		{"DateTimeOriginal", "Original Date & Time"},
		{"DateTimeDigitized", "Digitized Date & Time"},
		{"ImageDescription", "Description"},
		{"UserComment", "User Comment"},
	}
	technicalLabels = []label{
		{"ExposureTime", "Exposure Time"},
		{"FNumber", "F-Number"},
		{"ISOSpeedRatings", "ISO Speed"},
		{"FocalLength", "Focal Length"},
		{"Flash", "Flash"},
		{"WhiteBalance", "White Balance"},
		{"MeteringMode", "Metering Mode"},
		{"ExposureProgram", "Exposure Program"},
		{"ExposureMode", "Exposure Mode"},
		{"DigitalZoomRatio", "Digital Zoom"},
		{"SceneCaptureType", "Scene Type"},
		{"GainControl", "Gain Control"},
		{"Contrast", "Contrast"},
		{"Saturation", "Saturation"},
		{"Sharpness", "Sharpness"},
	}
	gpsLabels = []label{
		{"GPSLatitude", "Latitude"},
		{"GPSLongitude", "Longitude"},
		{"GPSAltitude", "Altitude"},
		{"GPSDateStamp", "GPS Date"},
		{"GPSTimeStamp", "GPS Time"},
		{"GPSProcessingMethod", "Processing Method"},
	}
	otherLabels = []label{
		{"Orientation", "Orientation"},
		{"ColorSpace", "ColorSpace"},
		{"ComponentsConfiguration", "ComponentsConfiguration"},
		{"CompressedBitsPerPixel", "CompressedBitsPerPixel"},
	}
)

// FormatForDisplay builds the UI sections for rec. It does not modify rec.
func FormatForDisplay(rec *Record) *FormattedMetadata {
	out := &FormattedMetadata{
		FileInfo:      NewFields(),
		CameraInfo:    NewFields(),
		CaptureInfo:   NewFields(),
		TechnicalInfo: NewFields(),
		GPSInfo:       NewFields(),
		OtherInfo:     NewFields(),
	}
	if rec == nil {
		return out
	}

	if fi := rec.FileInfo; fi != nil {
		out.FileInfo.Set("Filename", fi.Filename)
		out.FileInfo.Set("File Size", fmt.Sprintf("%.1f KB", float64(fi.FileSize)/1024))
		out.FileInfo.Set("Format", fi.Format)
		out.FileInfo.Set("Dimensions", fmt.Sprintf("%d × %d pixels", fi.Width, fi.Height))
		out.FileInfo.Set("Color Mode", fi.Mode)
	}

	copyLabels(out.CameraInfo, rec.ExifData, cameraLabels)
	copyLabels(out.CaptureInfo, rec.ExifData, captureLabels)
	copyLabels(out.TechnicalInfo, rec.ExifData, technicalLabels)
	copyLabels(out.GPSInfo, rec.GPSData, gpsLabels)
	copyLabels(out.OtherInfo, rec.ExifData, otherLabels)

	return out
}

func copyLabels(dst, src *Fields, labels []label) {
	for _, l := range labels {
		if v, ok := src.Get(l.tag); ok {
			dst.Set(l.display, displayString(v))
		}
	}
}

func displayString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return exif.FormatFloat(x)
	case nil:
		return ""
	}
	return stringify(Sanitize(v))
}
