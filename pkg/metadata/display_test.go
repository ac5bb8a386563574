package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	rec := newRecord()
	rec.FileInfo = &FileInfo{
		Filename: "photo.jpg",
		FileSize: 1234,
		Format:   "JPEG",
		Mode:     "RGB",
		Size:     [2]int{640, 480},
		Width:    640,
		Height:   480,
	}
	rec.ExifData.Set("Make", "Canon")
	rec.ExifData.Set("Model", "Canon EOS 5D")
	rec.ExifData.Set("DateTime", "2023:06:02 08:00:00")
	rec.ExifData.Set("DateTimeDigitized", "2023:06:03 08:00:00")
	rec.ExifData.Set("ExposureTime", "1/250 (0.00)")
	rec.ExifData.Set("FNumber", "28/10 (2.80)")
	rec.ExifData.Set("ISOSpeedRatings", "400")
	rec.ExifData.Set("Orientation", "1")
	rec.ExifData.Set("LensModel", "EF 50mm")
	rec.GPSData.Set("GPSLatitude", `40.0° 26.0' 46.14"`)
	rec.GPSData.Set("GPSAltitude", "10/1 (10.00)")
	rec.GPSData.Set(KeyLatitudeDecimal, 40.44615)
	return rec
}

func TestFormatForDisplay(t *testing.T) {
	out := FormatForDisplay(sampleRecord())

	assert.Equal(t, []string{"Filename", "File Size", "Format", "Dimensions", "Color Mode"}, out.FileInfo.Keys())
	size, _ := out.FileInfo.String("File Size")
	assert.Equal(t, "1.2 KB", size)
	dims, _ := out.FileInfo.String("Dimensions")
	assert.Equal(t, "640 × 480 pixels", dims)

	mk, _ := out.CameraInfo.String("Camera Make")
	assert.Equal(t, "Canon", mk)
	assert.Equal(t, []string{"Camera Make", "Camera Model"}, out.CameraInfo.Keys())

	assert.Equal(t, []string{"Date & Time", "Digitized Date & Time"}, out.CaptureInfo.Keys())
	assert.Equal(t, []string{"Exposure Time", "F-Number", "ISO Speed"}, out.TechnicalInfo.Keys())
	assert.Equal(t, []string{"Latitude", "Altitude"}, out.GPSInfo.Keys())
	assert.Equal(t, []string{"Orientation"}, out.OtherInfo.Keys())
}

func TestFormatForDisplayWithoutFileInfo(t *testing.T) {
	rec := newRecord()
	rec.Error = "Failed to open image: nope"

	out := FormatForDisplay(rec)
	for _, s := range out.Sections() {
		assert.Zero(t, s.Fields.Len(), s.Name)
	}

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"file_info":{},"camera_info":{},"capture_info":{},"technical_info":{},"gps_info":{},"other_info":{}}`, string(b))
}

func TestFormatForDisplayNil(t *testing.T) {
	out := FormatForDisplay(nil)
	assert.Len(t, out.Sections(), 6)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t,
		"Camera: Canon Canon EOS 5D | Date: 2023:06:02 08:00:00 | Exposure: 1/250 (0.00) | F-Number: 28/10 (2.80) | ISO: 400 | GPS: Available",
		Summarize(sampleRecord()))
}

func TestSummarizeMakeOnly(t *testing.T) {
	rec := newRecord()
	rec.ExifData.Set("Make", "Nikon")
	assert.Equal(t, "Camera: Nikon", Summarize(rec))
}

func TestSummarizeGPSErrorOnly(t *testing.T) {
	rec := newRecord()
	rec.GPSData.Set(KeyError, "Failed to extract GPS data: bad")
	assert.Equal(t, NoMetadata, Summarize(rec))
	assert.Equal(t, NoMetadata, Summarize(nil))
}

func TestCaptureDate(t *testing.T) {
	rec := sampleRecord()
	date, ok := CaptureDate(rec)
	require.True(t, ok)
	assert.Equal(t, "2023:06:02 08:00:00", date)

	rec.ExifData.Set("DateTimeOriginal", "2023:06:01 07:00:00")
	date, _ = CaptureDate(rec)
	assert.Equal(t, "2023:06:01 07:00:00", date)

	_, ok = CaptureDate(newRecord())
	assert.False(t, ok)
}
