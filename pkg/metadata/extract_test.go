package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/imgmeta/internal/exif/exiftest"
)

func cameraExif() *exiftest.Builder {
	return &exiftest.Builder{
		IFD0: []exiftest.Field{
			exiftest.ASCII(0x010f, "Canon"),
			exiftest.ASCII(0x0110, "Canon EOS 5D"),
			exiftest.Short(0x0112, 1),
			exiftest.ASCII(0x0132, "2023:06:01 10:00:00"),
		},
		Exif: []exiftest.Field{
			exiftest.Rational(0x829a, 1, 250),
			exiftest.Rational(0x829d, 28, 10),
			exiftest.Short(0x8827, 400),
			exiftest.ASCII(0x9003, "2023:06:01 09:59:58"),
			exiftest.Undefined(0x9101, []byte{1, 2, 3, 0}),
		},
		GPS: []exiftest.Field{
			exiftest.ASCII(0x0001, "N"),
			exiftest.Rational(0x0002, 40, 1, 26, 1, 4614, 100),
			exiftest.ASCII(0x0003, "W"),
			exiftest.Rational(0x0004, 73, 1, 58, 1, 5628, 100),
		},
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestExtractJPEG(t *testing.T) {
	data := exiftest.JPEG(16, 8, exiftest.ExifSegment(cameraExif().APP1()))
	p := writeFile(t, "photo.jpg", data)

	rec := Extract(p)
	require.Empty(t, rec.Error)
	require.NotNil(t, rec.FileInfo)

	assert.Equal(t, "photo.jpg", rec.FileInfo.Filename)
	assert.Equal(t, p, rec.FileInfo.FilePath)
	assert.Equal(t, int64(len(data)), rec.FileInfo.FileSize)
	assert.Equal(t, "JPEG", rec.FileInfo.Format)
	assert.Equal(t, "RGB", rec.FileInfo.Mode)
	assert.Equal(t, [2]int{16, 8}, rec.FileInfo.Size)
	assert.Equal(t, 16, rec.FileInfo.Width)
	assert.Equal(t, 8, rec.FileInfo.Height)

	exifWant := map[string]string{
		"Make":                    "Canon",
		"Model":                   "Canon EOS 5D",
		"Orientation":             "1",
		"DateTime":                "2023:06:01 10:00:00",
		"ExposureTime":            "1/250 (0.00)",
		"FNumber":                 "28/10 (2.80)",
		"ISOSpeedRatings":         "400",
		"DateTimeOriginal":        "2023:06:01 09:59:58",
		"ComponentsConfiguration": "\x01\x02\x03\x00",
	}
	for k, want := range exifWant {
		got, ok := rec.ExifData.String(k)
		require.True(t, ok, k)
		assert.Equal(t, want, got, k)
	}
	assert.True(t, rec.ExifData.Has("ExifOffset"))
	assert.True(t, rec.ExifData.Has("GPSInfo"))
	assert.Equal(t, "Make", rec.ExifData.Keys()[0])

	lat, _ := rec.GPSData.String("GPSLatitude")
	assert.Equal(t, `40.0° 26.0' 46.14"`, lat)
	ref, _ := rec.GPSData.String("GPSLongitudeRef")
	assert.Equal(t, "W", ref)

	fix, ok := rec.Fix()
	require.True(t, ok)
	assert.InDelta(t, 40.44615, fix.Latitude, 1e-6)
	assert.InDelta(t, -73.9823, fix.Longitude, 1e-6)
	assert.Equal(t, "https://maps.google.com/?q=40.446149999999996,-73.9823", fix.MapsURL)
	assert.False(t, rec.GPSData.Has(KeyError))

	assert.Equal(t, imageInfoKeys, rec.ImageInfo.Keys())
	icc, _ := rec.ImageInfo.Get("icc_profile")
	assert.Equal(t, false, icc)
	dpi, ok := rec.ImageInfo.Get("dpi")
	assert.True(t, ok)
	assert.Nil(t, dpi)

	assert.Empty(t, rec.TagConflicts)
}

func TestExtractMissingFile(t *testing.T) {
	rec := Extract(filepath.Join(t.TempDir(), "missing.jpg"))

	assert.True(t, rec.Failed())
	assert.True(t, strings.HasPrefix(rec.Error, "Failed to open image: "), rec.Error)
	assert.Nil(t, rec.FileInfo)
	assert.Zero(t, rec.ExifData.Len())
	assert.Zero(t, rec.GPSData.Len())
	assert.Zero(t, rec.ImageInfo.Len())

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"file_info":{}`)
	assert.Contains(t, string(out), `"exif_data":{}`)
}

func TestExtractNotAnImage(t *testing.T) {
	p := writeFile(t, "notes.txt", []byte("just some text"))

	rec := Extract(p)
	assert.Equal(t, "Failed to open image: image: unknown format", rec.Error)
	assert.Nil(t, rec.FileInfo)
}

func TestExtractPNGWithoutExif(t *testing.T) {
	p := writeFile(t, "plain.png", exiftest.PNG(5, 7))

	rec := Extract(p)
	require.Empty(t, rec.Error)
	assert.Equal(t, "PNG", rec.FileInfo.Format)
	assert.Equal(t, "RGB", rec.FileInfo.Mode)
	assert.Zero(t, rec.ExifData.Len())
	assert.Zero(t, rec.GPSData.Len())
	assert.Equal(t, 8, rec.ImageInfo.Len())
	assert.Equal(t, NoMetadata, Summarize(rec))
}

func TestExtractPNGWithExif(t *testing.T) {
	b := &exiftest.Builder{IFD0: []exiftest.Field{exiftest.ASCII(0x010f, "Sony")}}
	p := writeFile(t, "exif.png", exiftest.PNG(2, 2, exiftest.Chunk{Type: "eXIf", Data: b.TIFF()}))

	rec := Extract(p)
	got, ok := rec.ExifData.String("Make")
	require.True(t, ok)
	assert.Equal(t, "Sony", got)
}

func TestExtractGIF(t *testing.T) {
	p := writeFile(t, "anim.gif", exiftest.GIF(3, 3, 7, 2))

	rec := Extract(p)
	require.Empty(t, rec.Error)
	assert.Equal(t, "GIF", rec.FileInfo.Format)
	assert.Equal(t, "P", rec.FileInfo.Mode)

	duration, _ := rec.ImageInfo.Get("duration")
	assert.Equal(t, 70, duration)
	loop, _ := rec.ImageInfo.Get("loop")
	assert.Equal(t, 2, loop)
}

func TestExtractCorruptExif(t *testing.T) {
	payload := append([]byte("Exif\x00\x00"), []byte("II*\x00\xff\xff\xff\x7f")...)
	p := writeFile(t, "corrupt.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(payload)))

	rec := Extract(p)
	require.Empty(t, rec.Error)
	require.NotNil(t, rec.FileInfo)
	msg, ok := rec.ExifData.String(KeyError)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Failed to extract EXIF data: "), msg)
	assert.Equal(t, 1, rec.ExifData.Len())
}

func TestExtractOversizedTagCount(t *testing.T) {
	b := &exiftest.Builder{IFD0: []exiftest.Field{
		{ID: 0x011a, Type: exiftest.TypeRational, Count: 0x20000001, Data: make([]byte, 8)},
	}}
	rec := ExtractBytes("corrupt-count.jpg", exiftest.JPEG(16, 8, exiftest.ExifSegment(b.APP1())))

	require.Empty(t, rec.Error)
	require.NotNil(t, rec.FileInfo)
	assert.Equal(t, [2]int{16, 8}, rec.FileInfo.Size)
	msg, ok := rec.ExifData.String(KeyError)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Failed to extract EXIF data: "), msg)
	assert.Zero(t, rec.GPSData.Len())
}

func TestExtractEmptyFile(t *testing.T) {
	p := writeFile(t, "empty.jpg", nil)

	rec := Extract(p)
	assert.Equal(t, "Failed to open image: image: unknown format", rec.Error)
	assert.Nil(t, rec.FileInfo)
	assert.Zero(t, rec.ExifData.Len())
	assert.Zero(t, rec.GPSData.Len())
	assert.Zero(t, rec.ImageInfo.Len())
}

func TestExtractFileTooLarge(t *testing.T) {
	data := exiftest.JPEG(16, 8, exiftest.ExifSegment(cameraExif().APP1()))
	p := writeFile(t, "big.jpg", data)
	fsys := fstest.MapFS{"big.jpg": &fstest.MapFile{Data: data}}

	prev := MaxFileSize
	MaxFileSize = int64(len(data)) - 1
	t.Cleanup(func() { MaxFileSize = prev })

	for name, rec := range map[string]*Record{
		"path": Extract(p),
		"fs":   ExtractFS(fsys, "big.jpg"),
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, rec.Failed())
			assert.True(t, strings.HasPrefix(rec.Error, "Failed to open image: file too large"), rec.Error)
			assert.Nil(t, rec.FileInfo)
			assert.Zero(t, rec.ExifData.Len())
		})
	}

	MaxFileSize = int64(len(data))
	rec := Extract(p)
	assert.Empty(t, rec.Error)
	assert.True(t, rec.ExifData.Has("Make"))
}

func TestExtractBadGPSReference(t *testing.T) {
	b := cameraExif()
	b.GPS[0] = exiftest.ASCII(0x0001, "X")

	rec := ExtractBytes("bad-ref.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(b.APP1())))

	msg, ok := rec.GPSData.String(KeyError)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Failed to extract GPS data: "), msg)
	assert.False(t, rec.GPSData.Has(KeyLatitudeDecimal))
	assert.False(t, rec.GPSData.Has(KeyLongitudeDecimal))
	assert.False(t, rec.GPSData.Has(KeyGoogleMaps))
	assert.False(t, rec.ExifData.Has(KeyError))

	_, ok = rec.Fix()
	assert.False(t, ok)
}

func TestExtractZeroDenominatorCoordinate(t *testing.T) {
	b := cameraExif()
	b.GPS[1] = exiftest.Rational(0x0002, 40, 1, 26, 0, 4614, 100)

	rec := ExtractBytes("zero.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(b.APP1())))

	lat, _ := rec.GPSData.String("GPSLatitude")
	assert.Equal(t, `40.0° 0' 46.14"`, lat)
	assert.True(t, rec.GPSData.Has(KeyError))
	assert.False(t, rec.GPSData.Has(KeyLatitudeDecimal))
}

func TestExtractSignedCoordinate(t *testing.T) {
	b := cameraExif()
	lat := exiftest.Rational(0x0002, 0xFFFFFFF6, 1, 30, 1, 0, 1)
	lat.Type = exiftest.TypeSRational
	b.GPS[0] = exiftest.ASCII(0x0001, "N")
	b.GPS[1] = lat

	rec := ExtractBytes("signed.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(b.APP1())))

	assert.False(t, rec.GPSData.Has(KeyError))
	fix, ok := rec.Fix()
	require.True(t, ok)
	assert.InDelta(t, -9.5, fix.Latitude, 1e-9)
}

func TestExtractPartialGPS(t *testing.T) {
	b := cameraExif()
	b.GPS = b.GPS[:2]

	rec := ExtractBytes("half.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(b.APP1())))

	assert.True(t, rec.GPSData.Has("GPSLatitude"))
	assert.False(t, rec.GPSData.Has(KeyError))
	assert.False(t, rec.GPSData.Has(KeyLatitudeDecimal))
}

func TestExtractDuplicateTagName(t *testing.T) {
	b := &exiftest.Builder{
		IFD0: []exiftest.Field{exiftest.ASCII(0x010f, "First"), exiftest.ASCII(0x0110, "M")},
		Exif: []exiftest.Field{exiftest.ASCII(0x010f, "Second")},
	}

	rec := ExtractBytes("dup.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(b.APP1())))

	got, _ := rec.ExifData.String("Make")
	assert.Equal(t, "Second", got)
	assert.Equal(t, "Make", rec.ExifData.Keys()[0])
	assert.Equal(t, []string{"Make"}, rec.TagConflicts)
}

func TestExtractFS(t *testing.T) {
	fsys := fstest.MapFS{
		"album/one.jpg": &fstest.MapFile{Data: exiftest.JPEG(4, 4, exiftest.ExifSegment(cameraExif().APP1()))},
	}

	rec := ExtractFS(fsys, "album/one.jpg")
	require.Empty(t, rec.Error)
	assert.Equal(t, "one.jpg", rec.FileInfo.Filename)
	assert.Equal(t, "album/one.jpg", rec.FileInfo.FilePath)
	assert.True(t, rec.ExifData.Has("Make"))

	missing := ExtractFS(fsys, "album/two.jpg")
	assert.True(t, missing.Failed())
}

func TestRecordJSON(t *testing.T) {
	rec := ExtractBytes("photo.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(cameraExif().APP1())))

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `"format":"JPEG"`)
	assert.Contains(t, s, `"size":[4,4]`)
	assert.Less(t, strings.Index(s, `"Make"`), strings.Index(s, `"Model"`))
	assert.NotContains(t, s, `"error"`)
	assert.NotContains(t, s, `"tag_conflicts"`)

	var back Record
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, rec.FileInfo, back.FileInfo)
	assert.Equal(t, rec.ExifData.Keys(), back.ExifData.Keys())
	fix, ok := back.Fix()
	require.True(t, ok)
	assert.InDelta(t, -73.9823, fix.Longitude, 1e-9)
}

func TestRecordToMap(t *testing.T) {
	rec := ExtractBytes("photo.jpg", exiftest.JPEG(4, 4, exiftest.ExifSegment(cameraExif().APP1())))

	m := rec.ToMap()
	assert.Equal(t, "Canon", m["camera-make"])
	assert.Equal(t, "Canon EOS 5D", m["camera-model"])
	assert.Equal(t, "2023:06:01 09:59:58", m["capture-date"])
	assert.Equal(t, "4x4", m["dimensions"])
	assert.Equal(t, "40.446150", m["geo-latitude"])
}
