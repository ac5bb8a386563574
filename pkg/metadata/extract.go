package metadata

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	// registered header decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bstardust/imgmeta/internal/container"
	"github.com/bstardust/imgmeta/internal/exif"
	"github.com/bstardust/imgmeta/internal/logger"
)

// MaxFileSize caps how many bytes of a file are read. Larger files are
// reported as a file access error.
var MaxFileSize int64 = 256 << 20

// Extract reads the metadata of the image at path. It never fails: problems
// are reported inside the returned record.
func Extract(p string) *Record {
	f, err := os.Open(p)
	if err != nil {
		return failed(&FileAccessError{Err: err})
	}
	defer f.Close()

	size := int64(-1)
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	if size > MaxFileSize {
		return failed(&FileAccessError{Err: tooLarge()})
	}

	data, err := readLimited(f)
	if err != nil {
		return failed(&FileAccessError{Err: err})
	}
	if size < 0 {
		size = int64(len(data))
	}
	return extract(filepath.Base(p), p, size, data)
}

// ExtractFS reads name from fsys, e.g. a member of a zip archive.
func ExtractFS(fsys fs.FS, name string) *Record {
	f, err := fsys.Open(name)
	if err != nil {
		return failed(&FileAccessError{Err: err})
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return failed(&FileAccessError{Err: err})
	}
	size := int64(len(data))
	if st, err := f.Stat(); err == nil && !st.IsDir() {
		size = st.Size()
	}
	return extract(path.Base(name), name, size, data)
}

// ExtractBytes treats data as the content of a file called name.
func ExtractBytes(name string, data []byte) *Record {
	return extract(path.Base(name), name, int64(len(data)), data)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxFileSize {
		return nil, tooLarge()
	}
	return data, nil
}

func tooLarge() error {
	return fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, MaxFileSize)
}

func failed(err error) *Record {
	logger.Debug("Metadata extraction failed: %v", err)
	rec := newRecord()
	rec.Error = err.Error()
	return rec
}

func extract(base, filePath string, size int64, data []byte) *Record {
	cfg, format, err := decodeConfig(data)
	if err != nil {
		return failed(&FileAccessError{Err: err})
	}

	info, err := container.Scan(data)
	if err != nil {
		logger.Debug("Container scan of %s stopped early: %v", filePath, err)
	}

	mode := info.Mode
	if mode == "" {
		mode = colorMode(cfg.ColorModel)
	}

	rec := newRecord()
	rec.FileInfo = &FileInfo{
		Filename: base,
		FilePath: filePath,
		FileSize: size,
		Format:   strings.ToUpper(format),
		Mode:     mode,
		Size:     [2]int{cfg.Width, cfg.Height},
		Width:    cfg.Width,
		Height:   cfg.Height,
	}
	fillImageInfo(rec.ImageInfo, info)

	if len(info.EXIF) > 0 {
		readExif(rec, info.EXIF)
	}

	return sanitizeRecord(rec)
}

func decodeConfig(data []byte) (cfg image.Config, format string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return image.DecodeConfig(bytes.NewReader(data))
}

func fillImageInfo(f *Fields, info *container.Info) {
	values := map[string]any{
		"dpi":          info.DPI,
		"compression":  info.Compression,
		"progressive":  info.Progressive,
		"transparency": info.Transparency,
		"duration":     info.Duration,
		"loop":         info.Loop,
		"comment":      info.Comment,
		"icc_profile":  info.ICCProfile,
	}
	for _, k := range imageInfoKeys {
		f.Set(k, values[k])
	}
}

// colorMode names the decoder's color model the way imaging tools usually
// print it.
func colorMode(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.YCbCrModel, color.RGBAModel, color.RGBA64Model:
		return "RGB"
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return "RGB"
}

func readExif(rec *Record, payload []byte) {
	dir, err := exif.Decode(payload)
	if err != nil {
		e := &ExifDecodeError{Err: err}
		logger.Debug("%s: %v", rec.FileInfo.FilePath, e)
		rec.ExifData.Set(KeyError, e.Error())
		return
	}

	seen := make(map[string]bool)
	for _, e := range dir.Main {
		var s string
		if e.Err != nil {
			s = (&TagDecodeError{Tag: e.Name, Err: e.Err}).Error()
		} else {
			s = exif.Normalize(e.Value)
		}
		if rec.ExifData.Set(e.Name, s) && !seen[e.Name] {
			seen[e.Name] = true
			rec.TagConflicts = append(rec.TagConflicts, e.Name)
		}
	}

	if dir.HasGPS() {
		readGPS(rec, dir)
	}
}

func readGPS(rec *Record, dir *exif.Directory) {
	if dir.GPSErr != nil {
		e := &GPSDecodeError{Err: dir.GPSErr}
		logger.Debug("%s: %v", rec.FileInfo.FilePath, e)
		rec.GPSData.Set(KeyError, e.Error())
		return
	}

	var lat, lon, latRef, lonRef Value
	for _, e := range dir.GPS {
		if e.Err != nil {
			rec.GPSData.Set(e.Name, (&TagDecodeError{Tag: e.Name, Err: e.Err}).Error())
			continue
		}
		switch e.ID {
		case exif.TagGPSLatitude:
			lat = e.Value
		case exif.TagGPSLatitudeRef:
			latRef = e.Value
		case exif.TagGPSLongitude:
			lon = e.Value
		case exif.TagGPSLongitudeRef:
			lonRef = e.Value
		}

		var s string
		if triple, ok := e.Value.(exif.Rationals); ok &&
			(e.ID == exif.TagGPSLatitude || e.ID == exif.TagGPSLongitude) {
			s = formatDMS(triple)
		} else {
			s = exif.Normalize(e.Value)
		}
		rec.GPSData.Set(e.Name, s)
	}

	if lat == nil || lon == nil || latRef == nil || lonRef == nil {
		return
	}

	fix, err := fixFromValues(lat, latRef, lon, lonRef)
	if err != nil {
		e := &GPSDecodeError{Err: err}
		logger.Debug("%s: %v", rec.FileInfo.FilePath, e)
		rec.GPSData.Set(KeyError, e.Error())
		return
	}
	rec.GPSData.Set(KeyLatitudeDecimal, fix.Latitude)
	rec.GPSData.Set(KeyLongitudeDecimal, fix.Longitude)
	rec.GPSData.Set(KeyGoogleMaps, fix.MapsURL)
}

// fixFromValues converts the four raw GPS fields into a position.
func fixFromValues(lat, latRef, lon, lonRef Value) (GPSFix, error) {
	latDMS, err := DMSFromValue(lat)
	if err != nil {
		return GPSFix{}, fmt.Errorf("latitude: %w", err)
	}
	lonDMS, err := DMSFromValue(lon)
	if err != nil {
		return GPSFix{}, fmt.Errorf("longitude: %w", err)
	}
	la, _ := RefFromValue(latRef)
	lo, _ := RefFromValue(lonRef)
	return NewFix(latDMS, la, lonDMS, lo)
}
