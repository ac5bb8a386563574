// internal/exif/exif.go
package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoPointer is returned by sub-IFD lookups when IFD0 has no such pointer.
var ErrNoPointer = errors.New("sub-IFD pointer not present")

// Entry is one decoded tag. Err is set when the raw value could not be read;
// Value is nil in that case.
type Entry struct {
	ID    uint16
	Name  string
	Value Value
	Err   error
}

// Directory is the decoded content of an EXIF payload.
type Directory struct {
	// Main holds IFD0 followed by the Exif sub-IFD, in file order.
	Main []Entry
	// GPS holds the GPS sub-IFD. It is nil when there is no GPS pointer.
	GPS []Entry
	// GPSErr is set when the GPS pointer exists but the directory is unreadable.
	GPSErr error
}

// HasGPS reports whether IFD0 pointed at a GPS directory.
func (d *Directory) HasGPS() bool {
	return d.GPS != nil || d.GPSErr != nil
}

// Decode parses a TIFF-structured EXIF payload. The payload may carry the
// "Exif\x00\x00" APP1 prefix. A failure to read the Exif sub-IFD is not fatal:
// IFD0 entries are still returned.
func Decode(payload []byte) (dir *Directory, err error) {
	defer func() {
		if r := recover(); r != nil {
			dir = nil
			err = fmt.Errorf("exif decoder panic: %v", r)
		}
	}()

	raw := bytes.TrimPrefix(payload, []byte("Exif\x00\x00"))
	if len(raw) < 8 {
		return nil, errors.New("payload too short for a TIFF header")
	}
	if err := CheckTIFF(raw); err != nil {
		return nil, err
	}

	x, err := exif.Decode(bytes.NewReader(raw))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		if err == nil {
			err = errors.New("no TIFF directory")
		}
		return nil, err
	}
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return nil, errors.New("no TIFF directory")
	}

	r := bytes.NewReader(raw)
	order := x.Tiff.Order
	ifd0 := x.Tiff.Dirs[0]

	dir = &Directory{Main: entries(ifd0.Tags, TagName)}

	if sub, err := subDir(r, order, ifd0, TagExifIFD); err == nil {
		dir.Main = append(dir.Main, entries(sub.Tags, TagName)...)
	}

	gps, gpsErr := subDir(r, order, ifd0, TagGPSIFD)
	switch {
	case gpsErr == nil:
		dir.GPS = entries(gps.Tags, GPSTagName)
		if dir.GPS == nil {
			dir.GPS = []Entry{}
		}
	case !errors.Is(gpsErr, ErrNoPointer):
		dir.GPSErr = gpsErr
	}

	return dir, nil
}

func subDir(r *bytes.Reader, order binary.ByteOrder, ifd0 *tiff.Dir, pointer uint16) (*tiff.Dir, error) {
	var ptr *tiff.Tag
	for _, t := range ifd0.Tags {
		if t.Id == pointer {
			ptr = t
			break
		}
	}
	if ptr == nil {
		return nil, ErrNoPointer
	}

	offset, err := ptr.Int64(0)
	if err != nil {
		return nil, fmt.Errorf("invalid sub-IFD pointer: %w", err)
	}
	if offset <= 0 || offset >= r.Size() {
		return nil, fmt.Errorf("sub-IFD offset %d out of range", offset)
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	d, _, err := tiff.DecodeDir(r, order)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sub-IFD: %w", err)
	}
	return d, nil
}

func entries(tags []*tiff.Tag, name func(uint16) string) []Entry {
	var out []Entry
	for _, t := range tags {
		v, err := valueOf(t)
		out = append(out, Entry{ID: t.Id, Name: name(t.Id), Value: v, Err: err})
	}
	return out
}

// valueOf maps a tiff tag onto the closed Value variant.
func valueOf(t *tiff.Tag) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("%v", r)
		}
	}()

	if t.Type == tiff.DTByte || t.Type == tiff.DTUndefined {
		return Bytes(append([]byte(nil), t.Val...)), nil
	}

	n := int(t.Count)
	switch t.Format() {
	case tiff.RatVal:
		rats := make(Rationals, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := t.Rat2(i)
			if err != nil {
				return nil, err
			}
			rats = append(rats, Rational{Num: num, Den: den})
		}
		if len(rats) == 1 {
			return rats[0], nil
		}
		return rats, nil
	case tiff.IntVal:
		ints := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			x, err := t.Int64(i)
			if err != nil {
				return nil, err
			}
			ints = append(ints, x)
		}
		if len(ints) == 1 {
			return Opaque{V: ints[0]}, nil
		}
		return Opaque{V: ints}, nil
	case tiff.FloatVal:
		floats := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			x, err := t.Float(i)
			if err != nil {
				return nil, err
			}
			floats = append(floats, x)
		}
		if len(floats) == 1 {
			return Opaque{V: floats[0]}, nil
		}
		return Opaque{V: floats}, nil
	case tiff.StringVal:
		s, err := t.StringVal()
		if err != nil {
			return nil, err
		}
		return Opaque{V: strings.TrimRight(s, "\x00")}, nil
	default:
		return Bytes(append([]byte(nil), t.Val...)), nil
	}
}
