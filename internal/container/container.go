// Package container walks image file structures (JPEG segments, PNG chunks,
// GIF blocks, RIFF chunks, TIFF IFD0) to find the EXIF payload and the
// file-level properties image decoders do not expose.
package container

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrTruncated reports a structure that ends before its declared length.
var ErrTruncated = errors.New("truncated container")

// Info is what a container scan found. Nil interface fields mean absent.
type Info struct {
	// Kind is the detected container ("jpeg", "png", "gif", "webp", "tiff") or "".
	Kind string
	// EXIF is the TIFF-structured payload, possibly with an "Exif\0\0" prefix.
	EXIF []byte
	// Mode overrides the decoder-derived color mode when the container is more precise.
	Mode string

	DPI          any
	Compression  any
	Progressive  any
	Transparency any
	Duration     any
	Loop         any
	Comment      any
	ICCProfile   bool
}

var (
	magicJPEG = []byte{0xFF, 0xD8}
	magicPNG  = []byte("\x89PNG\r\n\x1a\n")
	magicGIF7 = []byte("GIF87a")
	magicGIF9 = []byte("GIF89a")
	magicII   = []byte("II*\x00")
	magicMM   = []byte("MM\x00*")
)

// Scan inspects data. It always returns a usable Info; the error describes
// the first structural problem that stopped the walk early.
func Scan(data []byte) (info *Info, err error) {
	info = &Info{}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container scan panic: %v", r)
		}
	}()

	switch {
	case bytes.HasPrefix(data, magicJPEG):
		info.Kind = "jpeg"
		err = scanJPEG(data, info)
	case bytes.HasPrefix(data, magicPNG):
		info.Kind = "png"
		err = scanPNG(data, info)
	case bytes.HasPrefix(data, magicGIF7), bytes.HasPrefix(data, magicGIF9):
		info.Kind = "gif"
		err = scanGIF(data, info)
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		info.Kind = "webp"
		err = scanWebP(data, info)
	case bytes.HasPrefix(data, magicII), bytes.HasPrefix(data, magicMM):
		info.Kind = "tiff"
		err = scanTIFF(data, info)
	}
	return info, err
}
