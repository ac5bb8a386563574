package container

import (
	"bytes"
	"fmt"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/bstardust/imgmeta/internal/exif"
)

const (
	tagCompression    = 0x0103
	tagXResolution    = 0x011a
	tagYResolution    = 0x011b
	tagResolutionUnit = 0x0128
)

var compressionNames = map[int64]string{
	1:     "raw",
	2:     "tiff_ccitt",
	3:     "group3",
	4:     "group4",
	5:     "tiff_lzw",
	6:     "tiff_jpeg",
	7:     "jpeg",
	8:     "tiff_adobe_deflate",
	32771: "tiff_raw_16",
	32773: "packbits",
	32809: "tiff_thunderscan",
	32946: "tiff_deflate",
	34676: "tiff_sgilog",
	34677: "tiff_sgilog24",
	34925: "lzma",
	50000: "zstd",
	50001: "webp",
}

// scanTIFF treats the whole file as the EXIF payload and reads IFD0 for
// compression and resolution.
func scanTIFF(data []byte, info *Info) error {
	info.EXIF = data

	if err := exif.CheckTIFF(data); err != nil {
		return fmt.Errorf("failed to decode TIFF header: %w", err)
	}
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode TIFF header: %w", err)
	}
	if len(t.Dirs) == 0 {
		return nil
	}

	tags := make(map[uint16]*tiff.Tag)
	for _, tag := range t.Dirs[0].Tags {
		tags[tag.Id] = tag
	}

	if tag, ok := tags[tagCompression]; ok {
		if v, err := tag.Int64(0); err == nil {
			if name, ok := compressionNames[v]; ok {
				info.Compression = name
			}
		}
	} else {
		info.Compression = "raw"
	}

	unit := int64(2)
	if tag, ok := tags[tagResolutionUnit]; ok {
		if v, err := tag.Int64(0); err == nil {
			unit = v
		}
	}
	x, xok := resolution(tags[tagXResolution])
	y, yok := resolution(tags[tagYResolution])
	if xok && yok {
		switch unit {
		case 2:
			info.DPI = []any{x, y}
		case 3:
			info.DPI = []any{x * 2.54, y * 2.54}
		}
	}
	return nil
}

func resolution(tag *tiff.Tag) (float64, bool) {
	if tag == nil || tag.Format() != tiff.RatVal {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}
