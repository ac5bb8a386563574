package container

import (
	"bytes"
	"encoding/binary"
)

const (
	markerSOF0  = 0xC0
	markerDHT   = 0xC4
	markerJPG   = 0xC8
	markerDAC   = 0xCC
	markerSOF15 = 0xCF
	markerSOS   = 0xDA
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerCOM   = 0xFE
)

var (
	jfifIdent = []byte("JFIF\x00")
	exifIdent = []byte("Exif\x00\x00")
	iccIdent  = []byte("ICC_PROFILE\x00")
)

func scanJPEG(data []byte, info *Info) error {
	pos := 2
	for pos < len(data) {
		if data[pos] != 0xFF {
			return ErrTruncated
		}
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			return ErrTruncated
		}
		marker := data[pos]
		pos++

		// standalone markers
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD8) {
			continue
		}
		if marker == 0xD9 || marker == markerSOS {
			return nil
		}

		if pos+2 > len(data) {
			return ErrTruncated
		}
		length := int(binary.BigEndian.Uint16(data[pos:]))
		if length < 2 || pos+length > len(data) {
			return ErrTruncated
		}
		seg := data[pos+2 : pos+length]
		pos += length

		switch {
		case marker == markerAPP0 && bytes.HasPrefix(seg, jfifIdent):
			jfifDensity(seg[len(jfifIdent):], info)
		case marker == markerAPP1 && bytes.HasPrefix(seg, exifIdent) && info.EXIF == nil:
			info.EXIF = seg
		case marker == markerAPP2 && bytes.HasPrefix(seg, iccIdent):
			info.ICCProfile = true
		case marker == markerCOM && info.Comment == nil:
			info.Comment = string(seg)
		case marker >= markerSOF0 && marker <= markerSOF15 &&
			marker != markerDHT && marker != markerJPG && marker != markerDAC:
			// SOF2, SOF6, SOF10 and SOF14 are progressive
			if marker&0x03 == 0x02 {
				info.Progressive = 1
			}
		}
	}
	return nil
}

// jfifDensity reads the JFIF version, unit and densities.
func jfifDensity(b []byte, info *Info) {
	if len(b) < 7 {
		return
	}
	unit := b[2]
	x := int(binary.BigEndian.Uint16(b[3:]))
	y := int(binary.BigEndian.Uint16(b[5:]))
	switch unit {
	case 1:
		info.DPI = []any{x, y}
	case 2:
		info.DPI = []any{float64(x) * 2.54, float64(y) * 2.54}
	}
}
