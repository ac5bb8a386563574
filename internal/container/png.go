package container

import (
	"encoding/binary"
)

func scanPNG(data []byte, info *Info) error {
	pos := len(magicPNG)
	var colorType byte
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			return ErrTruncated
		}
		chunk := data[start:end]
		pos = end + 4

		switch typ {
		case "IHDR":
			if len(chunk) < 13 {
				return ErrTruncated
			}
			colorType = chunk[9]
			info.Mode = pngMode(chunk[8], colorType)
		case "pHYs":
			if len(chunk) >= 9 && chunk[8] == 1 {
				px := float64(binary.BigEndian.Uint32(chunk[0:]))
				py := float64(binary.BigEndian.Uint32(chunk[4:]))
				info.DPI = []any{px * 0.0254, py * 0.0254}
			}
		case "tRNS":
			info.Transparency = pngTransparency(colorType, chunk)
		case "iCCP":
			info.ICCProfile = true
		case "eXIf":
			if info.EXIF == nil {
				info.EXIF = chunk
			}
		case "IEND":
			return nil
		}
	}
	return nil
}

func pngMode(depth, colorType byte) string {
	switch colorType {
	case 0:
		switch depth {
		case 1:
			return "1"
		case 16:
			return "I;16"
		}
		return "L"
	case 2:
		return "RGB"
	case 3:
		return "P"
	case 4:
		return "LA"
	case 6:
		return "RGBA"
	}
	return ""
}

// pngTransparency follows the tRNS layout for each color type. A palette with
// exactly one fully transparent entry collapses to that index.
func pngTransparency(colorType byte, chunk []byte) any {
	switch colorType {
	case 0:
		if len(chunk) >= 2 {
			return int(binary.BigEndian.Uint16(chunk))
		}
	case 2:
		if len(chunk) >= 6 {
			return []any{
				int(binary.BigEndian.Uint16(chunk[0:])),
				int(binary.BigEndian.Uint16(chunk[2:])),
				int(binary.BigEndian.Uint16(chunk[4:])),
			}
		}
	case 3:
		idx, zeros, partial := -1, 0, false
		for i, a := range chunk {
			switch a {
			case 0:
				if idx < 0 {
					idx = i
				}
				zeros++
			case 255:
			default:
				partial = true
			}
		}
		if zeros == 1 && !partial {
			return idx
		}
		alphas := make([]any, len(chunk))
		for i, a := range chunk {
			alphas[i] = int(a)
		}
		return alphas
	}
	return nil
}
