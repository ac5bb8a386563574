package container

import (
	"encoding/binary"
)

func scanWebP(data []byte, info *Info) error {
	pos := 12
	for pos+8 <= len(data) {
		fourcc := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		start := pos + 8
		end := start + size
		if size < 0 || end > len(data) {
			return ErrTruncated
		}
		chunk := data[start:end]
		pos = end + size%2

		switch fourcc {
		case "ICCP":
			info.ICCProfile = true
		case "EXIF":
			if info.EXIF == nil {
				info.EXIF = chunk
			}
		case "ANIM":
			if len(chunk) >= 6 {
				info.Loop = int(binary.LittleEndian.Uint16(chunk[4:]))
			}
		case "ANMF":
			if len(chunk) >= 15 && info.Duration == nil {
				b := chunk[12:15]
				info.Duration = int(b[0]) | int(b[1])<<8 | int(b[2])<<16
			}
		}
	}
	return nil
}
