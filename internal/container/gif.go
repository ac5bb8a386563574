package container

import (
	"bytes"
	"encoding/binary"
)

const (
	gifExtension  = 0x21
	gifImage      = 0x2C
	gifTrailer    = 0x3B
	gifGraphicCtl = 0xF9
	gifComment    = 0xFE
	gifAppExt     = 0xFF
)

var netscapeIdent = []byte("NETSCAPE2.0")

// scanGIF reads the extensions that precede the first frame.
func scanGIF(data []byte, info *Info) error {
	const headerLen = 13
	if len(data) < headerLen {
		return ErrTruncated
	}
	pos := headerLen
	if flags := data[10]; flags&0x80 != 0 {
		pos += 3 << ((flags & 0x07) + 1)
	}

	for pos < len(data) {
		switch data[pos] {
		case gifTrailer, gifImage:
			return nil
		case gifExtension:
			if pos+2 > len(data) {
				return ErrTruncated
			}
			label := data[pos+1]
			blocks, next, err := subBlocks(data, pos+2)
			if err != nil {
				return err
			}
			pos = next
			gifExtensionInfo(label, blocks, info)
		default:
			return ErrTruncated
		}
	}
	return nil
}

func gifExtensionInfo(label byte, blocks [][]byte, info *Info) {
	if len(blocks) == 0 {
		return
	}
	switch label {
	case gifGraphicCtl:
		b := blocks[0]
		if len(b) < 4 {
			return
		}
		if info.Duration == nil {
			info.Duration = int(binary.LittleEndian.Uint16(b[1:])) * 10
		}
		if b[0]&0x01 != 0 && info.Transparency == nil {
			info.Transparency = int(b[3])
		}
	case gifAppExt:
		if bytes.Equal(blocks[0], netscapeIdent) && len(blocks) > 1 {
			if b := blocks[1]; len(b) >= 3 && b[0] == 1 {
				info.Loop = int(binary.LittleEndian.Uint16(b[1:]))
			}
		}
	case gifComment:
		if info.Comment == nil {
			info.Comment = string(bytes.Join(blocks, nil))
		}
	}
}

// subBlocks collects data sub-blocks starting at pos up to the terminator.
func subBlocks(data []byte, pos int) ([][]byte, int, error) {
	var out [][]byte
	for {
		if pos >= len(data) {
			return nil, pos, ErrTruncated
		}
		n := int(data[pos])
		pos++
		if n == 0 {
			return out, pos, nil
		}
		if pos+n > len(data) {
			return nil, pos, ErrTruncated
		}
		out = append(out, data[pos:pos+n])
		pos += n
	}
}
