package exif

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// maxDirs bounds the IFD chain walk.
const maxDirs = 16

// typeSizes holds the byte width of each TIFF field type.
var typeSizes = [...]uint64{
	1:  1, // BYTE
	2:  1, // ASCII
	3:  2, // SHORT
	4:  4, // LONG
	5:  8, // RATIONAL
	6:  1, // SBYTE
	7:  1, // UNDEFINED
	8:  2, // SSHORT
	9:  4, // SLONG
	10: 8, // SRATIONAL
	11: 4, // FLOAT
	12: 8, // DOUBLE
}

// CheckTIFF walks the IFD0 chain and the Exif, GPS and Interop sub-IFDs of a
// TIFF payload and rejects any entry whose declared value is larger than the
// payload itself. The decoder allocates a value buffer from the declared
// count before reading it, so such an entry must never reach it.
//
// Structural problems the decoder reports on its own, such as truncated
// tables or dangling offsets, are left to it.
func CheckTIFF(raw []byte) error {
	if len(raw) < 8 {
		return errors.New("payload too short for a TIFF header")
	}
	var order binary.ByteOrder
	switch string(raw[:4]) {
	case "II*\x00":
		order = binary.LittleEndian
	case "MM\x00*":
		order = binary.BigEndian
	default:
		return errors.New("bad TIFF header")
	}

	c := &checker{raw: raw, order: order, seen: make(map[uint32]bool)}

	var pointers []uint32
	next := order.Uint32(raw[4:8])
	for i := 0; next != 0 && i < maxDirs; i++ {
		ptrs, n, err := c.dir(next)
		if err != nil {
			return fmt.Errorf("IFD%d: %w", i, err)
		}
		if i == 0 {
			pointers = append(pointers, ptrs[TagExifIFD], ptrs[TagGPSIFD])
		}
		next = n
	}

	for len(pointers) > 0 {
		off := pointers[0]
		pointers = pointers[1:]
		if off == 0 {
			continue
		}
		ptrs, _, err := c.dir(off)
		if err != nil {
			return fmt.Errorf("sub-IFD at %d: %w", off, err)
		}
		pointers = append(pointers, ptrs[TagInteropIFD])
	}
	return nil
}

type checker struct {
	raw   []byte
	order binary.ByteOrder
	seen  map[uint32]bool
}

// dir checks the entries of the directory at off. It returns the sub-IFD
// pointers found there and the offset of the next directory in the chain.
func (c *checker) dir(off uint32) (map[uint16]uint32, uint32, error) {
	size := uint64(len(c.raw))
	if c.seen[off] || uint64(off)+2 > size {
		return nil, 0, nil
	}
	c.seen[off] = true

	n := uint64(c.order.Uint16(c.raw[off:]))
	base := uint64(off) + 2
	if base+12*n > size {
		return nil, 0, nil
	}

	ptrs := make(map[uint16]uint32)
	for i := uint64(0); i < n; i++ {
		e := c.raw[base+12*i : base+12*i+12]
		tag := c.order.Uint16(e[0:])
		typ := c.order.Uint16(e[2:])
		count := uint64(c.order.Uint32(e[4:]))
		value := c.order.Uint32(e[8:])

		if count > size {
			return nil, 0, fmt.Errorf("tag 0x%04x declares %d values in a %d byte payload", tag, count, size)
		}
		if int(typ) < len(typeSizes) && typeSizes[typ] > 0 {
			if need := typeSizes[typ] * count; need > size {
				return nil, 0, fmt.Errorf("tag 0x%04x declares %d value bytes in a %d byte payload", tag, need, size)
			}
		}

		switch tag {
		case TagExifIFD, TagGPSIFD, TagInteropIFD:
			ptrs[tag] = value
		}
	}

	var next uint32
	if end := base + 12*n; end+4 <= size {
		next = c.order.Uint32(c.raw[end:])
	}
	return ptrs, next, nil
}
