// Package exiftest builds synthetic EXIF payloads and image files for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// TIFF field types.
const (
	TypeByte      uint16 = 1
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeUndefined uint16 = 7
	TypeSRational uint16 = 10
)

// Field is a single IFD entry. Data holds the little-endian encoded value.
type Field struct {
	ID    uint16
	Type  uint16
	Count uint32
	Data  []byte
}

func ASCII(id uint16, s string) Field {
	b := append([]byte(s), 0)
	return Field{ID: id, Type: TypeASCII, Count: uint32(len(b)), Data: b}
}

func Short(id uint16, vals ...uint16) Field {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return Field{ID: id, Type: TypeShort, Count: uint32(len(vals)), Data: b}
}

func Long(id uint16, vals ...uint32) Field {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return Field{ID: id, Type: TypeLong, Count: uint32(len(vals)), Data: b}
}

// Rational takes numerator/denominator pairs.
func Rational(id uint16, pairs ...uint32) Field {
	b := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return Field{ID: id, Type: TypeRational, Count: uint32(len(pairs) / 2), Data: b}
}

func Undefined(id uint16, data []byte) Field {
	return Field{ID: id, Type: TypeUndefined, Count: uint32(len(data)), Data: data}
}

func Bytes(id uint16, data []byte) Field {
	return Field{ID: id, Type: TypeByte, Count: uint32(len(data)), Data: data}
}

// Builder lays out IFD0 with optional Exif and GPS sub-IFDs.
type Builder struct {
	IFD0 []Field
	Exif []Field
	GPS  []Field
	// GPSOffset, when non-zero, overrides the GPS pointer value.
	GPSOffset uint32
}

const (
	tagExifIFD = 0x8769
	tagGPSIFD  = 0x8825
)

// TIFF returns the payload starting at the "II*\0" header.
func (b *Builder) TIFF() []byte {
	ifd0 := append([]Field(nil), b.IFD0...)
	if len(b.Exif) > 0 {
		ifd0 = append(ifd0, Long(tagExifIFD, 0))
	}
	if len(b.GPS) > 0 || b.GPSOffset != 0 {
		ifd0 = append(ifd0, Long(tagGPSIFD, 0))
	}

	ifd0Off := uint32(8)
	exifOff := ifd0Off + uint32(len(encodeIFD(ifd0, 0)))
	gpsOff := exifOff
	if len(b.Exif) > 0 {
		gpsOff += uint32(len(encodeIFD(b.Exif, 0)))
	}

	for i := range ifd0 {
		switch ifd0[i].ID {
		case tagExifIFD:
			ifd0[i] = Long(tagExifIFD, exifOff)
		case tagGPSIFD:
			off := gpsOff
			if b.GPSOffset != 0 {
				off = b.GPSOffset
			}
			ifd0[i] = Long(tagGPSIFD, off)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("II*\x00")
	_ = binary.Write(&buf, binary.LittleEndian, ifd0Off)
	buf.Write(encodeIFD(ifd0, ifd0Off))
	if len(b.Exif) > 0 {
		buf.Write(encodeIFD(b.Exif, exifOff))
	}
	if len(b.GPS) > 0 {
		buf.Write(encodeIFD(b.GPS, gpsOff))
	}
	return buf.Bytes()
}

// APP1 returns the payload with the JPEG "Exif\0\0" prefix.
func (b *Builder) APP1() []byte {
	return append([]byte("Exif\x00\x00"), b.TIFF()...)
}

// encodeIFD writes the directory followed by its out-of-line value area.
func encodeIFD(fields []Field, start uint32) []byte {
	dirLen := uint32(2 + 12*len(fields) + 4)
	var dir, data bytes.Buffer
	_ = binary.Write(&dir, binary.LittleEndian, uint16(len(fields)))
	for _, f := range fields {
		_ = binary.Write(&dir, binary.LittleEndian, f.ID)
		_ = binary.Write(&dir, binary.LittleEndian, f.Type)
		_ = binary.Write(&dir, binary.LittleEndian, f.Count)
		if len(f.Data) <= 4 {
			v := make([]byte, 4)
			copy(v, f.Data)
			dir.Write(v)
			continue
		}
		_ = binary.Write(&dir, binary.LittleEndian, start+dirLen+uint32(data.Len()))
		data.Write(f.Data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(&dir, binary.LittleEndian, uint32(0))
	return append(dir.Bytes(), data.Bytes()...)
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

// JPEG encodes a w×h image and inserts the given APP segments after SOI.
// Each segment is the marker byte followed by its payload.
func JPEG(w, h int, segments ...Segment) []byte {
	var enc bytes.Buffer
	_ = jpeg.Encode(&enc, testImage(w, h), nil)
	src := enc.Bytes()

	var out bytes.Buffer
	out.Write(src[:2])
	for _, s := range segments {
		out.Write([]byte{0xFF, s.Marker})
		_ = binary.Write(&out, binary.BigEndian, uint16(len(s.Data)+2))
		out.Write(s.Data)
	}
	out.Write(src[2:])
	return out.Bytes()
}

// Segment is a JPEG marker segment.
type Segment struct {
	Marker byte
	Data   []byte
}

// ExifSegment wraps an APP1 payload.
func ExifSegment(app1 []byte) Segment {
	return Segment{Marker: 0xE1, Data: app1}
}

// PNG encodes a w×h image and inserts extra chunks right after IHDR.
func PNG(w, h int, chunks ...Chunk) []byte {
	var enc bytes.Buffer
	_ = png.Encode(&enc, testImage(w, h))
	src := enc.Bytes()

	// signature (8) + IHDR chunk (4+4+13+4)
	const ihdrEnd = 8 + 25
	var out bytes.Buffer
	out.Write(src[:ihdrEnd])
	for _, c := range chunks {
		_ = binary.Write(&out, binary.BigEndian, uint32(len(c.Data)))
		body := append([]byte(c.Type), c.Data...)
		out.Write(body)
		_ = binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(body))
	}
	out.Write(src[ihdrEnd:])
	return out.Bytes()
}

// Chunk is a PNG chunk.
type Chunk struct {
	Type string
	Data []byte
}

// GIF encodes a paletted animation with two frames.
func GIF(w, h, delay, loop int) []byte {
	pal := color.Palette{color.Black, color.White, color.Transparent}
	frames := make([]*image.Paletted, 2)
	for i := range frames {
		frames[i] = image.NewPaletted(image.Rect(0, 0, w, h), pal)
	}
	var buf bytes.Buffer
	_ = gif.EncodeAll(&buf, &gif.GIF{
		Image:     frames,
		Delay:     []int{delay, delay},
		LoopCount: loop,
	})
	return buf.Bytes()
}
