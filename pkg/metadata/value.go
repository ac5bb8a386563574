package metadata

import "github.com/bstardust/imgmeta/internal/exif"

// Raw EXIF value variants.
type (
	Value     = exif.Value
	Bytes     = exif.Bytes
	Rational  = exif.Rational
	Rationals = exif.Rationals
	Opaque    = exif.Opaque
)

// Normalize converts one raw tag value into its display string.
func Normalize(v Value) string {
	return exif.Normalize(v)
}
