package exif

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the number of characters kept when decoding byte values.
const MaxTextLength = 100

// Value is a raw tag value as read from an IFD, before normalization.
// The set of implementations is closed: Bytes, Rational, Rationals and Opaque.
type Value interface {
	isValue()
}

// Bytes holds BYTE and UNDEFINED tag payloads.
type Bytes []byte

// Rational is a single RATIONAL or SRATIONAL value.
type Rational struct {
	Num int64
	Den int64
}

// Rationals is a tuple of rationals, e.g. a GPS coordinate triple.
type Rationals []Rational

// Opaque wraps everything else: strings, integers, floats and their tuples.
type Opaque struct {
	V any
}

func (Bytes) isValue()     {}
func (Rational) isValue()  {}
func (Rationals) isValue() {}
func (Opaque) isValue()    {}

// Float returns n/d. ok is false when the denominator is zero.
func (r Rational) Float() (f float64, ok bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

// Format renders the rational as "n/d (x)" with the given number of decimals.
func (r Rational) Format(decimals int) string {
	f, ok := r.Float()
	if !ok {
		return fmt.Sprintf("%d/0 (undefined)", r.Num)
	}
	return fmt.Sprintf("%d/%d (%s)", r.Num, r.Den, strconv.FormatFloat(f, 'f', decimals, 64))
}

// String uses the extraction precision.
func (r Rational) String() string {
	return r.Format(2)
}

// Normalize converts a raw value into its display string. It never panics.
func Normalize(v Value) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = "Unable to convert value"
		}
	}()

	switch val := v.(type) {
	case Bytes:
		return Truncate(DecodeText(val), MaxTextLength)
	case Rational:
		return val.Format(2)
	case Rationals:
		if len(val) == 0 {
			return "()"
		}
		parts := make([]string, len(val))
		for i, r := range val {
			parts[i] = r.Format(2)
		}
		return strings.Join(parts, ", ")
	case Opaque:
		return formatOpaque(val.V)
	case nil:
		return "None"
	default:
		return fmt.Sprint(val)
	}
}

// DecodeText decodes b as UTF-8, dropping invalid sequences.
func DecodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			sb.WriteRune(r)
		}
		b = b[size:]
	}
	return sb.String()
}

// Truncate cuts s to max characters and appends "..." when it was longer.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// FormatFloat renders f the way the rest of the system prints plain floats:
// shortest representation, always with a fractional part.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func formatOpaque(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return FormatFloat(x)
	case []int64:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return tuple(parts)
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = FormatFloat(f)
		}
		return tuple(parts)
	case fmt.Stringer:
		return x.String()
	case nil:
		return "None"
	default:
		return fmt.Sprint(x)
	}
}

func tuple(parts []string) string {
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
