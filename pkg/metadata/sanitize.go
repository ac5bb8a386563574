package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/bstardust/imgmeta/internal/exif"
)

// sanitizePrecision is the number of decimals rationals keep when they reach
// the sanitizer without having been normalized first.
const sanitizePrecision = 6

// Sanitize returns a JSON-encodable copy of v. Ordered maps stay ordered,
// other maps and sequences are rebuilt element by element, raw EXIF values
// are rendered and anything else without a JSON form becomes its string.
// Sanitize(Sanitize(v)) equals Sanitize(v).
func Sanitize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, json.Number:
		return x
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x
	case float32:
		return sanitizeFloat(float64(x))
	case float64:
		return sanitizeFloat(x)
	case *Fields:
		out := NewFields()
		x.Each(func(k string, val any) {
			out.Set(k, Sanitize(val))
		})
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Sanitize(val)
		}
		return out
	case exif.Rational:
		return x.Format(sanitizePrecision)
	case exif.Rationals:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = r.Format(sanitizePrecision)
		}
		return out
	case exif.Bytes:
		return exif.DecodeText(x)
	case []byte:
		return exif.DecodeText(x)
	case exif.Opaque:
		return Sanitize(x.V)
	case *FileInfo:
		if x == nil {
			return nil
		}
		return x
	case FileInfo:
		return x
	case *Record:
		if x == nil {
			return nil
		}
		return sanitizeRecord(x)
	case error:
		return x.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Sanitize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Sanitize(iter.Value().Interface())
		}
		return out
	}

	return stringify(v)
}

func sanitizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return f
}

func stringify(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = "Unable to convert value"
		}
	}()
	if st, ok := v.(fmt.Stringer); ok {
		return st.String()
	}
	return fmt.Sprint(v)
}

func sanitizeRecord(r *Record) *Record {
	out := &Record{
		Error:        r.Error,
		TagConflicts: append([]string(nil), r.TagConflicts...),
	}
	if r.FileInfo != nil {
		fi := *r.FileInfo
		out.FileInfo = &fi
	}
	out.ExifData = Sanitize(r.ExifData).(*Fields)
	out.GPSData = Sanitize(r.GPSData).(*Fields)
	out.ImageInfo = Sanitize(r.ImageInfo).(*Fields)
	if len(out.TagConflicts) == 0 {
		out.TagConflicts = nil
	}
	return out
}
