package metadata

import (
	"encoding/json"
	"fmt"
)

// ImageInfo keys, in output order.
var imageInfoKeys = []string{
	"dpi", "compression", "progressive", "transparency",
	"duration", "loop", "comment", "icc_profile",
}

// Record is the raw metadata of one image. It is built fresh by every
// extraction and is not modified afterwards.
type Record struct {
	// FileInfo is nil when the file could not be opened or decoded.
	FileInfo *FileInfo `json:"file_info"`
	// ExifData maps tag names to normalized strings, or holds a single "error" entry.
	ExifData *Fields `json:"exif_data"`
	// GPSData maps GPS tag names to strings plus the decimal fix and maps link.
	GPSData *Fields `json:"gps_data"`
	// ImageInfo carries every key from imageInfoKeys once the header decoded;
	// absent values are null.
	ImageInfo *Fields `json:"image_info"`
	Error     string  `json:"error,omitempty"`
	// TagConflicts lists tag names that were written more than once.
	TagConflicts []string `json:"tag_conflicts,omitempty"`
}

// FileInfo holds file-level properties from the filesystem and the decoder.
type FileInfo struct {
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	Format   string `json:"format"`
	Mode     string `json:"mode"`
	Size     [2]int `json:"size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func newRecord() *Record {
	return &Record{
		ExifData:  NewFields(),
		GPSData:   NewFields(),
		ImageInfo: NewFields(),
	}
}

// Failed reports whether the file itself could not be read.
func (r *Record) Failed() bool {
	return r.Error != ""
}

// MarshalJSON writes a missing FileInfo as an empty object.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	out := struct {
		FileInfo any `json:"file_info"`
		*plain
	}{plain: (*plain)(&r)}

	if r.FileInfo != nil {
		out.FileInfo = r.FileInfo
	} else {
		out.FileInfo = struct{}{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the output of MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		FileInfo json.RawMessage `json:"file_info"`
		*plain
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}

	r.FileInfo = nil
	if len(aux.FileInfo) > 0 && string(aux.FileInfo) != "{}" && string(aux.FileInfo) != "null" {
		var fi FileInfo
		if err := json.Unmarshal(aux.FileInfo, &fi); err != nil {
			return fmt.Errorf("failed to decode file_info: %w", err)
		}
		r.FileInfo = &fi
	}
	for _, f := range []**Fields{&r.ExifData, &r.GPSData, &r.ImageInfo} {
		if *f == nil {
			*f = NewFields()
		}
	}
	return nil
}

// ToMap flattens the headline values into a string map, e.g. for object
// metadata or plain-text output.
func (r *Record) ToMap() map[string]string {
	result := make(map[string]string)

	if r.FileInfo != nil {
		result["filename"] = r.FileInfo.Filename
		result["format"] = r.FileInfo.Format
		result["dimensions"] = fmt.Sprintf("%dx%d", r.FileInfo.Width, r.FileInfo.Height)
	}
	if v, ok := r.ExifData.String("Make"); ok {
		result["camera-make"] = v
	}
	if v, ok := r.ExifData.String("Model"); ok {
		result["camera-model"] = v
	}
	if v, ok := CaptureDate(r); ok {
		result["capture-date"] = v
	}
	if fix, ok := r.Fix(); ok {
		result["geo-latitude"] = fmt.Sprintf("%f", fix.Latitude)
		result["geo-longitude"] = fmt.Sprintf("%f", fix.Longitude)
	}
	if r.Error != "" {
		result["error"] = r.Error
	}

	return result
}
