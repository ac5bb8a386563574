package metadata

import (
	"errors"
	"fmt"
)

// ErrFileTooLarge is wrapped by a FileAccessError when a file exceeds
// MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// FileAccessError means the image could not be opened or its header decoded.
// It becomes the record's top-level error.
type FileAccessError struct {
	Err error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("Failed to open image: %v", e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// ExifDecodeError means an EXIF payload was present but unreadable.
type ExifDecodeError struct {
	Err error
}

func (e *ExifDecodeError) Error() string {
	return fmt.Sprintf("Failed to extract EXIF data: %v", e.Err)
}

func (e *ExifDecodeError) Unwrap() error { return e.Err }

// TagDecodeError affects a single tag entry.
type TagDecodeError struct {
	Tag string
	Err error
}

func (e *TagDecodeError) Error() string {
	return fmt.Sprintf("Failed to decode tag: %v", e.Err)
}

func (e *TagDecodeError) Unwrap() error { return e.Err }

// GPSDecodeError is confined to the GPS section.
type GPSDecodeError struct {
	Err error
}

func (e *GPSDecodeError) Error() string {
	return fmt.Sprintf("Failed to extract GPS data: %v", e.Err)
}

func (e *GPSDecodeError) Unwrap() error { return e.Err }
