package fileinfo

import (
	"path"
	"strings"
)

// Extensions of the image formats the extractor can decode
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
}

// IsImageFile checks if a file is an image based on its extension
func IsImageFile(filename string) bool {
	return imageExtensions[strings.ToLower(path.Ext(filename))]
}

// IsHidden reports dot-files and macOS resource forks such as "._IMG_0001.JPG"
func IsHidden(filename string) bool {
	return strings.HasPrefix(path.Base(filename), ".")
}
