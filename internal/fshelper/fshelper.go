package fshelper

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bstardust/imgmeta/internal/fileinfo"
)

// NameFS is a filesystem that has a name and must be closed after use
type NameFS interface {
	fs.FS
	io.Closer
	Name() string
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
}

// NewDirFS wraps a directory on disk
func NewDirFS(dir string) *DirFS {
	return &DirFS{FS: os.DirFS(dir), name: dir}
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// Close is a no-op for directories
func (d *DirFS) Close() error {
	return nil
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	rc   io.Closer
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.rc != nil {
		return z.rc.Close()
	}
	return nil
}

// ParsePath expands globs and opens every match as a directory or zip
// filesystem. On error, filesystems opened so far are closed.
func ParsePath(paths []string) (fsyss []NameFS, err error) {
	defer func() {
		if err != nil {
			CloseAll(fsyss)
			fsyss = nil
		}
	}()

	for _, path := range paths {
		matches, err := filepath.Glob(path)
		if err != nil {
			return fsyss, fmt.Errorf("invalid glob pattern %s: %w", path, err)
		}

		if len(matches) == 0 {
			// No matches, try as a direct path
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					return fsyss, fmt.Errorf("path does not exist: %s", path)
				}
				return fsyss, fmt.Errorf("error accessing path %s: %w", path, err)
			}
			matches = []string{path}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return fsyss, fmt.Errorf("error accessing path %s: %w", match, err)
			}

			switch {
			case info.IsDir():
				fsyss = append(fsyss, NewDirFS(match))
			case strings.HasSuffix(strings.ToLower(match), ".zip"):
				zipFS, err := OpenZip(match)
				if err != nil {
					return fsyss, fmt.Errorf("error opening zip file %s: %w", match, err)
				}
				fsyss = append(fsyss, zipFS)
			default:
				return fsyss, fmt.Errorf("unsupported file type: %s", match)
			}
		}
	}

	return fsyss, nil
}

// CloseAll closes every filesystem, returning the joined close errors
func CloseAll(fsyss []NameFS) error {
	var errs []error
	for _, fsys := range fsyss {
		if err := fsys.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(path string) (*ZipFS, error) {
	zipFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	return &ZipFS{
		Reader: zipReader,
		name:   path,
		rc:     zipFile,
	}, nil
}

// ListImages walks fsys and returns the sorted paths of image files,
// skipping hidden files and directories
func ListImages(fsys fs.FS) ([]string, error) {
	var images []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != "." && fileinfo.IsHidden(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && fileinfo.IsImageFile(path) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk filesystem: %w", err)
	}
	sort.Strings(images)
	return images, nil
}

// Exists checks if a path exists
func Exists(fsys fs.FS, path string) (bool, error) {
	_, err := fs.Stat(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
