package scanner

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bstardust/imgmeta/internal/config"
	"github.com/bstardust/imgmeta/internal/fileinfo"
	"github.com/bstardust/imgmeta/internal/fshelper"
	"github.com/bstardust/imgmeta/internal/retry"
	"github.com/bstardust/imgmeta/pkg/common"
	"github.com/bstardust/imgmeta/pkg/metadata"
	"github.com/bstardust/imgmeta/pkg/s3client"
)

// Source is one place images are scanned from
type Source interface {
	Name() string
	// List returns the image paths, relative to the source
	List(ctx context.Context) ([]string, error)
	// Extract reads one listed image. Errors mean the bytes could not be
	// fetched; decoding problems are reported inside the record.
	Extract(ctx context.Context, path string) (*metadata.Record, error)
	Close() error
}

// FSSource scans a directory or zip archive
type FSSource struct {
	fsys fshelper.NameFS
}

// NewFSSource wraps an opened filesystem
func NewFSSource(fsys fshelper.NameFS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) Name() string { return s.fsys.Name() }

func (s *FSSource) List(ctx context.Context) ([]string, error) {
	return fshelper.ListImages(s.fsys)
}

func (s *FSSource) Extract(ctx context.Context, path string) (*metadata.Record, error) {
	return metadata.ExtractFS(s.fsys, path), nil
}

func (s *FSSource) Close() error { return s.fsys.Close() }

// S3Source scans the objects under a bucket prefix
type S3Source struct {
	store   s3client.ObjectStore
	prefix  string
	maxSize int64
	retry   retry.Config
}

// NewS3Source lists prefix in store and downloads at most maxSize bytes per object
func NewS3Source(store s3client.ObjectStore, prefix string, maxSize int64) *S3Source {
	return &S3Source{
		store:   store,
		prefix:  prefix,
		maxSize: maxSize,
		retry:   retry.DefaultConfig(),
	}
}

func (s *S3Source) Name() string {
	return "s3://" + path.Join(s.store.GetBucketName(), s.prefix)
}

func (s *S3Source) List(ctx context.Context) ([]string, error) {
	var objects []string
	err := retry.WithBackoff(ctx, "list "+s.Name(), func() error {
		infos, err := s.store.ListObjects(ctx, s.prefix)
		if err != nil {
			return err
		}
		objects = objects[:0]
		for _, info := range infos {
			if fileinfo.IsImageFile(info.Key) && !fileinfo.IsHidden(info.Key) {
				objects = append(objects, info.Key)
			}
		}
		return nil
	}, s.retry)
	if err != nil {
		return nil, common.NewSourceError(s.Name(), s3client.FormatError(err))
	}
	return objects, nil
}

func (s *S3Source) Extract(ctx context.Context, key string) (*metadata.Record, error) {
	var data []byte
	err := retry.WithBackoff(ctx, "read "+key, func() error {
		var err error
		data, err = s.store.ReadObject(ctx, key, s.maxSize)
		return err
	}, s.retry)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, common.NewSourceError(s.Name(), s3client.FormatError(err))
	}
	return metadata.ExtractBytes(key, data), nil
}

func (s *S3Source) Close() error { return nil }

// newObjectStore is swapped in tests
var newObjectStore = func(ctx context.Context, cfg s3client.Config) (s3client.ObjectStore, error) {
	return s3client.New(ctx, cfg)
}

// OpenSources turns command-line arguments into sources: s3://bucket/prefix
// URLs become S3 sources, everything else goes through fshelper.ParsePath.
func OpenSources(ctx context.Context, args []string, cfg config.S3Config) ([]Source, error) {
	var sources []Source
	var local []string

	for _, arg := range args {
		bucket, prefix, ok := s3client.ParseURL(arg)
		if !ok {
			if strings.HasPrefix(arg, "s3://") {
				return nil, common.NewSourceError(arg, "invalid S3 URL, expected s3://bucket/prefix")
			}
			local = append(local, arg)
			continue
		}

		store, err := newObjectStore(ctx, s3client.Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			Bucket:    bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			CloseSources(sources)
			return nil, fmt.Errorf("failed to open %s: %w", arg, err)
		}
		sources = append(sources, NewS3Source(store, prefix, cfg.MaxObjectSize))
	}

	if len(local) > 0 {
		fsyss, err := fshelper.ParsePath(local)
		if err != nil {
			CloseSources(sources)
			return nil, err
		}
		for _, fsys := range fsyss {
			sources = append(sources, NewFSSource(fsys))
		}
	}

	return sources, nil
}

// CloseSources closes every source and returns the first error
func CloseSources(sources []Source) error {
	var first error
	for _, src := range sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
