package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/genepile/prerank/internal/store"
)

// GCSUploader publishes a built catalog to Google Cloud Storage, in the
// layout gcsstore reads.
type GCSUploader struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	logger *zap.Logger
}

// NewGCSUploader creates a new GCS uploader.
// gcsPath should be in the format "gs://bucket/prefix".
func NewGCSUploader(ctx context.Context, gcsPath string, logger *zap.Logger) (*GCSUploader, error) {
	bucket, prefix, err := ParseGCSPath(gcsPath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	return &GCSUploader{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: prefix,
		logger: logger,
	}, nil
}

// ParseGCSPath parses "gs://bucket/prefix" into bucket and prefix. A
// non-empty prefix is returned with a trailing slash.
func ParseGCSPath(gcsPath string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(gcsPath, "gs://") {
		return "", "", fmt.Errorf("invalid GCS path: must start with gs://")
	}

	bucket, prefix, _ = strings.Cut(strings.TrimPrefix(gcsPath, "gs://"), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid GCS path: missing bucket name")
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return bucket, prefix, nil
}

// Upload uploads the libraries and manifest from localDir. New libraries are
// written first, then the manifest, then libraries the new build no longer
// contains are deleted, so readers never see a manifest naming a missing
// library.
func (u *GCSUploader) Upload(ctx context.Context, localDir string, progress ProgressFunc) error {
	libDir := filepath.Join(localDir, store.LibrariesDir)
	entries, err := os.ReadDir(libDir)
	if err != nil {
		return fmt.Errorf("reading libraries directory: %w", err)
	}

	current := make(map[string]bool)
	var uploaded int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key := u.prefix + store.LibrariesDir + "/" + entry.Name()
		if err := u.uploadFile(ctx, filepath.Join(libDir, entry.Name()), key); err != nil {
			return fmt.Errorf("uploading %s: %w", entry.Name(), err)
		}
		current[entry.Name()] = true
		uploaded++
		if progress != nil {
			progress(Progress{
				Phase:          PhaseUpload,
				Library:        entry.Name(),
				LibrariesDone:  uploaded,
				LibrariesTotal: len(entries),
			})
		}
	}

	manifestPath := filepath.Join(localDir, ManifestFilename)
	if _, err := os.Stat(manifestPath); err == nil {
		if err := u.uploadFile(ctx, manifestPath, u.prefix+ManifestFilename); err != nil {
			return fmt.Errorf("uploading manifest: %w", err)
		}
	}

	// Stale libraries are harmless once the manifest no longer lists them.
	if err := u.cleanStale(ctx, current); err != nil {
		u.logger.Warn("failed to clean stale libraries", zap.Error(err))
	}
	return nil
}

// cleanStale deletes library objects that aren't in the new build.
func (u *GCSUploader) cleanStale(ctx context.Context, current map[string]bool) error {
	prefix := u.prefix + store.LibrariesDir + "/"
	it := u.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}
		if current[strings.TrimPrefix(attrs.Name, prefix)] {
			continue
		}
		if err := u.bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("deleting stale library %s: %w", attrs.Name, err)
		}
		u.logger.Debug("deleted stale library", zap.String("object", attrs.Name))
	}
	return nil
}

// uploadFile uploads a single file to GCS.
func (u *GCSUploader) uploadFile(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := u.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// Close releases resources.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
