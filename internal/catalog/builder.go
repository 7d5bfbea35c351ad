// Package catalog builds and publishes gene set catalogs: a directory of
// normalized, compressed GMT libraries plus a manifest describing them.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/genepile/prerank/internal/codec"
	"github.com/genepile/prerank/internal/codec/codecs"
	"github.com/genepile/prerank/internal/codec/zstdcodec"
	"github.com/genepile/prerank/internal/gmt"
	"github.com/genepile/prerank/internal/store"
)

// ErrNoSources is returned when Build is called without sources.
var ErrNoSources = errors.New("catalog: no sources")

// Source is one library input: a local GMT file (optionally .gz or .zst)
// or an http(s) URL.
type Source struct {
	Name     string
	Location string
}

// ParseSource parses "name=location" or a bare location. A bare location is
// named after its file with the .gmt and compression extensions removed.
func ParseSource(arg string) (Source, error) {
	name, loc, ok := strings.Cut(arg, "=")
	if !ok || strings.Contains(name, "/") || strings.Contains(name, ":") {
		loc = arg
		name = libraryNameFromPath(arg)
	}
	if loc == "" {
		return Source{}, fmt.Errorf("catalog: empty source in %q", arg)
	}
	if err := store.ValidateName(name); err != nil {
		return Source{}, fmt.Errorf("catalog: source %q: %w", arg, err)
	}
	return Source{Name: name, Location: loc}, nil
}

func libraryNameFromPath(p string) string {
	base := p
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	for _, ext := range []string{".zst", ".gz"} {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimSuffix(base, ".gmt")
	return base
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Builder builds a catalog directory from library sources.
type Builder struct {
	outputDir  string
	codec      codec.Codec
	workers    int
	progress   ProgressFunc
	tempDir    string
	downloader *Downloader
	logger     *zap.Logger

	progressMu sync.Mutex
}

// Option configures the Builder.
type Option func(*Builder)

// WithOutputDir sets the output directory.
func WithOutputDir(dir string) Option {
	return func(b *Builder) { b.outputDir = dir }
}

// WithCodec sets the codec libraries are written with.
func WithCodec(c codec.Codec) Option {
	return func(b *Builder) { b.codec = c }
}

// WithWorkers sets the number of libraries processed in parallel.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) { b.progress = fn }
}

// WithTempDir sets the directory for downloaded sources. It is left in
// place after the build.
func WithTempDir(dir string) Option {
	return func(b *Builder) { b.tempDir = dir }
}

// WithDownloader sets the downloader used for URL sources.
func WithDownloader(d *Downloader) Option {
	return func(b *Builder) { b.downloader = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a new Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		outputDir: "./catalog",
		codec:     zstdcodec.NewBest(),
		workers:   4,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = 1
	}
	if b.downloader == nil {
		b.downloader = NewDownloader()
	}
	return b
}

// Build reads every source, normalizes it and writes it to
// <output>/libraries/<name>.gmt[.ext], replacing any previous libraries, then
// writes the manifest. Libraries are processed concurrently; the manifest
// lists them by name.
func (b *Builder) Build(ctx context.Context, sources []Source) (*Manifest, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s.Name] {
			return nil, fmt.Errorf("catalog: duplicate library name %q", s.Name)
		}
		seen[s.Name] = true
	}

	startTime := time.Now()
	libDir := filepath.Join(b.outputDir, store.LibrariesDir)
	if err := os.RemoveAll(libDir); err != nil {
		return nil, fmt.Errorf("cleaning libraries directory: %w", err)
	}
	if err := os.MkdirAll(libDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// A caller-supplied temp dir is kept between builds.
	workDir := b.tempDir
	if workDir == "" {
		workDir = filepath.Join(b.outputDir, ".tmp")
		defer os.RemoveAll(workDir)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	infos := make([]LibraryInfo, len(sources))
	var (
		mu       sync.Mutex
		done     int
		setCount int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, src := range sources {
		g.Go(func() error {
			info, err := b.buildLibrary(gctx, src, workDir)
			if err != nil {
				return fmt.Errorf("library %s: %w", src.Name, err)
			}
			infos[i] = info

			mu.Lock()
			defer mu.Unlock()
			done++
			setCount += info.Sets
			b.reportProgress(Progress{
				Phase:          PhaseLibrary,
				Library:        src.Name,
				LibrariesDone:  done,
				LibrariesTotal: len(sources),
				SetsWritten:    info.Sets,
				StartTime:      startTime,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.reportProgress(Progress{Phase: PhaseError, Error: err, StartTime: startTime})
		return nil, err
	}

	slices.SortFunc(infos, func(a, b LibraryInfo) int { return strings.Compare(a.Name, b.Name) })
	m := &Manifest{
		Version:     ManifestVersion,
		Libraries:   infos,
		BuiltAt:     time.Now().UTC(),
		Compression: compressionName(b.codec),
	}
	if err := WriteManifest(b.outputDir, m); err != nil {
		return nil, err
	}

	b.logger.Info("catalog built",
		zap.String("dir", b.outputDir),
		zap.Int("libraries", len(infos)),
		zap.Int("sets", setCount),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	b.reportProgress(Progress{
		Phase:          PhaseDone,
		LibrariesDone:  done,
		LibrariesTotal: len(sources),
		SetsWritten:    setCount,
		StartTime:      startTime,
	})
	return m, nil
}

// buildLibrary fetches, parses and rewrites a single library.
func (b *Builder) buildLibrary(ctx context.Context, src Source, workDir string) (LibraryInfo, error) {
	path := src.Location
	if isURL(src.Location) {
		path = filepath.Join(workDir, src.Name+".gmt"+downloadExt(src.Location))
		if err := b.downloader.DownloadToFile(ctx, src.Location, path, src.Name, b.reportProgress); err != nil {
			return LibraryInfo{}, fmt.Errorf("downloading: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return LibraryInfo{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return LibraryInfo{}, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	raw, err := codec.Decode(codecs.ForPath(path), f)
	if err != nil {
		return LibraryInfo{}, err
	}
	lib, err := gmt.Parse(bytes.NewReader(raw))
	if err != nil {
		return LibraryInfo{}, err
	}

	var plain bytes.Buffer
	if err := gmt.Write(&plain, lib); err != nil {
		return LibraryInfo{}, err
	}
	encoded, err := codec.Encode(b.codec, plain.Bytes())
	if err != nil {
		return LibraryInfo{}, err
	}

	dest := filepath.Join(b.outputDir, store.LibrariesDir, store.LibraryFile(src.Name, b.codec.Extension()))
	if err := writeFileAtomic(dest, encoded); err != nil {
		return LibraryInfo{}, err
	}

	sizes := make([]int, len(lib.Sets))
	for i, s := range lib.Sets {
		sizes[i] = len(s.Genes)
	}
	b.logger.Debug("library written",
		zap.String("library", src.Name),
		zap.Int("sets", len(lib.Sets)),
		zap.Int("bytes", len(encoded)),
	)
	return LibraryInfo{
		Name:   src.Name,
		Source: src.Location,
		Sets:   len(lib.Sets),
		Genes:  lib.Genes(),
		Bytes:  int64(len(encoded)),
		Sizes:  sizes,
	}, nil
}

// downloadExt keeps the compression suffix of a URL so the download decodes
// by name.
func downloadExt(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	for _, ext := range []string{".zst", ".gz"} {
		if strings.HasSuffix(url, ext) {
			return ext
		}
	}
	return ""
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing library: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming library: %w", err)
	}
	return nil
}

// compressionName maps a codec to its manifest name.
func compressionName(c codec.Codec) string {
	switch c.Extension() {
	case "zst":
		return "zstd"
	case "gz":
		return "gzip"
	default:
		return "none"
	}
}

func (b *Builder) reportProgress(p Progress) {
	if b.progress == nil {
		return
	}
	b.progressMu.Lock()
	defer b.progressMu.Unlock()
	b.progress(p)
}
