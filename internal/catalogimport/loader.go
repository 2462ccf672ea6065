// Package catalogimport seeds the product catalogue from gzipped CSV files,
// read from the local file system or from S3.
package catalogimport

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Loader opens a gzipped catalogue seed file by path or key.
type Loader interface {
	// Load returns a reader over the decompressed seed file. The caller
	// closes it.
	Load(ctx context.Context, path string) (io.ReadCloser, error)
}

// fileLoader implements Loader for the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based seed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// gzipReadCloser closes the gzip reader and the underlying source together.
type gzipReadCloser struct {
	*gzip.Reader
	src io.Closer
}

func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		g.src.Close()
		return err
	}
	return g.src.Close()
}

// Load opens a gzipped seed file from the local file system.
func (l *fileLoader) Load(_ context.Context, path string) (io.ReadCloser, error) {
	l.logger.Info().Str("file", path).Msg("loading catalog seed file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open seed file")
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		l.logger.Error().Err(err).Str("file", path).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", path, err)
	}

	return &gzipReadCloser{Reader: gz, src: file}, nil
}
