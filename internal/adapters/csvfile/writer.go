// Package csvfile exports cleaned playlist tables as CSV files.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// Header is the fixed column order of every export.
var Header = []string{
	"id", "name", "artist_id", "artists", "artist_genre", "album_type",
	"album_id", "album_name", "album_release_date", "duration_ms",
	"popularity", "danceability", "energy", "key", "loudness", "mode",
	"speechiness", "acousticness", "instrumentalness", "liveness",
	"valence", "tempo", "time_signature",
}

// pathLocks serializes writers that target the same file.
var pathLocks sync.Map

func lockFor(path string) *sync.Mutex {
	mu, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Writer replaces the file at Path with each exported table.
type Writer struct {
	path   string
	logger *zap.Logger
}

var _ ports.TableExporter = (*Writer)(nil)

func NewWriter(cfg config.Export, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Writer{path: path, logger: logger.Named("csv")}
}

// Path is the file exports are written to.
func (w *Writer) Path() string { return w.path }

// Export writes the table to a temp file next to the target and renames it
// into place.
func (w *Writer) Export(ctx context.Context, table domain.Table) (string, error) {
	mu := lockFor(w.path)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("csv export: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("csv export: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("csv export: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeTable(tmp, table); err != nil {
		tmp.Close()
		return "", fmt.Errorf("csv export: write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("csv export: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return "", fmt.Errorf("csv export: replace %s: %w", w.path, err)
	}

	w.logger.Info("csv export: table written",
		zap.String("path", w.path),
		zap.String("playlist_id", table.PlaylistID),
		zap.Int("rows", len(table.Rows)))
	return w.path, nil
}

func writeTable(f *os.File, table domain.Table) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range table.Rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(r domain.CleanedRow) []string {
	year := ""
	if r.ReleaseYear != nil {
		year = strconv.Itoa(*r.ReleaseYear)
	}
	return []string{
		r.ID,
		r.Name,
		r.ArtistIDs,
		r.Artists,
		r.Genres,
		r.AlbumType,
		r.AlbumID,
		r.AlbumName,
		year,
		strconv.Itoa(r.DurationMs),
		strconv.Itoa(r.Popularity),
		formatFloat(r.Danceability),
		formatFloat(r.Energy),
		strconv.Itoa(r.Key),
		formatFloat(r.Loudness),
		strconv.Itoa(r.Mode),
		formatFloat(r.Speechiness),
		formatFloat(r.Acousticness),
		formatFloat(r.Instrumentalness),
		formatFloat(r.Liveness),
		formatFloat(r.Valence),
		formatFloat(r.Tempo),
		strconv.Itoa(r.TimeSignature),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
