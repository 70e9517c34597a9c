// Package sqlite provides a SQLite-backed implementation of the analysis
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Adapter implements the repository port for SQLite
type Adapter struct {
	db *sql.DB
}

var _ ports.AnalysisRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open db: %w", err)
	}
	if storagePath == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to ping db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	return adapter, nil
}

// Provide is the fx constructor used when STORAGE_DRIVER=sqlite.
func Provide(cfg config.Storage) (*Adapter, error) {
	return NewAdapter(cfg.DatabasePath)
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Save(ctx context.Context, an domain.Analysis) error {
	info, err := json.Marshal(an.Info)
	if err != nil {
		return fmt.Errorf("sqlite: encode playlist info: %w", err)
	}
	summary, err := json.Marshal(an.Summary)
	if err != nil {
		return fmt.Errorf("sqlite: encode summary: %w", err)
	}

	// 1. Start Transaction
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	// 2. Upsert the analysis header
	queryAnalysis := `
		INSERT INTO analyses (id, playlist_id, info, summary, scale, csv_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			playlist_id=excluded.playlist_id,
			info=excluded.info,
			summary=excluded.summary,
			scale=excluded.scale,
			csv_path=excluded.csv_path,
			created_at=excluded.created_at;
	`
	if _, err := tx.ExecContext(ctx, queryAnalysis,
		an.ID, an.PlaylistID, string(info), string(summary), an.Table.Scale, an.CSVPath,
		an.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("sqlite: failed to save analysis: %w", err)
	}

	// 3. Replace the rows
	if _, err := tx.ExecContext(ctx, "DELETE FROM analysis_rows WHERE analysis_id = ?", an.ID); err != nil {
		return fmt.Errorf("sqlite: failed to clear old rows: %w", err)
	}

	stmtRow, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_rows (
			analysis_id, position, track_id, name, artist_ids, artists, genres,
			album_type, album_id, album_name, release_year, duration_ms, popularity,
			danceability, energy, musical_key, loudness, mode, speechiness,
			acousticness, instrumentalness, liveness, valence, tempo, time_signature
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare row insert: %w", err)
	}
	defer stmtRow.Close()

	for i, r := range an.Table.Rows {
		var year sql.NullInt64
		if r.ReleaseYear != nil {
			year = sql.NullInt64{Int64: int64(*r.ReleaseYear), Valid: true}
		}
		if _, err := stmtRow.ExecContext(ctx,
			an.ID, i, r.ID, r.Name, r.ArtistIDs, r.Artists, r.Genres,
			r.AlbumType, r.AlbumID, r.AlbumName, year, r.DurationMs, r.Popularity,
			r.Danceability, r.Energy, r.Key, r.Loudness, r.Mode, r.Speechiness,
			r.Acousticness, r.Instrumentalness, r.Liveness, r.Valence, r.Tempo, r.TimeSignature,
		); err != nil {
			return fmt.Errorf("sqlite: failed to save row %s: %w", r.ID, err)
		}
	}

	// 4. Commit Transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: transaction commit failed: %w", err)
	}
	return nil
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Analysis, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, playlist_id, info, summary, scale, IFNULL(csv_path, ''), created_at
		FROM analyses WHERE id = ?`, id)
	an, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Analysis{}, domain.ErrNotFound
		}
		return domain.Analysis{}, fmt.Errorf("sqlite: failed to load analysis: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT track_id, name, artist_ids, artists, genres, album_type, album_id, album_name,
			release_year, duration_ms, popularity, danceability, energy, musical_key, loudness,
			mode, speechiness, acousticness, instrumentalness, liveness, valence, tempo, time_signature
		FROM analysis_rows
		WHERE analysis_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("sqlite: failed to load analysis rows: %w", err)
	}
	defer rows.Close()

	an.Table.Rows = []domain.CleanedRow{}
	for rows.Next() {
		var r domain.CleanedRow
		var year sql.NullInt64
		if err := rows.Scan(
			&r.ID, &r.Name, &r.ArtistIDs, &r.Artists, &r.Genres, &r.AlbumType, &r.AlbumID, &r.AlbumName,
			&year, &r.DurationMs, &r.Popularity, &r.Danceability, &r.Energy, &r.Key, &r.Loudness,
			&r.Mode, &r.Speechiness, &r.Acousticness, &r.Instrumentalness, &r.Liveness, &r.Valence, &r.Tempo, &r.TimeSignature,
		); err != nil {
			return domain.Analysis{}, fmt.Errorf("sqlite: failed to scan analysis row: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			r.ReleaseYear = &y
		}
		an.Table.Rows = append(an.Table.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Analysis{}, fmt.Errorf("sqlite: failed to iterate analysis rows: %w", err)
	}

	return an, nil
}

func (a *Adapter) ListByPlaylist(ctx context.Context, playlistID string, limit int) ([]domain.Analysis, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, playlist_id, info, summary, scale, IFNULL(csv_path, ''), created_at
		FROM analyses
		WHERE playlist_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, playlistID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list analyses: %w", err)
	}
	defer rows.Close()

	out := []domain.Analysis{}
	for rows.Next() {
		an, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan analysis: %w", err)
		}
		out = append(out, an)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate analyses: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (domain.Analysis, error) {
	var an domain.Analysis
	var info, summary, created string
	if err := s.Scan(&an.ID, &an.PlaylistID, &info, &summary, &an.Table.Scale, &an.CSVPath, &created); err != nil {
		return domain.Analysis{}, err
	}
	if err := json.Unmarshal([]byte(info), &an.Info); err != nil {
		return domain.Analysis{}, fmt.Errorf("decode playlist info: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &an.Summary); err != nil {
		return domain.Analysis{}, fmt.Errorf("decode summary: %w", err)
	}
	createdAt, err := time.Parse(timeLayout, created)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("decode created_at: %w", err)
	}
	an.CreatedAt = createdAt
	an.Table.PlaylistID = an.PlaylistID
	return an, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		playlist_id TEXT NOT NULL,
		info TEXT NOT NULL,
		summary TEXT NOT NULL,
		scale REAL NOT NULL,
		csv_path TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_playlist ON analyses (playlist_id, created_at);

	CREATE TABLE IF NOT EXISTS analysis_rows (
		analysis_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		track_id TEXT NOT NULL,
		name TEXT NOT NULL,
		artist_ids TEXT NOT NULL,
		artists TEXT NOT NULL,
		genres TEXT NOT NULL,
		album_type TEXT,
		album_id TEXT,
		album_name TEXT,
		release_year INTEGER,
		duration_ms INTEGER,
		popularity INTEGER,
		danceability REAL,
		energy REAL,
		musical_key INTEGER,
		loudness REAL,
		mode INTEGER,
		speechiness REAL,
		acousticness REAL,
		instrumentalness REAL,
		liveness REAL,
		valence REAL,
		tempo REAL,
		time_signature INTEGER,
		PRIMARY KEY (analysis_id, position),
		FOREIGN KEY(analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
	);
	`
	_, err := a.db.Exec(query)
	return err
}
