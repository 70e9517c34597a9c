// Package firestore stores analyses in Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

// Collection holds one document per analysis, rows embedded.
const Collection = "analyses"

// summaryFields are read by ListByPlaylist, which skips the rows.
var summaryFields = []string{"id", "playlist_id", "info", "summary", "scale", "csv_path", "created_at"}

type analysisDoc struct {
	ID         string         `firestore:"id"`
	PlaylistID string         `firestore:"playlist_id"`
	Info       infoDoc        `firestore:"info"`
	Summary    domain.Summary `firestore:"summary"`
	Scale      float64        `firestore:"scale"`
	CSVPath    string         `firestore:"csv_path"`
	CreatedAt  time.Time      `firestore:"created_at"`
	Rows       []rowDoc       `firestore:"rows,omitempty"`
}

type infoDoc struct {
	Name      string `firestore:"name"`
	OwnerName string `firestore:"owner_name"`
	OwnerID   string `firestore:"owner_id"`
	Followers int    `firestore:"followers"`
}

type rowDoc struct {
	ID               string  `firestore:"id"`
	Name             string  `firestore:"name"`
	ArtistIDs        string  `firestore:"artist_id"`
	Artists          string  `firestore:"artists"`
	Genres           string  `firestore:"artist_genre"`
	AlbumType        string  `firestore:"album_type"`
	AlbumID          string  `firestore:"album_id"`
	AlbumName        string  `firestore:"album_name"`
	ReleaseYear      *int    `firestore:"album_release_date"`
	DurationMs       int     `firestore:"duration_ms"`
	Popularity       int     `firestore:"popularity"`
	Danceability     float64 `firestore:"danceability"`
	Energy           float64 `firestore:"energy"`
	Key              int     `firestore:"key"`
	Loudness         float64 `firestore:"loudness"`
	Mode             int     `firestore:"mode"`
	Speechiness      float64 `firestore:"speechiness"`
	Acousticness     float64 `firestore:"acousticness"`
	Instrumentalness float64 `firestore:"instrumentalness"`
	Liveness         float64 `firestore:"liveness"`
	Valence          float64 `firestore:"valence"`
	Tempo            float64 `firestore:"tempo"`
	TimeSignature    int     `firestore:"time_signature"`
}

// Repository implements ports.AnalysisRepository on a Firestore client.
type Repository struct {
	client *firestore.Client
}

var _ ports.AnalysisRepository = (*Repository)(nil)

func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

// Provide opens a client for the configured project. It honors
// FIRESTORE_EMULATOR_HOST like every Firestore client does.
func Provide(ctx context.Context, cfg config.Storage) (*Repository, error) {
	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return NewRepository(client), nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) Save(ctx context.Context, a domain.Analysis) error {
	if _, err := r.client.Collection(Collection).Doc(a.ID).Set(ctx, toDoc(a)); err != nil {
		return fmt.Errorf("firestore: save analysis %s: %w", a.ID, err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (domain.Analysis, error) {
	snap, err := r.client.Collection(Collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Analysis{}, domain.ErrNotFound
		}
		return domain.Analysis{}, fmt.Errorf("firestore: load analysis %s: %w", id, err)
	}

	var doc analysisDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Analysis{}, fmt.Errorf("firestore: decode analysis %s: %w", id, err)
	}
	return fromDoc(doc), nil
}

func (r *Repository) ListByPlaylist(ctx context.Context, playlistID string, limit int) ([]domain.Analysis, error) {
	iter := r.client.Collection(Collection).
		Select(summaryFields...).
		Where("playlist_id", "==", playlistID).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	out := []domain.Analysis{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: list analyses: %w", err)
		}

		var doc analysisDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore: decode analysis %s: %w", snap.Ref.ID, err)
		}
		a := fromDoc(doc)
		a.Table.Rows = nil
		out = append(out, a)
	}
	return out, nil
}

func toDoc(a domain.Analysis) analysisDoc {
	rows := make([]rowDoc, len(a.Table.Rows))
	for i, r := range a.Table.Rows {
		rows[i] = rowDoc(r)
	}
	return analysisDoc{
		ID:         a.ID,
		PlaylistID: a.PlaylistID,
		Info: infoDoc{
			Name:      a.Info.Name,
			OwnerName: a.Info.OwnerName,
			OwnerID:   a.Info.OwnerID,
			Followers: a.Info.Followers,
		},
		Summary:   a.Summary,
		Scale:     a.Table.Scale,
		CSVPath:   a.CSVPath,
		CreatedAt: a.CreatedAt.UTC(),
		Rows:      rows,
	}
}

func fromDoc(d analysisDoc) domain.Analysis {
	rows := make([]domain.CleanedRow, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = domain.CleanedRow(r)
	}
	return domain.Analysis{
		ID:         d.ID,
		PlaylistID: d.PlaylistID,
		Info: domain.PlaylistInfo{
			ID:        d.PlaylistID,
			Name:      d.Info.Name,
			OwnerName: d.Info.OwnerName,
			OwnerID:   d.Info.OwnerID,
			Followers: d.Info.Followers,
		},
		Summary:   d.Summary,
		Table:     domain.Table{PlaylistID: d.PlaylistID, Scale: d.Scale, Rows: rows},
		CSVPath:   d.CSVPath,
		CreatedAt: d.CreatedAt,
	}
}
