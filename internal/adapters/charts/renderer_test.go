package charts

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

func sampleAnalysis() domain.Analysis {
	table := domain.Table{PlaylistID: "pl1", Scale: 100, Rows: []domain.CleanedRow{
		{ID: "a", Artists: "x", Genres: "pop", Danceability: 0.8, Energy: 0.6, Loudness: 100, Tempo: 0},
		{ID: "b", Artists: "y", Genres: "rock", Danceability: 0.3, Energy: 0.9, Loudness: 0, Tempo: 100},
	}}
	return domain.Analysis{ID: "an-1", Table: table, Summary: domain.Summarize(table)}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	tests := []struct {
		kind       string
		wantWidth  int
		wantHeight int
	}{
		{kind: KindRadar, wantWidth: radarSize, wantHeight: radarSize},
		{kind: KindArtists, wantWidth: barWidth, wantHeight: barHeight},
		{kind: KindGenres, wantWidth: barWidth, wantHeight: barHeight},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.kind, func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Render(&buf, tc.kind, sampleAnalysis()); err != nil {
				t.Fatalf("Render: %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tc.wantWidth || b.Dy() != tc.wantHeight {
				t.Fatalf("size: got %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestRenderEmptyBars(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Bars(&buf, "Top artists", nil); err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, "pie", sampleAnalysis()); !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("expected ErrUnknownChart, got %v", err)
	}
}
