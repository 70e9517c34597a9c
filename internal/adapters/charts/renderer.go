// Package charts draws the analysis charts as PNG images.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

// Chart kinds served by Render.
const (
	KindRadar   = "radar"
	KindArtists = "artists"
	KindGenres  = "genres"
)

// ErrUnknownChart is returned by Render for an unsupported kind.
var ErrUnknownChart = errors.New("unknown chart")

const (
	radarSize  = 640
	barWidth   = 720
	barHeight  = 420
	labelSize  = 13
	titleSize  = 18
	radarInset = 90
)

var (
	background = color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}
	gridColor  = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	textColor  = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	songColor  = color.RGBA{R: 0x1d, G: 0xb9, B: 0x54, A: 0x22}
	meanColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	barColor   = color.RGBA{R: 0x1d, G: 0xb9, B: 0x54, A: 0xff}
)

// radarAxes lists the radar spokes clockwise from the top.
var radarAxes = []string{
	"acousticness", "danceability", "energy", "liveness",
	"loudness", "speechiness", "tempo", "valence",
}

// Renderer draws charts with the bundled Go fonts.
type Renderer struct {
	label font.Face
	title font.Face
}

func NewRenderer() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("charts: parse font: %w", err)
	}
	return &Renderer{
		label: truetype.NewFace(f, &truetype.Options{Size: labelSize}),
		title: truetype.NewFace(f, &truetype.Options{Size: titleSize}),
	}, nil
}

// Render writes the chart of the given kind for an analysis.
func (r *Renderer) Render(w io.Writer, kind string, a domain.Analysis) error {
	switch kind {
	case KindRadar:
		return r.Radar(w, a.Table, a.Summary.Profile)
	case KindArtists:
		return r.Bars(w, "Top artists", a.Summary.TopArtists)
	case KindGenres:
		return r.Bars(w, "Top genres", a.Summary.TopGenres)
	default:
		return fmt.Errorf("charts: %w: %q", ErrUnknownChart, kind)
	}
}

// Radar draws one translucent polygon per song and outlines the mean profile.
func (r *Renderer) Radar(w io.Writer, table domain.Table, mean domain.Profile) error {
	dc := gg.NewContext(radarSize, radarSize)
	dc.SetColor(background)
	dc.Clear()

	cx, cy := float64(radarSize)/2, float64(radarSize)/2
	radius := float64(radarSize)/2 - radarInset

	// grid rings and spokes
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for ring := 1; ring <= 4; ring++ {
		polygon(dc, cx, cy, radius*float64(ring)/4, uniform(len(radarAxes), 100))
		dc.Stroke()
	}
	dc.SetFontFace(r.label)
	for i, axis := range radarAxes {
		x, y := spoke(cx, cy, radius, i, len(radarAxes))
		dc.SetColor(gridColor)
		dc.DrawLine(cx, cy, x, y)
		dc.Stroke()
		lx, ly := spoke(cx, cy, radius+30, i, len(radarAxes))
		dc.SetColor(textColor)
		dc.DrawStringAnchored(axis, lx, ly, 0.5, 0.5)
	}

	scale := table.Scale
	if scale <= 0 {
		scale = domain.ScalePercent
	}
	dc.SetColor(songColor)
	for _, row := range table.Rows {
		polygon(dc, cx, cy, radius, rowValues(row, scale))
		dc.Fill()
	}

	dc.SetColor(meanColor)
	dc.SetLineWidth(2.5)
	polygon(dc, cx, cy, radius, profileValues(mean))
	dc.Stroke()

	return dc.EncodePNG(w)
}

// Bars draws a horizontal bar chart of the counts, largest first.
func (r *Renderer) Bars(w io.Writer, title string, counts []domain.Count) error {
	dc := gg.NewContext(barWidth, barHeight)
	dc.SetColor(background)
	dc.Clear()

	dc.SetFontFace(r.title)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, barWidth/2, 30, 0.5, 0.5)

	if len(counts) == 0 {
		dc.SetFontFace(r.label)
		dc.DrawStringAnchored("no data", barWidth/2, barHeight/2, 0.5, 0.5)
		return dc.EncodePNG(w)
	}

	top := 0
	for _, c := range counts {
		top = max(top, c.Count)
	}

	const (
		left   = 200.0
		right  = 60.0
		startY = 70.0
		gap    = 12.0
	)
	rowHeight := (barHeight - startY - 20) / float64(len(counts))
	span := barWidth - left - right

	dc.SetFontFace(r.label)
	for i, c := range counts {
		y := startY + float64(i)*rowHeight
		length := span * float64(c.Count) / float64(max(top, 1))

		dc.SetColor(barColor)
		dc.DrawRectangle(left, y, length, rowHeight-gap)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(c.Label, left-10, y+(rowHeight-gap)/2, 1, 0.5)
		dc.DrawStringAnchored(fmt.Sprint(c.Count), left+length+8, y+(rowHeight-gap)/2, 0, 0.5)
	}
	return dc.EncodePNG(w)
}

func rowValues(row domain.CleanedRow, scale float64) []float64 {
	return []float64{
		row.Acousticness * 100,
		row.Danceability * 100,
		row.Energy * 100,
		row.Liveness * 100,
		row.Loudness * 100 / scale,
		row.Speechiness * 100,
		row.Tempo * 100 / scale,
		row.Valence * 100,
	}
}

func profileValues(p domain.Profile) []float64 {
	return []float64{
		p.Acousticness, p.Danceability, p.Energy, p.Liveness,
		p.Loudness, p.Speechiness, p.Tempo, p.Valence,
	}
}

func uniform(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// polygon traces a closed path through values (0..100) on each spoke.
func polygon(dc *gg.Context, cx, cy, radius float64, values []float64) {
	for i, v := range values {
		v = math.Max(0, math.Min(100, v))
		x, y := spoke(cx, cy, radius*v/100, i, len(values))
		if i == 0 {
			dc.MoveTo(x, y)
			continue
		}
		dc.LineTo(x, y)
	}
	dc.ClosePath()
}

func spoke(cx, cy, length float64, i, n int) (float64, float64) {
	angle := gg.Radians(float64(i)*360/float64(n) - 90)
	return cx + length*math.Cos(angle), cy + length*math.Sin(angle)
}
