package chart

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // background decoders
	_ "image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	lineColor = color.RGBA{B: 255, A: 255}
	highColor = color.RGBA{R: 220, A: 255}
	lowColor  = color.RGBA{G: 150, A: 255}
)

// Annotation marks one point of the curve with a text label
type Annotation struct {
	Index int
	Value float64
	Text  string
}

// Chart is a rendered PNG and the extremes annotated on it
type Chart struct {
	Path string
	High Annotation
	Low  Annotation
}

// Archiver stores a copy of a rendered chart somewhere durable
type Archiver interface {
	Archive(ctx context.Context, path string) error
}

type Renderer struct {
	outputDir  string
	background string
	archiver   Archiver
}

// NewRenderer creates a renderer writing into outputDir. archiver may be nil.
func NewRenderer(outputDir, background string, archiver Archiver) *Renderer {
	return &Renderer{
		outputDir:  outputDir,
		background: background,
		archiver:   archiver,
	}
}

// FileName returns the PNG name used for a place label
func FileName(placeLabel string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	return fmt.Sprintf("grafico_mare_%s.png", r.Replace(placeLabel))
}

// Render draws the tide curve over the background image and writes it to disk.
// Overwriting an earlier chart for the same label is expected.
func (r *Renderer) Render(ctx context.Context, labels []string, heights []float64, placeLabel string) (*Chart, error) {
	if len(heights) == 0 {
		return nil, models.NewEmptySeriesError("no tide samples to plot")
	}
	if len(labels) != len(heights) {
		return nil, models.NewEmptySeriesError(fmt.Sprintf("got %d labels for %d heights", len(labels), len(heights)))
	}

	bg, err := loadBackground(r.background)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	high, low := findExtremes(heights)
	chart := &Chart{
		Path: filepath.Join(r.outputDir, FileName(placeLabel)),
		High: Annotation{Index: high, Value: heights[high], Text: fmt.Sprintf("Maré Alta (%.2fm)", heights[high])},
		Low:  Annotation{Index: low, Value: heights[low], Text: fmt.Sprintf("Maré Baixa (%.2fm)", heights[low])},
	}

	p, err := buildPlot(bg, labels, heights, placeLabel, chart)
	if err != nil {
		return nil, fmt.Errorf("building plot: %w", err)
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart directory: %w", err)
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, chart.Path); err != nil {
		return nil, fmt.Errorf("saving chart: %w", err)
	}

	log.Debug().Str("path", chart.Path).Int("points", len(heights)).Msg("Rendered tide chart")

	if r.archiver != nil {
		if err := r.archiver.Archive(ctx, chart.Path); err != nil {
			log.Warn().Err(err).Str("path", chart.Path).Msg("Failed to archive chart")
		}
	}

	return chart, nil
}

func loadBackground(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.NewAssetNotFoundError(path, err)
		}
		return nil, fmt.Errorf("opening background image: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing background image")
		}
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding background image: %w", err)
	}
	return img, nil
}

// findExtremes returns the indices of the max and min height; the first occurrence wins ties
func findExtremes(heights []float64) (high, low int) {
	for i, h := range heights {
		if h > heights[high] {
			high = i
		}
		if h < heights[low] {
			low = i
		}
	}
	return high, low
}

func buildPlot(bg image.Image, labels []string, heights []float64, placeLabel string, chart *Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Previsão da Maré - " + placeLabel
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Horário"
	p.Y.Label.Text = "Altura (m)"

	// the background spans the whole curve with half a metre of headroom
	xMin, xMax := 0.0, float64(len(heights)-1)
	if xMax == xMin {
		xMin, xMax = -0.5, 0.5
	}
	yMin, yMax := chart.Low.Value-0.5, chart.High.Value+0.5
	p.Add(plotter.NewImage(bg, xMin, yMin, xMax, yMax))

	grid := plotter.NewGrid()
	dashes := []vg.Length{vg.Points(4), vg.Points(4)}
	grid.Vertical.Dashes = dashes
	grid.Horizontal.Dashes = dashes
	p.Add(grid)

	pts := make(plotter.XYs, len(heights))
	for i, h := range heights {
		pts[i].X = float64(i)
		pts[i].Y = h
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = lineColor
	points.Color = lineColor
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Legend.Add("Altura da Maré", line, points)
	p.Legend.Top = true

	for _, a := range []struct {
		ann    Annotation
		color  color.Color
		offset vg.Length
	}{
		{chart.High, highColor, vg.Points(8)},
		{chart.Low, lowColor, -vg.Points(14)},
	} {
		l, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: float64(a.ann.Index), Y: a.ann.Value}},
			Labels: []string{a.ann.Text},
		})
		if err != nil {
			return nil, err
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Color = a.color
			l.TextStyle[i].Font.Size = vg.Points(10)
		}
		l.Offset = vg.Point{X: vg.Points(6), Y: a.offset}
		p.Add(l)
	}

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	return p, nil
}
