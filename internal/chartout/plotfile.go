package chartout

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/routelab/internal/analysis"
)

// SaveEmbeddingPNG writes a static scatter plot of one embedding,
// colored by cluster label when a result is supplied.
func SaveEmbeddingPNG(path, title string, emb *analysis.Embedding, res *analysis.ClusterResult) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = string(emb.Key.Algorithm) + " 1"
	p.Y.Label.Text = string(emb.Key.Algorithm) + " 2"
	p.Add(plotter.NewGrid())

	for _, series := range groupByLabel(emb, res) {
		xys := make(plotter.XYs, len(series.routeIDs))
		for i, id := range series.routeIDs {
			pt := emb.Points[id]
			xys[i].X = pt.X
			xys[i].Y = pt.Y
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("scatter series %s: %w", series.name, err)
		}
		c, err := parseHexColor(series.color)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = c
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(series.name, sc)
	}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// parseHexColor converts a "#RRGGBB" string to an opaque RGBA color.
func parseHexColor(s string) (color.RGBA, error) {
	var c color.RGBA
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("malformed hex color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("malformed hex color %q: %w", s, err)
	}
	c.A = 0xff
	return c, nil
}
