// Package chartout renders embeddings and cluster results as scatter
// charts. It is a consumer of the pipeline's outputs, standing in for
// the interactive canvas: HTML charts via go-echarts for quick browser
// inspection, PNG via gonum/plot for reports.
package chartout

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/routelab/internal/analysis"
)

// EmbeddingScatter builds an HTML scatter chart of one embedding. When a
// cluster result is supplied, routes are grouped into one series per
// label with the binder's colors; otherwise a single series is drawn.
func EmbeddingScatter(title string, emb *analysis.Embedding, res *analysis.ClusterResult) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "700px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitleFor(emb, res)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: string(emb.Key.Algorithm) + " 1", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: string(emb.Key.Algorithm) + " 2", NameLocation: "middle", NameGap: 30}),
	)

	for _, series := range groupByLabel(emb, res) {
		data := make([]opts.ScatterData, 0, len(series.routeIDs))
		for _, id := range series.routeIDs {
			p := emb.Points[id]
			data = append(data, opts.ScatterData{
				Name:  fmt.Sprintf("Route %d", id),
				Value: []interface{}{p.X, p.Y},
			})
		}
		scatter.AddSeries(series.name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: series.color}),
		)
	}
	return scatter
}

// WriteEmbeddingHTML renders one embedding chart to w.
func WriteEmbeddingHTML(w io.Writer, title string, emb *analysis.Embedding, res *analysis.ClusterResult) error {
	return EmbeddingScatter(title, emb, res).Render(w)
}

// SaveEmbeddingHTML renders one embedding chart to a file.
func SaveEmbeddingHTML(path, title string, emb *analysis.Embedding, res *analysis.ClusterResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteEmbeddingHTML(f, title, emb, res)
}

// WriteComparisonHTML renders one chart per algorithm onto a single
// page, in algorithm display order.
func WriteComparisonHTML(w io.Writer, embeddings map[analysis.Algorithm]*analysis.Embedding) error {
	page := components.NewPage()
	page.PageTitle = "Algorithm Comparison"
	for _, alg := range analysis.Algorithms() {
		emb, ok := embeddings[alg]
		if !ok {
			continue
		}
		title := fmt.Sprintf("%s — %s", alg, alg.Description())
		page.AddCharts(EmbeddingScatter(title, emb, nil))
	}
	return page.Render(w)
}

// SaveComparisonHTML renders the comparison page to a file.
func SaveComparisonHTML(path string, embeddings map[analysis.Algorithm]*analysis.Embedding) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteComparisonHTML(f, embeddings)
}

type labelSeries struct {
	name     string
	color    string
	routeIDs []int
}

// groupByLabel splits the embedding's routes into display series: one
// per cluster label plus a noise series, or a single series without a
// cluster result. Route order inside a series follows embedding order.
func groupByLabel(emb *analysis.Embedding, res *analysis.ClusterResult) []labelSeries {
	if res == nil {
		return []labelSeries{{name: "routes", color: analysis.LabelColor(0), routeIDs: emb.Order}}
	}

	byLabel := make(map[int][]int)
	for _, id := range emb.Order {
		label, ok := res.Label(id)
		if !ok {
			label = analysis.NoiseLabel
		}
		byLabel[label] = append(byLabel[label], id)
	}

	labels := make([]int, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	out := make([]labelSeries, 0, len(labels))
	for _, l := range labels {
		name := fmt.Sprintf("Cluster %d", l)
		if l == analysis.NoiseLabel {
			name = "Noise"
		}
		out = append(out, labelSeries{name: name, color: analysis.LabelColor(l), routeIDs: byLabel[l]})
	}
	return out
}

func subtitleFor(emb *analysis.Embedding, res *analysis.ClusterResult) string {
	params := emb.Key.Params
	if params == "" {
		params = "defaults"
	}
	s := fmt.Sprintf("%s | routes=%d", params, len(emb.Order))
	if res != nil {
		s += fmt.Sprintf(" | clusters=%d noise=%d", res.Clusters, res.Noise)
	}
	return s
}
