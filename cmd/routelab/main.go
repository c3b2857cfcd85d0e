// Package main provides a route analysis tool. It loads drawn routes
// from a JSON file, projects them to 2D with the selected
// dimensionality-reduction algorithm (or all of them side by side),
// optionally clusters the projection, and writes charts and JSON
// results.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/golang/geo/r2"

	"github.com/banshee-data/routelab/internal/analysis"
	"github.com/banshee-data/routelab/internal/chartout"
	"github.com/banshee-data/routelab/internal/routes"
	"github.com/banshee-data/routelab/internal/version"
)

// Config holds the command-line configuration.
type Config struct {
	RoutesFile string
	Algo       string

	NNeighbors   int
	MinDist      float64
	Perplexity   float64
	LearningRate float64

	IncludeMiddle    bool
	IncludeThirds    bool
	IncludeEuclidean bool

	Cluster    string
	Eps        float64
	MinSamples int

	OutputHTML  string
	OutputPNG   string
	OutputJSON  string
	Verbose     bool
	ShowVersion bool
}

// RouteResult is the per-route JSON output record.
type RouteResult struct {
	RouteID int     `json:"route_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Label   *int    `json:"label,omitempty"`
	Color   string  `json:"color,omitempty"`
}

// AnalysisResult is the JSON output document.
type AnalysisResult struct {
	Algorithm    string        `json:"algorithm"`
	Params       string        `json:"params"`
	Features     []string      `json:"features"`
	Routes       int           `json:"routes"`
	RunID        string        `json:"run_id"`
	DurationMs   int64         `json:"duration_ms"`
	Clusters     int           `json:"clusters,omitempty"`
	Noise        int           `json:"noise,omitempty"`
	RouteResults []RouteResult `json:"route_results"`
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}

	if cfg.RoutesFile == "" {
		log.Fatal("routes file is required (-routes)")
	}

	store, err := loadRoutes(cfg.RoutesFile)
	if err != nil {
		log.Fatalf("Failed to load routes: %v", err)
	}
	if cfg.Verbose {
		for _, s := range store.Summaries() {
			log.Print(s)
		}
	}

	pipeline := analysis.NewPipeline(store)

	if strings.EqualFold(cfg.Algo, "all") {
		runComparison(cfg, pipeline)
		return
	}

	result, err := runAnalysis(cfg, pipeline)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	printResults(result)

	if cfg.OutputJSON != "" {
		if err := exportJSON(result, cfg.OutputJSON); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Results exported to: %s", cfg.OutputJSON)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.RoutesFile, "routes", "", "Path to routes JSON file: [[[x,y],...],...]")
	flag.StringVar(&cfg.Algo, "algo", "umap", "Algorithm: umap, tsne, pca, mds, isomap or all")

	flag.IntVar(&cfg.NNeighbors, "n-neighbors", 0, "UMAP/Isomap neighbourhood size (0 = data-derived default)")
	flag.Float64Var(&cfg.MinDist, "min-dist", 0.1, "UMAP minimum embedding distance")
	flag.Float64Var(&cfg.Perplexity, "perplexity", 0, "t-SNE perplexity (0 = data-derived default)")
	flag.Float64Var(&cfg.LearningRate, "learning-rate", 200, "t-SNE learning rate")

	flag.BoolVar(&cfg.IncludeMiddle, "include-middle", false, "Add route midpoint features")
	flag.BoolVar(&cfg.IncludeThirds, "include-thirds", false, "Add one-third and two-thirds point features")
	flag.BoolVar(&cfg.IncludeEuclidean, "include-euclidean", false, "Add start-to-end straight-line distance feature")

	flag.StringVar(&cfg.Cluster, "cluster", "", "Clustering: dbscan or optics (empty = none)")
	flag.Float64Var(&cfg.Eps, "eps", 0.5, "DBSCAN neighbourhood radius")
	flag.IntVar(&cfg.MinSamples, "min-samples", 3, "Minimum samples per dense region")

	flag.StringVar(&cfg.OutputHTML, "out-html", "", "Write interactive scatter chart to this HTML file")
	flag.StringVar(&cfg.OutputPNG, "out-png", "", "Write static scatter plot to this PNG file")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Write results to this JSON file")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	flag.Parse()

	return cfg
}

// loadRoutes reads a JSON array of polylines, each an array of [x,y]
// pairs, into a fresh store.
func loadRoutes(path string) (*routes.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var polylines [][][2]float64
	if err := json.Unmarshal(data, &polylines); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	store := routes.NewStore()
	for _, pl := range polylines {
		points := make([]r2.Point, len(pl))
		for i, p := range pl {
			points[i] = r2.Point{X: p[0], Y: p[1]}
		}
		store.AddRoute(points)
	}
	return store, nil
}

func featureConfig(cfg Config) analysis.FeatureConfig {
	return analysis.FeatureConfig{
		IncludeMiddle:    cfg.IncludeMiddle,
		IncludeThirds:    cfg.IncludeThirds,
		IncludeEuclidean: cfg.IncludeEuclidean,
	}
}

// reduceParams builds the parameter record for the selected algorithm,
// falling back to data-derived defaults for flags left at zero.
func reduceParams(cfg Config, n int) (analysis.ReduceParams, error) {
	switch strings.ToLower(cfg.Algo) {
	case "umap":
		p := analysis.DefaultUMAPParams(n)
		if cfg.NNeighbors > 0 {
			p.NNeighbors = cfg.NNeighbors
		}
		p.MinDist = cfg.MinDist
		return p, nil
	case "tsne", "t-sne":
		p := analysis.DefaultTSNEParams(n)
		if cfg.Perplexity > 0 {
			p.Perplexity = cfg.Perplexity
		}
		p.LearningRate = cfg.LearningRate
		return p, nil
	case "pca":
		return analysis.PCAParams{}, nil
	case "mds":
		return analysis.MDSParams{}, nil
	case "isomap":
		p := analysis.DefaultIsomapParams(n)
		if cfg.NNeighbors > 0 {
			p.NNeighbors = cfg.NNeighbors
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", cfg.Algo)
	}
}

func clusterRequest(cfg Config) (analysis.ClusterRequest, error) {
	switch strings.ToLower(cfg.Cluster) {
	case "dbscan":
		eps := cfg.Eps
		return analysis.ClusterRequest{Algorithm: analysis.ClusterDBSCAN, Eps: &eps, MinSamples: cfg.MinSamples}, nil
	case "optics":
		return analysis.ClusterRequest{Algorithm: analysis.ClusterOPTICS, MinSamples: cfg.MinSamples}, nil
	default:
		return analysis.ClusterRequest{}, fmt.Errorf("unknown clustering algorithm %q", cfg.Cluster)
	}
}

func runAnalysis(cfg Config, pipeline *analysis.Pipeline) (*AnalysisResult, error) {
	n := pipeline.Store.Len()
	params, err := reduceParams(cfg, n)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	emb, err := pipeline.Analyze(analysis.AnalysisRequest{Params: params, Features: featureConfig(cfg)})
	if err != nil {
		return nil, err
	}

	var clusterRes *analysis.ClusterResult
	if cfg.Cluster != "" {
		req, err := clusterRequest(cfg)
		if err != nil {
			return nil, err
		}
		if clusterRes, err = pipeline.Cluster(emb, req); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(start)

	title := fmt.Sprintf("%s projection of %d routes", emb.Key.Algorithm, len(emb.Order))
	if cfg.OutputHTML != "" {
		if err := chartout.SaveEmbeddingHTML(cfg.OutputHTML, title, emb, clusterRes); err != nil {
			return nil, err
		}
		log.Printf("Chart written to: %s", cfg.OutputHTML)
	}
	if cfg.OutputPNG != "" {
		if err := chartout.SaveEmbeddingPNG(cfg.OutputPNG, title, emb, clusterRes); err != nil {
			return nil, err
		}
		log.Printf("Plot written to: %s", cfg.OutputPNG)
	}

	return buildResult(emb, clusterRes, featureConfig(cfg), elapsed), nil
}

func runComparison(cfg Config, pipeline *analysis.Pipeline) {
	embeddings, failures, err := pipeline.CompareAll(featureConfig(cfg))
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}

	fmt.Println("\n=== Algorithm Comparison ===")
	for _, alg := range analysis.Algorithms() {
		if reason, ok := failures[alg]; ok {
			fmt.Printf("%-8s FAILED: %v\n", alg, reason)
			continue
		}
		emb := embeddings[alg]
		fmt.Printf("%-8s ok (%d routes): %s\n", alg, len(emb.Order), alg.Description())
	}

	if cfg.OutputHTML != "" {
		if err := chartout.SaveComparisonHTML(cfg.OutputHTML, embeddings); err != nil {
			log.Fatalf("Failed to write comparison chart: %v", err)
		}
		log.Printf("Comparison chart written to: %s", cfg.OutputHTML)
	}
}

func buildResult(emb *analysis.Embedding, res *analysis.ClusterResult, cfg analysis.FeatureConfig, elapsed time.Duration) *AnalysisResult {
	out := &AnalysisResult{
		Algorithm:  string(emb.Key.Algorithm),
		Params:     emb.Key.Params,
		Features:   cfg.Names(),
		Routes:     len(emb.Order),
		RunID:      emb.RunID,
		DurationMs: elapsed.Milliseconds(),
	}
	if res != nil {
		out.Clusters = res.Clusters
		out.Noise = res.Noise
	}

	for _, id := range emb.Order {
		p := emb.Points[id]
		rr := RouteResult{RouteID: id, X: p.X, Y: p.Y}
		if res != nil {
			if label, ok := res.Label(id); ok {
				l := label
				rr.Label = &l
				rr.Color = analysis.LabelColor(label)
			}
		}
		out.RouteResults = append(out.RouteResults, rr)
	}
	return out
}

func printResults(result *AnalysisResult) {
	fmt.Println("\n=== Route Analysis Results ===")
	fmt.Printf("Algorithm: %s\n", result.Algorithm)
	if result.Params != "" {
		fmt.Printf("Params: %s\n", result.Params)
	}
	fmt.Printf("Features: %s\n", strings.Join(result.Features, ", "))
	fmt.Printf("Routes: %d\n", result.Routes)
	fmt.Printf("Run: %s (%d ms)\n", result.RunID, result.DurationMs)

	if result.Clusters > 0 || result.Noise > 0 {
		fmt.Printf("Clusters: %d (%d noise)\n", result.Clusters, result.Noise)

		byLabel := make(map[int]int)
		for _, rr := range result.RouteResults {
			if rr.Label != nil {
				byLabel[*rr.Label]++
			}
		}
		labels := make([]int, 0, len(byLabel))
		for l := range byLabel {
			labels = append(labels, l)
		}
		sort.Ints(labels)
		for _, l := range labels {
			name := fmt.Sprintf("cluster %d", l)
			if l == analysis.NoiseLabel {
				name = "noise"
			}
			fmt.Printf("  %-10s %d route(s)\n", name, byLabel[l])
		}
	}
}

func exportJSON(result *AnalysisResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
