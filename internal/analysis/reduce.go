package analysis

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/routelab/internal/monitoring"
	"github.com/banshee-data/routelab/internal/numerics"
	"github.com/banshee-data/routelab/internal/routes"
)

// Algorithm identifies a dimensionality-reduction algorithm. The set is
// closed; dispatch happens over the ReduceParams variants below.
type Algorithm string

const (
	AlgorithmUMAP   Algorithm = "UMAP"
	AlgorithmTSNE   Algorithm = "t-SNE"
	AlgorithmPCA    Algorithm = "PCA"
	AlgorithmMDS    Algorithm = "MDS"
	AlgorithmIsomap Algorithm = "Isomap"
)

// Algorithms returns all reduction algorithms in display order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmUMAP, AlgorithmTSNE, AlgorithmPCA, AlgorithmMDS, AlgorithmIsomap}
}

// Description returns a one-line characterization for UI legends.
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmUMAP:
		return "Preserves local and global structure"
	case AlgorithmTSNE:
		return "Good for local structure, may distort global"
	case AlgorithmPCA:
		return "Linear, preserves variance"
	case AlgorithmMDS:
		return "Preserves pairwise distances"
	case AlgorithmIsomap:
		return "Non-linear, preserves geodesic distances"
	default:
		return ""
	}
}

// ReduceParams is the closed tagged-variant set of per-algorithm
// parameter records. The unexported normalize/validate methods keep the
// set closed to this package.
type ReduceParams interface {
	Algorithm() Algorithm
	// normalize renders the parameters canonically so two requests with
	// equal values share one cache entry regardless of construction.
	normalize() string
	// validate checks the parameters against the surviving route count.
	validate(n int) error
}

// UMAPParams parameterizes UMAP.
type UMAPParams struct {
	NNeighbors int
	MinDist    float64
}

// DefaultUMAPParams returns the defaults for n surviving routes.
func DefaultUMAPParams(n int) UMAPParams {
	return UMAPParams{NNeighbors: minInt(15, n-1), MinDist: 0.1}
}

func (p UMAPParams) Algorithm() Algorithm { return AlgorithmUMAP }

func (p UMAPParams) normalize() string {
	return "n_neighbors=" + strconv.Itoa(p.NNeighbors) + ",min_dist=" + formatFloat(p.MinDist)
}

func (p UMAPParams) validate(n int) error {
	if p.NNeighbors < 1 || p.NNeighbors >= n {
		return fmt.Errorf("%w: n_neighbors=%d must be in [1, %d) for %d routes", ErrInvalidParameter, p.NNeighbors, n, n)
	}
	if p.MinDist < 0 || p.MinDist > 1 {
		return fmt.Errorf("%w: min_dist=%g must be in [0, 1]", ErrInvalidParameter, p.MinDist)
	}
	return nil
}

// TSNEParams parameterizes t-SNE.
type TSNEParams struct {
	Perplexity   float64
	LearningRate float64
}

// DefaultTSNEParams returns the defaults for n surviving routes.
func DefaultTSNEParams(n int) TSNEParams {
	return TSNEParams{Perplexity: float64(minInt(30, n-1)), LearningRate: 200}
}

func (p TSNEParams) Algorithm() Algorithm { return AlgorithmTSNE }

func (p TSNEParams) normalize() string {
	return "perplexity=" + formatFloat(p.Perplexity) + ",learning_rate=" + formatFloat(p.LearningRate)
}

func (p TSNEParams) validate(n int) error {
	if p.Perplexity < 1 || p.Perplexity >= float64(n) {
		return fmt.Errorf("%w: perplexity=%g must be in [1, %d) for %d routes", ErrInvalidParameter, p.Perplexity, n, n)
	}
	if p.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate=%g must be positive", ErrInvalidParameter, p.LearningRate)
	}
	return nil
}

// PCAParams parameterizes PCA, which takes no tunables for a 2D
// projection.
type PCAParams struct{}

func (PCAParams) Algorithm() Algorithm { return AlgorithmPCA }
func (PCAParams) normalize() string    { return "" }
func (PCAParams) validate(int) error   { return nil }

// MDSParams parameterizes MDS, which takes no tunables for a 2D
// projection.
type MDSParams struct{}

func (MDSParams) Algorithm() Algorithm { return AlgorithmMDS }
func (MDSParams) normalize() string    { return "" }
func (MDSParams) validate(int) error   { return nil }

// IsomapParams parameterizes Isomap.
type IsomapParams struct {
	NNeighbors int
}

// DefaultIsomapParams returns the defaults for n surviving routes.
func DefaultIsomapParams(n int) IsomapParams {
	return IsomapParams{NNeighbors: minInt(5, n-1)}
}

func (p IsomapParams) Algorithm() Algorithm { return AlgorithmIsomap }

func (p IsomapParams) normalize() string {
	return "n_neighbors=" + strconv.Itoa(p.NNeighbors)
}

func (p IsomapParams) validate(n int) error {
	if p.NNeighbors < 1 || p.NNeighbors >= n {
		return fmt.Errorf("%w: n_neighbors=%d must be in [1, %d) for %d routes", ErrInvalidParameter, p.NNeighbors, n, n)
	}
	return nil
}

// DefaultParams returns the default parameter record for an algorithm
// given n surviving routes. Compare-all mode uses these.
func DefaultParams(alg Algorithm, n int) ReduceParams {
	switch alg {
	case AlgorithmUMAP:
		return DefaultUMAPParams(n)
	case AlgorithmTSNE:
		return DefaultTSNEParams(n)
	case AlgorithmPCA:
		return PCAParams{}
	case AlgorithmMDS:
		return MDSParams{}
	case AlgorithmIsomap:
		return DefaultIsomapParams(n)
	default:
		return nil
	}
}

// AnalysisRequest asks for one embedding: an algorithm with its
// parameters plus the feature configuration to extract with.
type AnalysisRequest struct {
	Params   ReduceParams
	Features FeatureConfig
}

func (r AnalysisRequest) String() string {
	params := r.Params.normalize()
	if params == "" {
		params = "defaults"
	}
	return fmt.Sprintf("%s(%s) features=%s", r.Params.Algorithm(), params, r.Features)
}

// String renders the feature configuration compactly for request tags
// and run records.
func (c FeatureConfig) String() string {
	return fmt.Sprintf("mid=%t,thirds=%t,eucl=%t", c.IncludeMiddle, c.IncludeThirds, c.IncludeEuclidean)
}

// EmbeddingKey is the structural cache key for embeddings: algorithm,
// normalized parameters, feature configuration and the route-set
// fingerprint at computation time. Two requests with equal values hit
// the same entry.
type EmbeddingKey struct {
	Algorithm   Algorithm
	Params      string
	Features    FeatureConfig
	Fingerprint routes.Fingerprint
}

// Embedding assigns each surviving route a 2D coordinate. Routes added
// after computation are absent until a re-run.
type Embedding struct {
	Key   EmbeddingKey
	RunID string
	// Order lists route IDs in matrix row order.
	Order  []int
	Points map[int]r2.Point
}

// Coordinate returns the 2D coordinate of a route, if present.
func (e *Embedding) Coordinate(routeID int) (r2.Point, bool) {
	p, ok := e.Points[routeID]
	return p, ok
}

// Matrix returns the embedding as an n×2 matrix with rows in Order.
func (e *Embedding) Matrix() *mat.Dense {
	out := mat.NewDense(len(e.Order), 2, nil)
	for i, id := range e.Order {
		p := e.Points[id]
		out.Set(i, 0, p.X)
		out.Set(i, 1, p.Y)
	}
	return out
}

// RunRecord captures one reduction invocation for reproducibility.
type RunRecord struct {
	RunID     string
	Algorithm Algorithm
	Params    string
	Features  FeatureConfig
	Routes    int
	Duration  time.Duration
	Cached    bool
}

// OrchestratorStats counts cache behaviour, observable by tests and the
// CLI.
type OrchestratorStats struct {
	Computes      int
	Hits          int
	Invalidations int
}

// maxRunRecords bounds the in-memory run history.
const maxRunRecords = 64

// Orchestrator validates analysis requests, dispatches them to the
// numerical primitives and caches the resulting embeddings. Any route
// mutation invalidates all cached embeddings; correctness over
// cache-hit-rate.
type Orchestrator struct {
	mu           sync.Mutex
	store        *routes.Store
	cache        map[EmbeddingKey]*Embedding
	lastFP       routes.Fingerprint
	haveFP       bool
	stats        OrchestratorStats
	runs         []RunRecord
	onInvalidate []func()
}

// NewOrchestrator creates an orchestrator reading from the given store.
func NewOrchestrator(store *routes.Store) *Orchestrator {
	return &Orchestrator{
		store: store,
		cache: make(map[EmbeddingKey]*Embedding),
	}
}

// OnInvalidate registers a hook fired whenever the embedding cache is
// purged, so dependent caches (clustering) can purge with it.
func (o *Orchestrator) OnInvalidate(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onInvalidate = append(o.onInvalidate, fn)
}

// Stats returns a copy of the cache counters.
func (o *Orchestrator) Stats() OrchestratorStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Runs returns the recorded reduction invocations, oldest first.
func (o *Orchestrator) Runs() []RunRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]RunRecord, len(o.runs))
	copy(out, o.runs)
	return out
}

// Reduce produces the embedding for one analysis request, from cache
// when the route set is unchanged and an equal request was already
// computed.
func (o *Orchestrator) Reduce(req AnalysisRequest) (*Embedding, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reduceLocked(req)
}

// CompareAll runs every algorithm with its defaults over one shared
// snapshot. A failure in one algorithm is isolated and reported in the
// returned failure map; the operation fails as a whole only when fewer
// than two routes survive extraction.
func (o *Orchestrator) CompareAll(cfg FeatureConfig) (map[Algorithm]*Embedding, map[Algorithm]error, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.syncFingerprintLocked()
	fm := ExtractFeatures(o.store.Snapshot(), cfg)
	if fm.Rows() < 2 {
		return nil, nil, requestErrorf("compare-all features="+cfg.String(), ErrInsufficientData,
			"have %d usable routes, need at least 2", fm.Rows())
	}

	embeddings := make(map[Algorithm]*Embedding)
	failures := make(map[Algorithm]error)
	for _, alg := range Algorithms() {
		req := AnalysisRequest{Params: DefaultParams(alg, fm.Rows()), Features: cfg}
		emb, err := o.reduceLocked(req)
		if err != nil {
			monitoring.Logf("analysis: compare-all: %s failed: %v", alg, err)
			failures[alg] = err
			continue
		}
		embeddings[alg] = emb
	}
	return embeddings, failures, nil
}

// Invalidate drops all cached embeddings and fires the invalidation
// hooks.
func (o *Orchestrator) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalidateLocked("explicit invalidation")
}

func (o *Orchestrator) reduceLocked(req AnalysisRequest) (*Embedding, error) {
	desc := req.String()

	o.syncFingerprintLocked()
	fm := ExtractFeatures(o.store.Snapshot(), req.Features)
	if fm.Rows() < 2 {
		return nil, requestErrorf(desc, ErrInsufficientData, "have %d usable routes, need at least 2", fm.Rows())
	}
	if err := req.Params.validate(fm.Rows()); err != nil {
		return nil, &RequestError{Request: desc, Err: err}
	}

	key := EmbeddingKey{
		Algorithm:   req.Params.Algorithm(),
		Params:      req.Params.normalize(),
		Features:    req.Features,
		Fingerprint: o.lastFP,
	}
	if emb, ok := o.cache[key]; ok {
		o.stats.Hits++
		o.appendRunLocked(RunRecord{
			RunID:     emb.RunID,
			Algorithm: key.Algorithm,
			Params:    key.Params,
			Features:  key.Features,
			Routes:    fm.Rows(),
			Cached:    true,
		})
		return emb, nil
	}

	start := time.Now()
	Y, err := reduceMatrix(req.Params, numerics.Standardize(fm.X))
	if err != nil {
		return nil, requestErrorf(desc, ErrAlgorithmFailure, "%v", err)
	}

	emb := &Embedding{
		Key:    key,
		RunID:  uuid.New().String(),
		Order:  append([]int(nil), fm.IDs...),
		Points: make(map[int]r2.Point, fm.Rows()),
	}
	for i, id := range fm.IDs {
		emb.Points[id] = r2.Point{X: Y.At(i, 0), Y: Y.At(i, 1)}
	}

	o.cache[key] = emb
	o.stats.Computes++
	o.appendRunLocked(RunRecord{
		RunID:     emb.RunID,
		Algorithm: key.Algorithm,
		Params:    key.Params,
		Features:  key.Features,
		Routes:    fm.Rows(),
		Duration:  time.Since(start),
	})
	return emb, nil
}

// reduceMatrix dispatches the parameter variant to its numerical
// primitive. X is already standardized.
func reduceMatrix(params ReduceParams, X *mat.Dense) (*mat.Dense, error) {
	switch p := params.(type) {
	case UMAPParams:
		return numerics.UMAP(X, p.NNeighbors, p.MinDist)
	case TSNEParams:
		return numerics.TSNE(X, p.Perplexity, p.LearningRate)
	case PCAParams:
		return numerics.PCA(X)
	case MDSParams:
		return numerics.MDS(X)
	case IsomapParams:
		return numerics.Isomap(X, p.NNeighbors)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", params.Algorithm())
	}
}

// syncFingerprintLocked compares the store fingerprint against the one
// the caches were built for and conservatively purges everything on any
// change. The purge is informational, not an error.
func (o *Orchestrator) syncFingerprintLocked() {
	fp := o.store.Fingerprint()
	if o.haveFP && fp == o.lastFP {
		return
	}
	if o.haveFP {
		o.invalidateLocked(fmt.Sprintf("route set changed (%s)", fp))
	}
	o.lastFP = fp
	o.haveFP = true
}

func (o *Orchestrator) invalidateLocked(reason string) {
	if len(o.cache) > 0 {
		o.stats.Invalidations++
		monitoring.Logf("analysis: %s; invalidating %d cached embedding(s)", reason, len(o.cache))
	}
	o.cache = make(map[EmbeddingKey]*Embedding)
	for _, fn := range o.onInvalidate {
		fn()
	}
}

func (o *Orchestrator) appendRunLocked(rec RunRecord) {
	o.runs = append(o.runs, rec)
	if len(o.runs) > maxRunRecords {
		o.runs = o.runs[len(o.runs)-maxRunRecords:]
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
