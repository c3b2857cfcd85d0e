package analysis

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/banshee-data/routelab/internal/monitoring"
	"github.com/banshee-data/routelab/internal/numerics"
)

// ClusterAlgorithm identifies a clustering algorithm. The set is closed.
type ClusterAlgorithm string

const (
	ClusterDBSCAN ClusterAlgorithm = "DBSCAN"
	ClusterOPTICS ClusterAlgorithm = "OPTICS"
)

// ClusterAlgorithms returns the supported clustering algorithms.
func ClusterAlgorithms() []ClusterAlgorithm {
	return []ClusterAlgorithm{ClusterDBSCAN, ClusterOPTICS}
}

// NoiseLabel is the reserved cross-algorithm label for points not
// assigned to any dense region.
const NoiseLabel = -1

// ClusterRequest asks for cluster labels over an embedding. Eps is
// required for DBSCAN. OPTICS ignores eps; a supplied value is dropped
// with a logged note, never repurposed.
type ClusterRequest struct {
	Algorithm  ClusterAlgorithm
	Eps        *float64
	MinSamples int
}

func (r ClusterRequest) String() string {
	return fmt.Sprintf("%s(%s)", r.Algorithm, r.normalize())
}

// normalize renders only the parameters the algorithm actually consumes,
// so an OPTICS request with and without eps shares one cache entry.
func (r ClusterRequest) normalize() string {
	switch r.Algorithm {
	case ClusterDBSCAN:
		eps := "nil"
		if r.Eps != nil {
			eps = formatFloat(*r.Eps)
		}
		return "eps=" + eps + ",min_samples=" + strconv.Itoa(r.MinSamples)
	default:
		return "min_samples=" + strconv.Itoa(r.MinSamples)
	}
}

func (r ClusterRequest) validate() error {
	switch r.Algorithm {
	case ClusterDBSCAN:
		if r.Eps == nil {
			return fmt.Errorf("%w: eps is required for DBSCAN", ErrInvalidParameter)
		}
		if *r.Eps <= 0 {
			return fmt.Errorf("%w: eps=%g must be positive", ErrInvalidParameter, *r.Eps)
		}
		if r.MinSamples < 1 {
			return fmt.Errorf("%w: min_samples=%d must be at least 1", ErrInvalidParameter, r.MinSamples)
		}
	case ClusterOPTICS:
		if r.MinSamples < 2 {
			return fmt.Errorf("%w: min_samples=%d must be at least 2 for OPTICS", ErrInvalidParameter, r.MinSamples)
		}
	default:
		return fmt.Errorf("%w: unknown clustering algorithm %q", ErrInvalidParameter, r.Algorithm)
	}
	return nil
}

// ClusterKey is the structural cache key for cluster results: the
// identity of the source embedding plus algorithm and normalized
// parameters.
type ClusterKey struct {
	Embedding EmbeddingKey
	Algorithm ClusterAlgorithm
	Params    string
}

// ClusterResult maps route IDs to integer cluster labels. NoiseLabel
// marks unclustered routes. Label identity is stable within one result,
// not across re-runs with different parameters.
type ClusterResult struct {
	Key      ClusterKey
	Labels   map[int]int
	Clusters int // number of non-noise clusters
	Noise    int // number of noise routes
}

// Label returns the label of a route, if present.
func (r *ClusterResult) Label(routeID int) (int, bool) {
	l, ok := r.Labels[routeID]
	return l, ok
}

// EngineStats counts clustering cache behaviour.
type EngineStats struct {
	Computes      int
	Hits          int
	Invalidations int
}

// Engine runs clustering over embeddings and caches results by
// (embedding identity, algorithm, normalized parameters). It is
// invalidated together with the embedding cache it depends on.
type Engine struct {
	mu    sync.Mutex
	cache map[ClusterKey]*ClusterResult
	stats EngineStats
}

// NewEngine creates an empty clustering engine.
func NewEngine() *Engine {
	return &Engine{cache: make(map[ClusterKey]*ClusterResult)}
}

// Stats returns a copy of the cache counters.
func (e *Engine) Stats() EngineStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Invalidate drops all cached cluster results.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cache) > 0 {
		e.stats.Invalidations++
		monitoring.Logf("analysis: invalidating %d cached cluster result(s)", len(e.cache))
	}
	e.cache = make(map[ClusterKey]*ClusterResult)
}

// Cluster produces labels for an embedding. The label mapping's domain
// is exactly the embedding's domain.
func (e *Engine) Cluster(emb *Embedding, req ClusterRequest) (*ClusterResult, error) {
	desc := req.String()
	if err := req.validate(); err != nil {
		return nil, &RequestError{Request: desc, Err: err}
	}
	if req.Algorithm == ClusterOPTICS && req.Eps != nil {
		monitoring.Logf("analysis: %s: eps=%g is not used by OPTICS; dropping it", desc, *req.Eps)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := ClusterKey{Embedding: emb.Key, Algorithm: req.Algorithm, Params: req.normalize()}
	if res, ok := e.cache[key]; ok {
		e.stats.Hits++
		return res, nil
	}

	points := make([]numerics.Point2, len(emb.Order))
	for i, id := range emb.Order {
		p := emb.Points[id]
		points[i] = numerics.Point2{X: p.X, Y: p.Y}
	}

	var labels []int
	switch req.Algorithm {
	case ClusterDBSCAN:
		labels = numerics.DBSCAN(points, *req.Eps, req.MinSamples)
	case ClusterOPTICS:
		labels = numerics.OPTICS(points, req.MinSamples)
	}
	if len(labels) != len(emb.Order) {
		return nil, requestErrorf(desc, ErrAlgorithmFailure, "got %d labels for %d routes", len(labels), len(emb.Order))
	}

	res := &ClusterResult{Key: key, Labels: make(map[int]int, len(labels))}
	seen := make(map[int]bool)
	for i, id := range emb.Order {
		res.Labels[id] = labels[i]
		if labels[i] == NoiseLabel {
			res.Noise++
		} else if !seen[labels[i]] {
			seen[labels[i]] = true
			res.Clusters++
		}
	}

	e.cache[key] = res
	e.stats.Computes++
	return res, nil
}
