package analysis

import (
	"errors"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/banshee-data/routelab/internal/monitoring"
	"github.com/banshee-data/routelab/internal/routes"
)

func TestMain(m *testing.M) {
	defer monitoring.Silence()()
	m.Run()
}

// storeWith returns a store seeded with n two-point routes of varying
// geometry.
func storeWith(n int) *routes.Store {
	s := routes.NewStore()
	for i := 0; i < n; i++ {
		f := float64(i)
		s.AddRoute([]r2.Point{{X: f, Y: 0}, {X: f + 1, Y: f + 1}})
	}
	return s
}

func TestReduceInsufficientData(t *testing.T) {
	for _, n := range []int{0, 1} {
		o := NewOrchestrator(storeWith(n))
		_, err := o.Reduce(AnalysisRequest{Params: PCAParams{}})
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("n=%d: err = %v, want ErrInsufficientData", n, err)
		}
	}
}

func TestReduceSingleSurvivorIsInsufficient(t *testing.T) {
	// Two stored routes, but one is a single point and does not survive
	// extraction.
	s := storeWith(1)
	s.AddRoute([]r2.Point{{X: 9, Y: 9}})

	o := NewOrchestrator(s)
	_, err := o.Reduce(AnalysisRequest{Params: PCAParams{}})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestReduceAllAlgorithmsAtMinimumSize(t *testing.T) {
	// Two surviving routes is the floor: every algorithm must produce an
	// embedding with its data-derived defaults.
	o := NewOrchestrator(storeWith(2))
	for _, alg := range Algorithms() {
		emb, err := o.Reduce(AnalysisRequest{Params: DefaultParams(alg, 2)})
		if err != nil {
			t.Errorf("%s: %v", alg, err)
			continue
		}
		if len(emb.Order) != 2 || len(emb.Points) != 2 {
			t.Errorf("%s: embedding covers %d routes, want 2", alg, len(emb.Points))
		}
	}
}

func TestReduceRejectsInvalidParameters(t *testing.T) {
	o := NewOrchestrator(storeWith(5))

	cases := []struct {
		name   string
		params ReduceParams
	}{
		{"umap n_neighbors too large", UMAPParams{NNeighbors: 5, MinDist: 0.1}},
		{"umap n_neighbors zero", UMAPParams{NNeighbors: 0, MinDist: 0.1}},
		{"umap min_dist out of range", UMAPParams{NNeighbors: 2, MinDist: 1.5}},
		{"tsne perplexity too large", TSNEParams{Perplexity: 5, LearningRate: 200}},
		{"tsne learning rate zero", TSNEParams{Perplexity: 2, LearningRate: 0}},
		{"isomap n_neighbors too large", IsomapParams{NNeighbors: 7}},
	}
	for _, c := range cases {
		_, err := o.Reduce(AnalysisRequest{Params: c.params})
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s: err = %v, want ErrInvalidParameter", c.name, err)
		}
	}

	// Out-of-range parameters are rejected, never corrected: nothing got
	// computed or cached on the way.
	if stats := o.Stats(); stats.Computes != 0 {
		t.Errorf("Computes = %d after rejected requests, want 0", stats.Computes)
	}
}

func TestReduceCachesByStructuralKey(t *testing.T) {
	o := NewOrchestrator(storeWith(4))
	req := AnalysisRequest{Params: UMAPParams{NNeighbors: 2, MinDist: 0.1}}

	emb1, err := o.Reduce(req)
	if err != nil {
		t.Fatal(err)
	}
	// A structurally equal request hits the cache even though the params
	// value was rebuilt.
	emb2, err := o.Reduce(AnalysisRequest{Params: UMAPParams{NNeighbors: 2, MinDist: 0.1}})
	if err != nil {
		t.Fatal(err)
	}

	if emb1 != emb2 {
		t.Error("equal requests returned different embeddings")
	}
	stats := o.Stats()
	if stats.Computes != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v, want 1 compute and 1 hit", stats)
	}

	// A different feature configuration is a different key.
	if _, err := o.Reduce(AnalysisRequest{
		Params:   UMAPParams{NNeighbors: 2, MinDist: 0.1},
		Features: FeatureConfig{IncludeEuclidean: true},
	}); err != nil {
		t.Fatal(err)
	}
	if stats := o.Stats(); stats.Computes != 2 {
		t.Errorf("Computes = %d after changed feature config, want 2", stats.Computes)
	}
}

func TestReduceInvalidatesOnMutation(t *testing.T) {
	s := storeWith(4)
	o := NewOrchestrator(s)
	req := AnalysisRequest{Params: PCAParams{}}

	if _, err := o.Reduce(req); err != nil {
		t.Fatal(err)
	}
	s.AddRoute([]r2.Point{{X: 50, Y: 50}, {X: 51, Y: 51}})
	emb, err := o.Reduce(req)
	if err != nil {
		t.Fatal(err)
	}

	stats := o.Stats()
	if stats.Computes != 2 || stats.Hits != 0 {
		t.Errorf("stats = %+v, want 2 computes and 0 hits after mutation", stats)
	}
	if stats.Invalidations != 1 {
		t.Errorf("Invalidations = %d, want 1", stats.Invalidations)
	}
	if len(emb.Order) != 5 {
		t.Errorf("recomputed embedding covers %d routes, want 5", len(emb.Order))
	}
}

func TestReduceFailureLeavesCacheIntact(t *testing.T) {
	o := NewOrchestrator(storeWith(4))

	if _, err := o.Reduce(AnalysisRequest{Params: PCAParams{}}); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Reduce(AnalysisRequest{Params: UMAPParams{NNeighbors: 99, MinDist: 0.1}}); err == nil {
		t.Fatal("want parameter error")
	}

	// The failed request must not have evicted the prior embedding.
	if _, err := o.Reduce(AnalysisRequest{Params: PCAParams{}}); err != nil {
		t.Fatal(err)
	}
	stats := o.Stats()
	if stats.Computes != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v, want the PCA entry to survive the failed request", stats)
	}
}

func TestCompareAll(t *testing.T) {
	o := NewOrchestrator(storeWith(6))

	embeddings, failures, err := o.CompareAll(FeatureConfig{IncludeEuclidean: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none", failures)
	}
	for _, alg := range Algorithms() {
		emb, ok := embeddings[alg]
		if !ok {
			t.Errorf("%s missing from results", alg)
			continue
		}
		if len(emb.Order) != 6 {
			t.Errorf("%s covers %d routes, want 6", alg, len(emb.Order))
		}
	}
}

func TestCompareAllInsufficientData(t *testing.T) {
	o := NewOrchestrator(storeWith(1))
	_, _, err := o.CompareAll(FeatureConfig{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestRunRecords(t *testing.T) {
	o := NewOrchestrator(storeWith(3))
	req := AnalysisRequest{Params: MDSParams{}}

	if _, err := o.Reduce(req); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Reduce(req); err != nil {
		t.Fatal(err)
	}

	runs := o.Runs()
	if len(runs) != 2 {
		t.Fatalf("got %d run records, want 2", len(runs))
	}
	if runs[0].Cached || !runs[1].Cached {
		t.Errorf("cached flags = %v,%v, want false,true", runs[0].Cached, runs[1].Cached)
	}
	if runs[0].RunID == "" || runs[0].RunID != runs[1].RunID {
		t.Errorf("cache hit should report the original run ID: %q vs %q", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].Algorithm != AlgorithmMDS || runs[0].Routes != 3 {
		t.Errorf("run record = %+v", runs[0])
	}
}

func TestRequestErrorMentionsRequest(t *testing.T) {
	o := NewOrchestrator(storeWith(3))
	_, err := o.Reduce(AnalysisRequest{Params: IsomapParams{NNeighbors: 9}})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %T, want *RequestError", err)
	}
	if reqErr.Request == "" {
		t.Error("RequestError carries no request description")
	}
}
