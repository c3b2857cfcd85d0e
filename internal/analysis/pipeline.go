package analysis

import (
	"github.com/banshee-data/routelab/internal/routes"
)

// Pipeline wires the route store, reduction orchestrator, clustering
// engine and result binder together: one embedding-cache invalidation
// purges the clustering cache with it, and successful results are bound
// for the visualization layer automatically.
type Pipeline struct {
	Store     *routes.Store
	Reducer   *Orchestrator
	Clusterer *Engine
	Binder    *Binder
}

// NewPipeline builds a pipeline over the given store.
func NewPipeline(store *routes.Store) *Pipeline {
	p := &Pipeline{
		Store:     store,
		Reducer:   NewOrchestrator(store),
		Clusterer: NewEngine(),
		Binder:    NewBinder(),
	}
	p.Reducer.OnInvalidate(p.Clusterer.Invalidate)
	return p
}

// Analyze runs one reduction request and binds the result.
func (p *Pipeline) Analyze(req AnalysisRequest) (*Embedding, error) {
	emb, err := p.Reducer.Reduce(req)
	if err != nil {
		return nil, err
	}
	p.Binder.Bind(ExtractFeatures(p.Store.Snapshot(), req.Features), emb, nil)
	return emb, nil
}

// CompareAll runs every algorithm with defaults; the first successful
// embedding (in algorithm display order) is bound for inspection.
func (p *Pipeline) CompareAll(cfg FeatureConfig) (map[Algorithm]*Embedding, map[Algorithm]error, error) {
	embeddings, failures, err := p.Reducer.CompareAll(cfg)
	if err != nil {
		return nil, nil, err
	}
	for _, alg := range Algorithms() {
		if emb, ok := embeddings[alg]; ok {
			p.Binder.Bind(ExtractFeatures(p.Store.Snapshot(), cfg), emb, nil)
			break
		}
	}
	return embeddings, failures, nil
}

// Cluster labels an embedding and binds the result.
func (p *Pipeline) Cluster(emb *Embedding, req ClusterRequest) (*ClusterResult, error) {
	res, err := p.Clusterer.Cluster(emb, req)
	if err != nil {
		return nil, err
	}
	p.Binder.Bind(nil, emb, res)
	return res, nil
}

// DisplayMap returns the display binding for every route currently in
// the store.
func (p *Pipeline) DisplayMap() map[int]RouteDisplay {
	snap := p.Store.Snapshot()
	ids := make([]int, len(snap))
	for i, rt := range snap {
		ids[i] = rt.ID
	}
	return p.Binder.DisplayMap(ids)
}
