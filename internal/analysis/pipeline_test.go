package analysis

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"
)

func TestPipelineEndToEnd(t *testing.T) {
	p := NewPipeline(storeWith(6))

	emb, err := p.Analyze(AnalysisRequest{Params: PCAParams{}})
	require.NoError(t, err)
	require.Len(t, emb.Order, 6)

	res, err := p.Cluster(emb, ClusterRequest{
		Algorithm: ClusterDBSCAN, Eps: floatPtr(10), MinSamples: 2,
	})
	require.NoError(t, err)
	require.Len(t, res.Labels, 6)

	dm := p.DisplayMap()
	require.Len(t, dm, 6)
	for id, d := range dm {
		require.True(t, d.Labeled, "route %d unbound", id)
	}

	ins, err := p.Binder.Inspect(emb.Order[0])
	require.NoError(t, err)
	require.NotNil(t, ins.Coordinate)
	require.NotNil(t, ins.Label)
}

func TestPipelineInvalidationCascades(t *testing.T) {
	p := NewPipeline(storeWith(4))

	emb, err := p.Analyze(AnalysisRequest{Params: PCAParams{}})
	require.NoError(t, err)
	_, err = p.Cluster(emb, ClusterRequest{
		Algorithm: ClusterDBSCAN, Eps: floatPtr(10), MinSamples: 2,
	})
	require.NoError(t, err)

	// A route mutation purges the embedding cache, and the cluster cache
	// must be purged with it.
	p.Store.AddRoute([]r2.Point{{X: 7, Y: 7}, {X: 8, Y: 8}})
	_, err = p.Analyze(AnalysisRequest{Params: PCAParams{}})
	require.NoError(t, err)

	require.Equal(t, 1, p.Clusterer.Stats().Invalidations)
}

func TestPipelineCompareAllBindsFirstSuccess(t *testing.T) {
	p := NewPipeline(storeWith(5))

	embeddings, failures, err := p.CompareAll(FeatureConfig{})
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Len(t, embeddings, len(Algorithms()))

	ins, err := p.Binder.Inspect(1)
	require.NoError(t, err)
	require.NotNil(t, ins.Coordinate)
}
