package numerics

// DBSCAN performs density-based clustering over 2D points and returns one
// label per point: clusters are numbered 0..k-1, noise points get -1.
// A point's eps-neighbourhood includes the point itself, so minSamples=1
// makes every point a core point.
//
// Neighbourhood queries are a direct scan; the inputs here are one point
// per route, far below the sizes that would justify a spatial index.
func DBSCAN(points []Point2, eps float64, minSamples int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}

	// 0=unvisited, -1=noise, >0=cluster ID. Rebased to 0..k-1 on return.
	labels := make([]int, n)
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minSamples {
			labels[i] = -1
			continue
		}

		clusterID++
		expandCluster(points, labels, i, neighbors, clusterID, eps, minSamples)
	}

	out := make([]int, n)
	for i, l := range labels {
		if l > 0 {
			out[i] = l - 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// expandCluster grows a cluster outward from a core point using a
// queue-based sweep over reachable neighbours.
func expandCluster(points []Point2, labels []int, seedIdx int, neighbors []int, clusterID int, eps float64, minSamples int) {
	labels[seedIdx] = clusterID

	for q := 0; q < len(neighbors); q++ {
		idx := neighbors[q]

		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes a border point
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		next := regionQuery(points, idx, eps)
		if len(next) >= minSamples {
			neighbors = append(neighbors, next...)
		}
	}
}

func regionQuery(points []Point2, idx int, eps float64) []int {
	var neighbors []int
	eps2 := eps * eps
	p := points[idx]
	for j, q := range points {
		dx := q.X - p.X
		dy := q.Y - p.Y
		if dx*dx+dy*dy <= eps2 {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
