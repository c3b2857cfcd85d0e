package numerics

import (
	"math"
	"sort"
)

// OPTICS orders points by density reachability and extracts cluster
// labels from the resulting reachability profile: clusters are numbered
// 0..k-1, noise points get -1.
//
// The ordering pass is the standard algorithm with an unbounded
// generating radius. Labels are extracted by cutting the reachability
// plot at the mean finite reachability; contiguous runs below the cut
// form clusters, and runs smaller than minSamples are demoted to noise.
func OPTICS(points []Point2, minSamples int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}
	if minSamples > n {
		minSamples = n
	}

	core := coreDistances(points, minSamples)
	reach := make([]float64, n)
	processed := make([]bool, n)
	for i := range reach {
		reach[i] = math.Inf(1)
	}

	order := make([]int, 0, n)
	for len(order) < n {
		// Next point: smallest reachability among the unprocessed, which
		// seeds a fresh region when everything reachable is exhausted.
		next := -1
		for i := 0; i < n; i++ {
			if processed[i] {
				continue
			}
			if next == -1 || reach[i] < reach[next] {
				next = i
			}
		}

		processed[next] = true
		order = append(order, next)

		for j := 0; j < n; j++ {
			if processed[j] {
				continue
			}
			d := points[next].distanceTo(points[j])
			newReach := math.Max(core[next], d)
			if newReach < reach[j] {
				reach[j] = newReach
			}
		}
	}

	return extractLabels(order, reach, core, minSamples)
}

// coreDistances returns, per point, the distance to its minSamples-th
// nearest neighbour, counting the point itself.
func coreDistances(points []Point2, minSamples int) []float64 {
	n := len(points)
	core := make([]float64, n)
	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dists[j] = points[i].distanceTo(points[j])
		}
		sort.Float64s(dists)
		core[i] = dists[minSamples-1]
	}
	return core
}

func extractLabels(order []int, reach, core []float64, minSamples int) []int {
	n := len(order)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	var finite []float64
	for _, r := range reach {
		if !math.IsInf(r, 1) {
			finite = append(finite, r)
		}
	}
	if len(finite) == 0 {
		return labels
	}
	var cut float64
	for _, r := range finite {
		cut += r
	}
	cut /= float64(len(finite))

	cluster := -1
	for _, i := range order {
		if reach[i] > cut || math.IsInf(reach[i], 1) {
			if core[i] <= cut {
				cluster++
				labels[i] = cluster
			}
			continue
		}
		if cluster >= 0 {
			labels[i] = cluster
		}
	}

	// Demote undersized clusters to noise and renumber the rest compactly.
	sizes := make(map[int]int)
	for _, l := range labels {
		if l >= 0 {
			sizes[l]++
		}
	}
	remap := make(map[int]int)
	nextID := 0
	for c := 0; c <= cluster; c++ {
		if sizes[c] >= minSamples {
			remap[c] = nextID
			nextID++
		}
	}
	for i, l := range labels {
		if l < 0 {
			continue
		}
		if id, ok := remap[l]; ok {
			labels[i] = id
		} else {
			labels[i] = -1
		}
	}
	return labels
}
