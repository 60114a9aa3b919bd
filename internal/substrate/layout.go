package substrate

import (
	"hash/fnv"
	"math"

	"github.com/ppiankov/katharsis/internal/model"
)

// Layout parameters. The layout is an enrichment for rendering only; nothing
// downstream reads the coordinates.
const (
	layoutIterations = 60
	layoutCooling    = 0.95
)

// applyLayout computes a deterministic 2-D force placement over the knn
// graph. Initial positions derive from the node-id hash and iterations run in
// fixed order, so identical substrates always lay out identically.
func applyLayout(sub *model.Substrate) {
	n := len(sub.Nodes)
	if n == 0 {
		return
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	byID := make(map[string]int, n)
	for i := range sub.Nodes {
		byID[sub.Nodes[i].ID] = i
		xs[i], ys[i] = seedPosition(sub.Nodes[i].ID)
	}
	if n == 1 {
		sub.Nodes[0].Coord = &model.Coord{X: 0.5, Y: 0.5}
		return
	}

	k := math.Sqrt(1 / float64(n)) // Ideal spring length in the unit square
	temp := 0.1

	dx := make([]float64, n)
	dy := make([]float64, n)
	for iter := 0; iter < layoutIterations; iter++ {
		for i := range dx {
			dx[i], dy[i] = 0, 0
		}

		// Pairwise repulsion.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				ddx, ddy, dist := delta(xs, ys, i, j)
				force := k * k / dist
				dx[i] += ddx / dist * force
				dy[i] += ddy / dist * force
				dx[j] -= ddx / dist * force
				dy[j] -= ddy / dist * force
			}
		}

		// Spring attraction along knn edges.
		for _, e := range sub.KNN.Edges {
			i, j := byID[e.A], byID[e.B]
			ddx, ddy, dist := delta(xs, ys, i, j)
			force := dist * dist / k
			dx[i] -= ddx / dist * force
			dy[i] -= ddy / dist * force
			dx[j] += ddx / dist * force
			dy[j] += ddy / dist * force
		}

		for i := 0; i < n; i++ {
			disp := math.Hypot(dx[i], dy[i])
			if disp == 0 {
				continue
			}
			step := math.Min(disp, temp)
			xs[i] += dx[i] / disp * step
			ys[i] += dy[i] / disp * step
		}
		temp *= layoutCooling
	}

	normalizeBox(xs)
	normalizeBox(ys)
	for i := range sub.Nodes {
		sub.Nodes[i].Coord = &model.Coord{X: Quantize(xs[i]), Y: Quantize(ys[i])}
	}
}

// seedPosition maps a node id to a stable position in the unit square.
func seedPosition(id string) (float64, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	v := h.Sum64()
	x := float64(v%100000) / 100000
	y := float64((v/100000)%100000) / 100000
	return x, y
}

func delta(xs, ys []float64, i, j int) (float64, float64, float64) {
	ddx := xs[i] - xs[j]
	ddy := ys[i] - ys[j]
	dist := math.Hypot(ddx, ddy)
	if dist < 1e-9 {
		// Coincident nodes: deterministic tiny separation along x.
		return 1e-9, 0, 1e-9
	}
	return ddx, ddy, dist
}

func normalizeBox(vals []float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < 1e-9 {
		for i := range vals {
			vals[i] = 0.5
		}
		return
	}
	for i := range vals {
		vals[i] = (vals[i] - lo) / (hi - lo)
	}
}
