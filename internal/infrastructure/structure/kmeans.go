package structure

// kmeans assigns each vector to one of k clusters. Deterministic: centroids
// seed from evenly spaced inputs, ties resolve to the lower index.
func kmeans(vectors [][]float32, k, iterations int) []int {
	n := len(vectors)
	if k <= 0 || n == 0 {
		return make([]int, n)
	}
	if k > n {
		k = n
	}
	dim := len(vectors[0])

	centroids := make([][]float32, k)
	for i := range centroids {
		centroids[i] = append([]float32(nil), vectors[i*n/k]...)
	}

	assignment := make([]int, n)
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestDist := 0, float32(0)
			for c := range centroids {
				d := sqDist(v, centroids[c])
				if c == 0 || d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignment[i] != best {
				assignment[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		counts := make([]int, k)
		sums := make([][]float32, k)
		for c := range sums {
			sums[c] = make([]float32, dim)
		}
		for i, v := range vectors {
			c := assignment[i]
			counts[c]++
			for j := range v {
				sums[c][j] += v[j]
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float32(counts[c])
			}
		}
	}
	return assignment
}

func sqDist(a, b []float32) float32 {
	var sum float32
	for i := range a {
		if i >= len(b) {
			break
		}
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
