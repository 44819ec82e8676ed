package diff

// diffArraysLCS pairs equal elements along the longest common subsequence of left and
// right. Between two matched pairs, unmatched elements are compared positionally and
// the surplus of the longer run is reported as added or removed. Paired and removed
// elements carry their left index, added elements their right index.
func (e *Engine) diffArraysLCS(left, right []any, path string, out []Difference) []Difference {
	n, m := len(left), len(right)
	equal := func(i, j int) bool {
		return len(e.findDifferences(left[i], right[j], "", nil)) == 0
	}

	// table[i][j] is the LCS length of left[i:] and right[j:]
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if equal(i, j) {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	var removed, added []int
	flush := func() {
		paired := min(len(removed), len(added))
		for k := 0; k < paired; k++ {
			out = e.findDifferences(left[removed[k]], right[added[k]], indexPath(path, removed[k]), out)
		}
		for _, i := range removed[paired:] {
			out = append(out, Difference{Path: indexPath(path, i), LeftValue: left[i], Type: DifferenceRemoved})
		}
		for _, j := range added[paired:] {
			out = append(out, Difference{Path: indexPath(path, j), RightValue: right[j], Type: DifferenceAdded})
		}
		removed, added = removed[:0], added[:0]
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case table[i][j] == table[i+1][j+1]+1 && equal(i, j):
			flush()
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			removed = append(removed, i)
			i++
		default:
			added = append(added, j)
			j++
		}
	}
	for ; i < n; i++ {
		removed = append(removed, i)
	}
	for ; j < m; j++ {
		added = append(added, j)
	}
	flush()
	return out
}
