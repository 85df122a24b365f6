package index

// MergeHits merges lists of hits, each sorted by non-increasing score, into a
// single list of at most k hits sorted the same way. On equal scores hits from
// earlier lists come first.
func MergeHits(k int, lists ...[]Hit) []Hit {
	if k <= 0 {
		return nil
	}

	result := make([]Hit, 0, k)
	pos := make([]int, len(lists))

	for len(result) < k {
		best := -1
		for i, l := range lists {
			if pos[i] >= len(l) {
				continue
			}
			if best < 0 || l[pos[i]].Score > lists[best][pos[best]].Score {
				best = i
			}
		}
		if best < 0 {
			break
		}
		result = append(result, lists[best][pos[best]])
		pos[best]++
	}

	return result
}
