package typo

// Distance returns the Levenshtein edit distance between a and b, counted in runes.
// Only two rows of the DP table are kept, sized to the shorter input.
func Distance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) > len(br) {
		ar, br = br, ar
	}
	if len(ar) == 0 {
		return len(br)
	}

	prev := make([]int, len(ar)+1)
	curr := make([]int, len(ar)+1)
	for i := range prev {
		prev[i] = i
	}

	for j, bc := range br {
		curr[0] = j + 1
		for i, ac := range ar {
			sub := prev[i]
			if ac != bc {
				sub++
			}
			curr[i+1] = min(curr[i]+1, prev[i+1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(ar)]
}
