package clusterer

// Similarity compares two pattern strings by prefix alignment: 1 when they are
// identical, otherwise the length of their longest common leading run divided
// by the length of the longer string. Lengths are counted in runes.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}

	common := 0
	for common < len(ra) && common < len(rb) && ra[common] == rb[common] {
		common++
	}

	return float64(common) / float64(longer)
}
