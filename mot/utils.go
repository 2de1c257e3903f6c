package mot

// IoU calculates Intersection over Union between two regions.
// Touching regions have zero intersection, so IoU is 0 for them.
func IoU(r1, r2 Region) float64 {
	inter := r1.OwnSubregion(r2)
	if inter.W <= 0 || inter.H <= 0 {
		return 0.0
	}
	interArea := float64(inter.Area())
	union := float64(r1.Area()+r2.Area()) - interArea
	if union <= 0 {
		return 0.0
	}
	return interArea / union
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
