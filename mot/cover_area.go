package mot

// CoverArea returns number of base's pixels covered by any of overlaps.
// Overlaps are clipped to the base, so pixels covered by several overlaps are counted once
// and the result never exceeds base.Area(). Degenerate base gives zero.
func CoverArea(base Region, overlaps []Region) int {
	if base.W < 1 || base.H < 1 {
		return 0
	}
	grid := make([]bool, base.W*base.H)
	covered := 0
	for _, overlap := range overlaps {
		if overlap.W <= 0 || overlap.H <= 0 {
			continue
		}
		// Local frame of the base region
		x1 := clampInt(overlap.X-base.X, 0, base.W)
		y1 := clampInt(overlap.Y-base.Y, 0, base.H)
		x2 := clampInt(overlap.X2()-base.X, 0, base.W)
		y2 := clampInt(overlap.Y2()-base.Y, 0, base.H)
		for y := y1; y < y2; y++ {
			row := grid[y*base.W : (y+1)*base.W]
			for x := x1; x < x2; x++ {
				if !row[x] {
					row[x] = true
					covered++
				}
			}
		}
	}
	return covered
}
