package vision

import (
	"image"
)

// ThinGuoHall reduces a binary mask to a 1-pixel-wide skeleton using the
// Guo-Hall parallel thinning algorithm. The input is not modified. Pixels on
// the outermost row and column are never removed.
func ThinGuoHall(mask *image.Gray) *image.Gray {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()

	// Work on a 0/1 grid so the neighbourhood tests are plain bit logic.
	grid := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, v := range row {
			if v != 0 {
				grid[y*w+x] = 1
			}
		}
	}

	marker := make([]uint8, w*h)
	for {
		changed := thinningPass(grid, marker, w, h, 0)
		if thinningPass(grid, marker, w, h, 1) {
			changed = true
		}
		if !changed {
			break
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range grid {
		if v != 0 {
			out.Pix[i] = Foreground
		}
	}
	return out
}

// thinningPass runs one Guo-Hall sub-iteration and reports whether any pixel
// was removed. Deletions are decided against the grid as it was at the start
// of the pass.
func thinningPass(grid, marker []uint8, w, h, iter int) bool {
	clear(marker)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if grid[y*w+x] == 0 {
				continue
			}
			up, mid, down := (y-1)*w, y*w, (y+1)*w
			p2 := grid[up+x]
			p3 := grid[up+x+1]
			p4 := grid[mid+x+1]
			p5 := grid[down+x+1]
			p6 := grid[down+x]
			p7 := grid[down+x-1]
			p8 := grid[mid+x-1]
			p9 := grid[up+x-1]

			c := (not(p2) & (p3 | p4)) + (not(p4) & (p5 | p6)) +
				(not(p6) & (p7 | p8)) + (not(p8) & (p9 | p2))
			n1 := (p9 | p2) + (p3 | p4) + (p5 | p6) + (p7 | p8)
			n2 := (p2 | p3) + (p4 | p5) + (p6 | p7) + (p8 | p9)
			n := min(n1, n2)

			var m uint8
			if iter == 0 {
				m = (p6 | p7 | not(p9)) & p8
			} else {
				m = (p2 | p3 | not(p5)) & p4
			}

			if c == 1 && n >= 2 && n <= 3 && m == 0 {
				marker[mid+x] = 1
			}
		}
	}

	removed := false
	for i, v := range marker {
		if v != 0 {
			grid[i] = 0
			removed = true
		}
	}
	return removed
}

func not(v uint8) uint8 {
	return v ^ 1
}
