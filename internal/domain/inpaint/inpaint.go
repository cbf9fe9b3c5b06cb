// Package inpaint reconstructs watermark-covered pixels from the
// surrounding frame content. Frames are raw RGB24 buffers as produced by a
// rawvideo decode pipe. The healed patch is alpha-blended through a
// Gaussian-feathered mask so it melts into the untouched surroundings
// instead of leaving a hard rectangle.
package inpaint

import (
	"math"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/watermark"
)

// FeatherKernel is the width of the Gaussian used to soften the mask edge.
// Empirical; larger values trade sharpness at the boundary for smoothness.
var FeatherKernel = 21

const smoothingPasses = 2

// Healer holds the precomputed feathered mask for one region so per-frame
// work is only interpolation and blending.
type Healer struct {
	w, h   int
	region watermark.Region
	alpha  []float64
	patch  []float64
}

func NewHealer(frameW, frameH int, r watermark.Region) *Healer {
	h := &Healer{
		w:      frameW,
		h:      frameH,
		region: r,
		patch:  make([]float64, r.W*r.H*3),
	}
	h.alpha = featheredMask(frameW, frameH, r, FeatherKernel)
	return h
}

// Heal reconstructs the region in place on one RGB24 frame.
func (hl *Healer) Heal(frame []byte) {
	r := hl.region
	w := hl.w

	// Directional fill: every region pixel is the average of a horizontal
	// lerp between the left/right border pixels and a vertical lerp between
	// the top/bottom border pixels. Region clamping guarantees a 1px border
	// exists on every side.
	for c := 0; c < 3; c++ {
		for ry := 0; ry < r.H; ry++ {
			y := r.Y + ry
			left := float64(frame[(y*w+r.X-1)*3+c])
			right := float64(frame[(y*w+r.X+r.W)*3+c])
			for rx := 0; rx < r.W; rx++ {
				t := float64(rx+1) / float64(r.W+1)
				hl.patch[(ry*r.W+rx)*3+c] = left + (right-left)*t
			}
		}
		for rx := 0; rx < r.W; rx++ {
			x := r.X + rx
			top := float64(frame[((r.Y-1)*w+x)*3+c])
			bottom := float64(frame[((r.Y+r.H)*w+x)*3+c])
			for ry := 0; ry < r.H; ry++ {
				t := float64(ry+1) / float64(r.H+1)
				v := top + (bottom-top)*t
				i := (ry*r.W + rx) * 3 + c
				hl.patch[i] = (hl.patch[i] + v) / 2
			}
		}
	}

	for i := 0; i < smoothingPasses; i++ {
		boxSmooth(hl.patch, r.W, r.H)
	}

	for ry := 0; ry < r.H; ry++ {
		y := r.Y + ry
		for rx := 0; rx < r.W; rx++ {
			x := r.X + rx
			a := hl.alpha[y*w+x]
			if a <= 0 {
				continue
			}
			for c := 0; c < 3; c++ {
				fi := (y*w+x)*3 + c
				healed := hl.patch[(ry*r.W+rx)*3+c]
				frame[fi] = clampByte(healed*a + float64(frame[fi])*(1-a))
			}
		}
	}
}

// boxSmooth runs one 3x3 box filter over the patch, edges clamped.
func boxSmooth(patch []float64, w, h int) {
	tmp := make([]float64, len(patch))
	copy(tmp, patch)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				var sum float64
				var n float64
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						yy, xx := y+dy, x+dx
						if yy < 0 || yy >= h || xx < 0 || xx >= w {
							continue
						}
						sum += tmp[(yy*w+xx)*3+c]
						n++
					}
				}
				patch[(y*w+x)*3+c] = sum / n
			}
		}
	}
}

// featheredMask builds a per-pixel alpha plane: 1 inside the region, 0 far
// outside, Gaussian-blurred across the boundary.
func featheredMask(w, h int, r watermark.Region, kernel int) []float64 {
	mask := make([]float64, w*h)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			mask[y*w+x] = 1
		}
	}

	k := gaussianKernel(kernel)
	half := len(k) / 2

	// Separable blur; only the band around the region changes, but the
	// mask is computed once per video so a full pass is fine.
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for i, kv := range k {
				xx := x + i - half
				if xx < 0 {
					xx = 0
				} else if xx >= w {
					xx = w - 1
				}
				sum += mask[y*w+xx] * kv
			}
			tmp[y*w+x] = sum
		}
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var sum float64
			for i, kv := range k {
				yy := y + i - half
				if yy < 0 {
					yy = 0
				} else if yy >= h {
					yy = h - 1
				}
				sum += tmp[yy*w+x] * kv
			}
			mask[y*w+x] = sum
		}
	}
	return mask
}

func gaussianKernel(size int) []float64 {
	if size%2 == 0 {
		size++
	}
	if size < 3 {
		size = 3
	}
	sigma := float64(size) / 6.0
	half := size / 2
	k := make([]float64, size)
	var total float64
	for i := range k {
		d := float64(i-half) / sigma
		k[i] = math.Exp(-d * d / 2)
		total += k[i]
	}
	for i := range k {
		k[i] /= total
	}
	return k
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
