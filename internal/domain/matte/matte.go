// Package matte isolates the foreground subject of a frame by modeling the
// background from the frame's border pixels and keying matched pixels to
// solid chroma green. It is a color-model heuristic, not a segmentation
// network; it works best on reasonably uniform backgrounds.
package matte

import "math"

// Pixels within Threshold of the modeled background color (Euclidean RGB
// distance) are keyed out. Tunable.
var Threshold = 60.0

// Key is the replacement background, pure chroma green.
var Key = [3]byte{0, 255, 0}

// Model is the background color estimate for one video, sampled once from
// the first frame's border band.
type Model struct {
	mean [3]float64
}

// BuildModel samples a border band of the frame (top/bottom rows plus
// left/right columns) and averages it into a background color.
func BuildModel(frame []byte, w, h int) Model {
	band := w / 20
	if band < 2 {
		band = 2
	}
	var sum [3]float64
	var n float64

	add := func(x, y int) {
		i := (y*w + x) * 3
		sum[0] += float64(frame[i])
		sum[1] += float64(frame[i+1])
		sum[2] += float64(frame[i+2])
		n++
	}

	for y := 0; y < h; y++ {
		edge := y < band || y >= h-band
		for x := 0; x < w; x++ {
			if edge || x < band || x >= w-band {
				add(x, y)
			}
		}
	}

	m := Model{}
	if n > 0 {
		for c := 0; c < 3; c++ {
			m.mean[c] = sum[c] / n
		}
	}
	return m
}

// Apply replaces background-matched pixels with the key color in place.
func (m Model) Apply(frame []byte, w, h int) {
	for p := 0; p < w*h; p++ {
		i := p * 3
		d0 := float64(frame[i]) - m.mean[0]
		d1 := float64(frame[i+1]) - m.mean[1]
		d2 := float64(frame[i+2]) - m.mean[2]
		if math.Sqrt(d0*d0+d1*d1+d2*d2) <= Threshold {
			frame[i] = Key[0]
			frame[i+1] = Key[1]
			frame[i+2] = Key[2]
		}
	}
}
