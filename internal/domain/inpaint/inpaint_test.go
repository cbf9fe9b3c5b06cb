package inpaint

import (
	"testing"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/watermark"
)

func TestHealReconstructsFromSurroundings(t *testing.T) {
	t.Parallel()

	const w, h = 64, 64
	region := watermark.Region{X: 20, Y: 20, W: 24, H: 24}

	// Uniform gray frame with a white block stamped over the region.
	frame := make([]byte, w*h*3)
	for i := range frame {
		frame[i] = 100
	}
	for y := region.Y; y < region.Y+region.H; y++ {
		for x := region.X; x < region.X+region.W; x++ {
			i := (y*w + x) * 3
			frame[i], frame[i+1], frame[i+2] = 255, 255, 255
		}
	}

	NewHealer(w, h, region).Heal(frame)

	// The region center is rebuilt from the gray surroundings.
	ci := ((region.Y+region.H/2)*w + region.X + region.W/2) * 3
	if frame[ci] > 120 || frame[ci] < 90 {
		t.Fatalf("healed center = %d, want near 100", frame[ci])
	}
	// Pixels away from the region are untouched.
	if frame[0] != 100 {
		t.Fatalf("corner = %d, want 100", frame[0])
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	t.Parallel()

	k := gaussianKernel(21)
	var total float64
	for _, v := range k {
		total += v
	}
	if total < 0.999 || total > 1.001 {
		t.Fatalf("kernel sum = %v, want 1", total)
	}
	if k[len(k)/2] <= k[0] {
		t.Fatalf("kernel not peaked: center %v edge %v", k[len(k)/2], k[0])
	}
}
