// Package watermark computes the pixel region a watermark occupies from
// coarse location/type tokens, and picks the removal strategy that fits the
// placement.
package watermark

import "strings"

// Region is a watermark rectangle in pixel space.
type Region struct {
	X int
	Y int
	W int
	H int
}

// Strategy tokens.
const (
	StrategyFast = "fast"
	StrategyCrop = "crop"
	StrategyHeal = "heal"
)

// Default tokens when the instruction gives nothing to go on.
const (
	DefaultLocation = "bottom_right"
	DefaultType     = "small_logo"
)

// Crop margins are empirically chosen for typical mobile watermark bands;
// tune per aspect ratio if needed.
var (
	CropMarginW = 0.12
	CropMarginH = 0.10
)

// Resolve computes the watermark rectangle for a frame of the given size.
// Explicit width/height percentages win over the type/location heuristics.
// The result is clamped to stay inside the frame with a 1-pixel margin,
// which the delogo filter requires.
func Resolve(location, wmType string, widthPct, heightPct, frameW, frameH int) Region {
	if location == "" {
		location = DefaultLocation
	}
	if wmType == "" {
		wmType = DefaultType
	}
	vertical := frameH > frameW

	var w int
	switch {
	case widthPct > 0:
		w = frameW * widthPct / 100
	case strings.Contains(location, "full_width"):
		w = frameW
	case strings.Contains(wmType, "banner"):
		w = frameW / 2
	case vertical:
		w = frameW * 25 / 100
	default:
		w = frameW * 15 / 100
	}

	var h int
	switch {
	case heightPct > 0:
		h = frameH * heightPct / 100
	case strings.Contains(wmType, "banner") || strings.Contains(location, "full_width"):
		h = frameH * 12 / 100
	case vertical:
		h = frameH * 10 / 100
	default:
		h = frameH * 8 / 100
	}

	x, y := 0, 0
	switch {
	case strings.Contains(location, "top"):
		y = 0
	case strings.Contains(location, "bottom"):
		y = frameH - h
	case strings.Contains(location, "middle"), strings.Contains(location, "center"), strings.Contains(location, "full_width"):
		y = frameH/2 - h/2
	}
	switch {
	case strings.Contains(location, "left"):
		x = 0
	case strings.Contains(location, "right"):
		x = frameW - w
	case strings.Contains(location, "center"):
		x = frameW/2 - w/2
	case strings.Contains(location, "full_width"):
		x = 0
	}

	return clamp(Region{X: x, Y: y, W: w, H: h}, frameW, frameH)
}

func clamp(r Region, frameW, frameH int) Region {
	r.X = bound(r.X, 1, frameW-r.W-1)
	r.Y = bound(r.Y, 1, frameH-r.H-1)
	r.W = bound(r.W, 1, frameW-r.X-1)
	r.H = bound(r.H, 1, frameH-r.Y-1)
	return r
}

func bound(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CenterLike reports whether a location cannot be cropped away without
// visibly damaging the frame.
func CenterLike(location string) bool {
	for _, k := range []string{"center", "middle", "full_width"} {
		if strings.Contains(location, k) {
			return true
		}
	}
	return false
}

// ChooseStrategy validates the requested strategy against the placement.
// Crop only works on edges and corners; everything else falls back to heal,
// which is also the default.
func ChooseStrategy(requested, location string) string {
	switch requested {
	case StrategyFast:
		return StrategyFast
	case StrategyCrop:
		if !CenterLike(location) {
			return StrategyCrop
		}
		return StrategyHeal
	default:
		return StrategyHeal
	}
}

// CropWindow computes the retained window when cropping a watermark margin
// off the frame's edge. Returns the crop size and offset; the caller
// rescales back to the original dimensions.
func CropWindow(location string, frameW, frameH int) (cw, ch, x, y int) {
	cw, ch = frameW, frameH
	marginW := int(float64(frameW) * CropMarginW)
	marginH := int(float64(frameH) * CropMarginH)

	if strings.Contains(location, "bottom") {
		ch = frameH - marginH
		y = 0
	} else if strings.Contains(location, "top") {
		ch = frameH - marginH
		y = marginH
	}
	if strings.Contains(location, "right") {
		cw = frameW - marginW
		x = 0
	} else if strings.Contains(location, "left") {
		cw = frameW - marginW
		x = marginW
	}
	return cw, ch, x, y
}
