// Package silence derives the speech intervals to keep when splicing
// detected silence out of a media timeline.
package silence

import (
	"fmt"
	"strings"

	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

// KeepList turns paired silence markers into the ordered speech intervals
// between them. A trailing start with no matching end means the silence runs
// to the end of the file, so the total duration is synthesized as its end.
// The result is sorted, non-overlapping, and never extends past total.
func KeepList(starts, ends []float64, total float64) []types.Interval {
	if len(starts) > len(ends) {
		if total > 0 {
			ends = append(append([]float64(nil), ends...), total)
		} else {
			starts = starts[:len(ends)]
		}
	}

	var keep []types.Interval
	cursor := 0.0
	n := len(starts)
	if len(ends) < n {
		n = len(ends)
	}
	for i := 0; i < n; i++ {
		if starts[i] > cursor {
			keep = append(keep, types.Interval{Start: cursor, End: starts[i]})
		}
		cursor = ends[i]
	}
	if cursor < total {
		keep = append(keep, types.Interval{Start: cursor, End: total})
	}
	return keep
}

// GateExpr renders speech intervals as a frame-evaluated boolean expression
// for ffmpeg's volume filter: audio passes inside any interval and is muted
// outside all of them.
func GateExpr(intervals []types.Interval) string {
	if len(intervals) == 0 {
		return ""
	}
	conds := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		conds = append(conds, fmt.Sprintf("between(t,%.3f,%.3f)", iv.Start, iv.End))
	}
	return "if(" + strings.Join(conds, "+") + ",1,0)"
}
