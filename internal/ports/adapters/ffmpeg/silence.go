package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

var (
	silenceStartRE = regexp.MustCompile(`silence_start: ([\d.]+)`)
	silenceEndRE   = regexp.MustCompile(`silence_end: ([\d.]+)`)
)

// DetectSilence runs the engine in analysis mode: the silencedetect filter
// against the null muxer, markers read from the diagnostic stream. The raw
// marker lists are returned as-is; an unmatched trailing start is the
// caller's signal that silence runs to EOF.
func (a *Adapter) DetectSilence(ctx context.Context, in, noiseFloor string, minDuration float64) ([]float64, []float64, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-hide_banner",
		"-i", in,
		"-af", fmt.Sprintf("silencedetect=noise=%s:d=%s", noiseFloor, fmtSeconds(minDuration)),
		"-f", "null", "-",
	)
	b, err := cmd.CombinedOutput()
	out := string(b)
	starts := parseMarkers(silenceStartRE, out)
	ends := parseMarkers(silenceEndRE, out)
	if err != nil && len(starts) == 0 && len(ends) == 0 {
		return nil, nil, fmt.Errorf("ffmpeg silencedetect: %w\n%s", err, out)
	}
	return starts, ends, nil
}

func parseMarkers(re *regexp.Regexp, out string) []float64 {
	var vals []float64
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// Splice cuts the keep-list intervals out of the source and concatenates
// them into one continuous output. Each interval is trimmed with its
// timestamps reset on both streams independently, then all pairs feed a
// single concat node, which keeps audio and video aligned across every
// spliced boundary.
func (a *Adapter) Splice(ctx context.Context, in string, keep []types.Interval, out string) error {
	if len(keep) == 0 {
		return fmt.Errorf("splice: empty keep list")
	}

	var graph strings.Builder
	for i, iv := range keep {
		fmt.Fprintf(&graph, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];",
			fmtSeconds(iv.Start), fmtSeconds(iv.End), i)
		fmt.Fprintf(&graph, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];",
			fmtSeconds(iv.Start), fmtSeconds(iv.End), i)
	}
	for i := range keep {
		fmt.Fprintf(&graph, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1[outv][outa]", len(keep))

	return a.run(ctx, "splice",
		"-y", "-nostdin",
		"-i", in,
		"-filter_complex", graph.String(),
		"-map", "[outv]", "-map", "[outa]",
		out,
	)
}
