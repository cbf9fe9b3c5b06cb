// Package subtitles repairs loosely formatted SRT text into strict timed
// captions and extracts speech timing from it. Generative backends are good
// at transcription but sloppy about format, so repair is best-effort and
// purely syntactic: malformed blocks are dropped, never raised.
package subtitles

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

const arrow = "-->"

var blockSplitRE = regexp.MustCompile(`\n\s*\n`)

// Repair normalizes raw subtitle text into canonical SRT: sequential indices
// starting at 1, HH:MM:SS,mmm timestamps, original caption lines preserved.
// Blocks without a timestamp arrow line are discarded. The output always ends
// with a trailing newline.
func Repair(raw string) string {
	raw = strings.TrimSpace(raw)
	var fixed []string
	index := 1

	for _, block := range blockSplitRE.Split(raw, -1) {
		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if t := strings.TrimSpace(l); t != "" {
				lines = append(lines, t)
			}
		}
		if len(lines) == 0 {
			continue
		}

		tsIdx := -1
		for i, l := range lines {
			if strings.Contains(l, arrow) {
				tsIdx = i
				break
			}
		}
		if tsIdx == -1 {
			continue
		}
		parts := strings.SplitN(lines[tsIdx], arrow, 2)
		if len(parts) != 2 {
			continue
		}

		// A fresh index is assigned regardless of what the source claimed.
		out := []string{strconv.Itoa(index)}
		out = append(out, NormalizeTimestamp(parts[0])+" "+arrow+" "+NormalizeTimestamp(parts[1]))
		out = append(out, lines[tsIdx+1:]...)
		fixed = append(fixed, strings.Join(out, "\n"))
		index++
	}

	return strings.Join(fixed, "\n\n") + "\n"
}

// NormalizeTimestamp coerces a single timestamp to HH:MM:SS,mmm form. The
// repair is field-width and separator only: seconds >= 60 are left as-is
// rather than semantically corrected.
func NormalizeTimestamp(ts string) string {
	ts = strings.ReplaceAll(strings.TrimSpace(ts), ".", ",")
	switch strings.Count(ts, ":") {
	case 0:
		ts = "00:00:" + ts
	case 1:
		ts = "00:" + ts
	}

	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return ts
	}
	h := pad2(parts[0])
	m := pad2(parts[1])
	sms := parts[2]

	if !strings.Contains(sms, ",") {
		// No fraction separator: long runs are read as SSmmm, short as SS.
		if len(sms) > 2 {
			s := sms[:2]
			ms := sms[2:]
			sms = s + "," + padMillis(ms)
		} else {
			sms = pad2(sms) + ",000"
		}
	} else {
		sp := strings.SplitN(sms, ",", 2)
		sms = pad2(sp[0]) + "," + padMillis(sp[1])
	}
	return h + ":" + m + ":" + sms
}

var timestampLineRE = regexp.MustCompile(`(\d{2}:\d{2}:\d{2},\d{3}) --> (\d{2}:\d{2}:\d{2},\d{3})`)

// Intervals extracts the (start, end) timing of every well-formed caption
// block as seconds. Used as the speech map for audio gating.
func Intervals(srt string) []types.Interval {
	var out []types.Interval
	for _, line := range strings.Split(srt, "\n") {
		m := timestampLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, types.Interval{Start: toSeconds(m[1]), End: toSeconds(m[2])})
	}
	return out
}

func toSeconds(ts string) float64 {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0
	}
	sp := strings.SplitN(parts[2], ",", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(sp[0])
	ms := 0
	if len(sp) == 2 {
		ms, _ = strconv.Atoi(sp[1])
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000
}

func pad2(s string) string {
	for len(s) < 2 {
		s = "0" + s
	}
	return s
}

func padMillis(ms string) string {
	for len(ms) < 3 {
		ms += "0"
	}
	return ms[:3]
}

// StripFences removes markdown code fences that chat models like to wrap
// around raw SRT output.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```srt", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
