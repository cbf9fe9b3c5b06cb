// Package ffmpeg adapts the external ffmpeg/ffprobe binaries to the
// MediaTool port. Transforms are expressed as filter graphs on a single
// subprocess invocation; diagnostics (duration, silence markers) are parsed
// from the tools' output.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) run(ctx context.Context, label string, args ...string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", label, err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func (a *Adapter) ProbeVideoSize(ctx context.Context, in string) (int, int, float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=p=0",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe video size: %w\n%s", err, string(b))
	}
	parts := strings.Split(strings.TrimSpace(string(b)), ",")
	if len(parts) < 3 {
		return 0, 0, 0, fmt.Errorf("ffprobe video size: unexpected output %q", string(b))
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parse width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parse height %q: %w", parts[1], err)
	}
	fps, err := parseRate(parts[2])
	if err != nil {
		return 0, 0, 0, err
	}
	return w, h, fps, nil
}

func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("parse frame rate %q", s)
		}
		return n / d, nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	return r, nil
}

func (a *Adapter) Trim(ctx context.Context, in string, start, length float64, out string) error {
	return a.run(ctx, "trim",
		"-y", "-nostdin",
		"-ss", fmtSeconds(start),
		"-i", in,
		"-t", fmtSeconds(length),
		"-c", "copy",
		out,
	)
}

func (a *Adapter) AdjustSpeed(ctx context.Context, in string, speed float64, out string) error {
	// atempo only accepts 0.5..2.0 in one pass.
	if speed < 0.5 {
		speed = 0.5
	}
	if speed > 2.0 {
		speed = 2.0
	}
	graph := fmt.Sprintf("[0:v]setpts=PTS/%s[v];[0:a]atempo=%s[a]", fmtSeconds(speed), fmtSeconds(speed))
	return a.run(ctx, "adjust speed",
		"-y", "-nostdin",
		"-i", in,
		"-filter_complex", graph,
		"-map", "[v]", "-map", "[a]",
		out,
	)
}

func (a *Adapter) ResizeVertical(ctx context.Context, in, out string) error {
	return a.run(ctx, "resize vertical",
		"-y", "-nostdin",
		"-i", in,
		"-vf", "crop=ih*(9/16):ih",
		"-c:a", "copy",
		out,
	)
}

func (a *Adapter) ResizeHorizontal(ctx context.Context, in, out string) error {
	return a.run(ctx, "resize horizontal",
		"-y", "-nostdin",
		"-i", in,
		"-vf", "crop=iw:iw*(9/16)",
		"-c:a", "copy",
		out,
	)
}

func (a *Adapter) ExtractAudio(ctx context.Context, in, out string) error {
	return a.run(ctx, "extract audio",
		"-y", "-nostdin",
		"-i", in,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		out,
	)
}

// subtitleStyle keeps burned-in captions readable on any footage.
const subtitleStyle = "FontSize=18," +
	"PrimaryColour=&HFFFFFF," +
	"OutlineColour=&H000000," +
	"BorderStyle=1," +
	"Outline=2," +
	"Shadow=1," +
	"Alignment=2," +
	"MarginV=20"

func (a *Adapter) BurnSubtitles(ctx context.Context, in, srtPath, out string) error {
	vf := fmt.Sprintf("subtitles='%s':force_style='%s'", escapeFilterPath(srtPath), subtitleStyle)
	return a.run(ctx, "burn subtitles",
		"-y", "-nostdin",
		"-i", in,
		"-vf", vf,
		"-c:a", "copy",
		out,
	)
}

func (a *Adapter) FilterAudio(ctx context.Context, in, chain, out string) error {
	return a.run(ctx, "filter audio",
		"-y", "-nostdin",
		"-i", in,
		"-af", chain,
		"-vcodec", "copy",
		out,
	)
}

func fmtSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeFilterPath makes a filesystem path safe inside a filter expression.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
