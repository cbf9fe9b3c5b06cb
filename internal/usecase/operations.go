package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/inpaint"
	"github.com/dhairyabh/Promtx-Studio/internal/domain/matte"
	"github.com/dhairyabh/Promtx-Studio/internal/domain/silence"
	"github.com/dhairyabh/Promtx-Studio/internal/domain/subtitles"
	"github.com/dhairyabh/Promtx-Studio/internal/domain/watermark"
	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

// Silence detection thresholds. The splice pass targets clear pauses; the
// noise gate's fallback is more sensitive since it only mutes audio.
const (
	spliceNoiseFloor = "-30dB"
	spliceMinSilence = 0.5
	gateNoiseFloor   = "-35dB"
	gateMinSilence   = 0.2
)

// baseVocalChain is the fixed speech-enhancement chain: rumble highpass,
// heavy spectral denoise, non-linear means smoothing, gate, speech
// normalization, lowpass.
const baseVocalChain = "highpass=f=100," +
	"afftdn=nr=40:nf=-25," +
	"anlmdn=s=7," +
	"agate=threshold=-30dB:ratio=20:attack=2:release=100," +
	"speechnorm=e=10:r=0.0001," +
	"lowpass=f=10000"

// buildOps expands a resolved intent into the ordered operation chain. The
// rules fire independently, so one instruction can produce several steps.
func (u Usecase) buildOps(it types.Intent) []operation {
	var ops []operation
	add := func(name string, run func(ctx context.Context, in, out string) (string, error)) {
		ops = append(ops, operation{name: name, run: run})
	}

	if it.StartTrim > 0 || it.EndTrim > 0 {
		start, end := it.StartTrim, it.EndTrim
		add("trim", func(ctx context.Context, in, out string) (string, error) {
			return u.trim(ctx, in, out, start, end)
		})
	}
	if it.RemoveSilence {
		add("remove silence", u.removeSilence)
	}
	if it.RemoveNoise {
		add("remove noise", u.removeNoise)
	}
	if it.RemoveBackground {
		add("remove background", u.removeBackground)
	}
	if it.RemoveWatermark {
		spec := it.Watermark
		add("remove watermark", func(ctx context.Context, in, out string) (string, error) {
			return u.removeWatermark(ctx, in, out, spec)
		})
	}
	if it.AddCaptions {
		lang := it.TargetLanguage
		add("add captions", func(ctx context.Context, in, out string) (string, error) {
			return u.addCaptions(ctx, in, out, lang)
		})
	}
	if it.ResizeVertical {
		add("resize vertical", func(ctx context.Context, in, out string) (string, error) {
			return out, u.d.Media.ResizeVertical(ctx, in, out)
		})
	} else if it.ResizeHorizontal {
		add("resize horizontal", func(ctx context.Context, in, out string) (string, error) {
			return out, u.d.Media.ResizeHorizontal(ctx, in, out)
		})
	}
	if it.Speed != 0 && it.Speed != 1.0 {
		speed := it.Speed
		add("adjust speed", func(ctx context.Context, in, out string) (string, error) {
			return out, u.d.Media.AdjustSpeed(ctx, in, speed, out)
		})
	}
	if it.ExtractAudio {
		add("extract audio", u.extractAudio)
	}
	return ops
}

func (u Usecase) trim(ctx context.Context, in, out string, startTrim, endTrim int) (string, error) {
	total, err := u.d.Media.ProbeDuration(ctx, in)
	if err != nil {
		return "", err
	}
	length := total - float64(startTrim) - float64(endTrim)
	if length <= 0 {
		// Trimming everything away is treated as "leave it alone".
		return out, copyFile(in, out)
	}
	return out, u.d.Media.Trim(ctx, in, float64(startTrim), length, out)
}

func (u Usecase) removeSilence(ctx context.Context, in, out string) (string, error) {
	starts, ends, err := u.d.Media.DetectSilence(ctx, in, spliceNoiseFloor, spliceMinSilence)
	if err != nil {
		return "", err
	}
	total, err := u.d.Media.ProbeDuration(ctx, in)
	if err != nil {
		return "", err
	}
	keep := silence.KeepList(starts, ends, total)
	if len(keep) == 0 {
		return out, copyFile(in, out)
	}
	return out, u.d.Media.Splice(ctx, in, keep, out)
}

func (u Usecase) removeNoise(ctx context.Context, in, out string) (string, error) {
	intervals := u.speechIntervals(ctx, in)

	chain := baseVocalChain
	if gate := silence.GateExpr(intervals); gate != "" {
		chain += ",volume='" + gate + "':eval=frame"
	}
	return out, u.d.Media.FilterAudio(ctx, in, chain, out)
}

// speechIntervals prefers AI subtitle timing for the voice gate and falls
// back to local silence detection when the backend is unavailable.
func (u Usecase) speechIntervals(ctx context.Context, in string) []types.Interval {
	srt, err := u.d.AI.GenerateSubtitles(ctx, in, "")
	if err == nil {
		if intervals := subtitles.Intervals(srt); len(intervals) > 0 {
			return intervals
		}
	} else {
		u.d.Logf("AI gating unavailable (%v), using local silence detection", err)
	}

	starts, ends, err := u.d.Media.DetectSilence(ctx, in, gateNoiseFloor, gateMinSilence)
	if err != nil {
		return nil
	}
	total, err := u.d.Media.ProbeDuration(ctx, in)
	if err != nil {
		return nil
	}
	return silence.KeepList(starts, ends, total)
}

func (u Usecase) addCaptions(ctx context.Context, in, out, targetLanguage string) (string, error) {
	srt, err := u.d.AI.GenerateSubtitles(ctx, in, targetLanguage)
	if err != nil {
		return "", fmt.Errorf("caption generation failed: %w", err)
	}
	if strings.TrimSpace(srt) == "" {
		return "", errors.New("caption generation produced no usable blocks")
	}

	// A short, space-free sidecar name keeps the subtitles filter happy.
	srtPath := filepath.Join(filepath.Dir(out), fmt.Sprintf("captions_%s.srt", uuid.NewString()[:8]))
	if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(srtPath); err != nil {
			u.d.Logf("could not remove temp srt: %v", err)
		}
	}()

	return out, u.d.Media.BurnSubtitles(ctx, in, srtPath, out)
}

func (u Usecase) extractAudio(ctx context.Context, in, out string) (string, error) {
	audioOut := strings.TrimSuffix(out, filepath.Ext(out)) + ".mp3"
	return audioOut, u.d.Media.ExtractAudio(ctx, in, audioOut)
}

func (u Usecase) removeBackground(ctx context.Context, in, out string) (string, error) {
	w, h, fps, err := u.d.Media.ProbeVideoSize(ctx, in)
	if err != nil {
		return "", err
	}

	var model matte.Model
	modeled := false
	tmp := tempSibling(out, "matte")
	err = u.d.Media.ProcessFrames(ctx, in, tmp, w, h, fps, func(frame []byte) error {
		if !modeled {
			model = matte.BuildModel(frame, w, h)
			modeled = true
		}
		model.Apply(frame, w, h)
		return nil
	})
	if err != nil {
		return "", err
	}
	return u.remuxOrKeep(ctx, tmp, in, out)
}

func (u Usecase) removeWatermark(ctx context.Context, in, out string, spec types.WatermarkSpec) (string, error) {
	w, h, fps, err := u.d.Media.ProbeVideoSize(ctx, in)
	if err != nil {
		return "", err
	}
	region := watermark.Resolve(spec.Location, spec.Type, spec.WidthPct, spec.HeightPct, w, h)

	switch watermark.ChooseStrategy(spec.Strategy, spec.Location) {
	case watermark.StrategyFast:
		u.d.Logf("watermark: delogo over %+v", region)
		return out, u.d.Media.Delogo(ctx, in, region, out)

	case watermark.StrategyCrop:
		cw, ch, x, y := watermark.CropWindow(spec.Location, w, h)
		u.d.Logf("watermark: cropping %dx%d at %d,%d and rescaling", cw, ch, x, y)
		return out, u.d.Media.CropRescale(ctx, in, cw, ch, x, y, w, h, out)

	default:
		u.d.Logf("watermark: healing %+v frame by frame", region)
		healer := inpaint.NewHealer(w, h, region)
		tmp := tempSibling(out, "heal")
		err := u.d.Media.ProcessFrames(ctx, in, tmp, w, h, fps, func(frame []byte) error {
			healer.Heal(frame)
			return nil
		})
		if err != nil {
			return "", err
		}
		return u.remuxOrKeep(ctx, tmp, in, out)
	}
}

// remuxOrKeep restores the source audio onto a silent processed stream. A
// failed remux keeps the silent intermediate as the result instead of
// failing the whole operation.
func (u Usecase) remuxOrKeep(ctx context.Context, processed, audioSrc, out string) (string, error) {
	if err := u.d.Media.RemuxAudio(ctx, processed, audioSrc, out); err != nil {
		u.d.Logf("audio remux failed (%v), keeping silent result", err)
		if err := os.Rename(processed, out); err != nil {
			return "", err
		}
		return out, nil
	}
	if err := os.Remove(processed); err != nil {
		u.d.Logf("could not remove intermediate %s: %v", processed, err)
	}
	return out, nil
}

func tempSibling(out, tag string) string {
	return filepath.Join(filepath.Dir(out), fmt.Sprintf("%s_%s%s", tag, uuid.NewString()[:8], filepath.Ext(out)))
}
