package ports

import (
	"context"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/watermark"
	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

// MediaTool is the contract the transformation operations require from the
// external media-processing engine. All paths are local files; every call
// blocks until the subprocess exits.
type MediaTool interface {
	ProbeDuration(ctx context.Context, in string) (float64, error)
	ProbeVideoSize(ctx context.Context, in string) (w, h int, fps float64, err error)

	// DetectSilence returns raw silence_start/silence_end markers in
	// seconds. The lists may be unbalanced when silence runs to EOF;
	// silence.KeepList resolves that.
	DetectSilence(ctx context.Context, in, noiseFloor string, minDuration float64) (starts, ends []float64, err error)

	Splice(ctx context.Context, in string, keep []types.Interval, out string) error
	Trim(ctx context.Context, in string, start, length float64, out string) error
	AdjustSpeed(ctx context.Context, in string, speed float64, out string) error
	ResizeVertical(ctx context.Context, in, out string) error
	ResizeHorizontal(ctx context.Context, in, out string) error
	ExtractAudio(ctx context.Context, in, out string) error
	BurnSubtitles(ctx context.Context, in, srtPath, out string) error

	// FilterAudio applies an audio filter chain while stream-copying video.
	FilterAudio(ctx context.Context, in, chain, out string) error

	Delogo(ctx context.Context, in string, r watermark.Region, out string) error
	CropRescale(ctx context.Context, in string, cropW, cropH, x, y, outW, outH int, out string) error

	// ProcessFrames decodes in to raw RGB24 frames, passes each to fn for
	// in-place mutation, and re-encodes the result as a silent video.
	ProcessFrames(ctx context.Context, in, out string, w, h int, fps float64, fn func(frame []byte) error) error

	// RemuxAudio re-encodes video from videoSrc and maps the audio track
	// (if any) from audioSrc back in.
	RemuxAudio(ctx context.Context, videoSrc, audioSrc, out string) error
}

// AIService is the contract the pipeline requires from the generative
// backend.
type AIService interface {
	ExtractIntent(ctx context.Context, instruction string) (*types.AIIntent, error)
	GenerateSubtitles(ctx context.Context, mediaPath, targetLanguage string) (string, error)
	Summarize(ctx context.Context, mediaPath, instruction string) (string, error)
	GenerateVideo(ctx context.Context, prompt, model string, durationSeconds int, outPath string) (string, error)
}
