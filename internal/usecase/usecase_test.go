package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/watermark"
	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

// fakeMedia records the calls the chain makes and writes a marker file for
// every produced output so the next step has something to read.
type fakeMedia struct {
	calls    []string
	duration float64
	starts   []float64
	ends     []float64
}

func (f *fakeMedia) record(name, out string) error {
	f.calls = append(f.calls, name)
	if out == "" {
		return nil
	}
	return os.WriteFile(out, []byte(name), 0o644)
}

func (f *fakeMedia) ProbeDuration(context.Context, string) (float64, error) {
	return f.duration, nil
}

func (f *fakeMedia) ProbeVideoSize(context.Context, string) (int, int, float64, error) {
	return 16, 16, 30, nil
}

func (f *fakeMedia) DetectSilence(context.Context, string, string, float64) ([]float64, []float64, error) {
	return f.starts, f.ends, nil
}

func (f *fakeMedia) Splice(ctx context.Context, in string, keep []types.Interval, out string) error {
	return f.record("splice", out)
}

func (f *fakeMedia) Trim(ctx context.Context, in string, start, length float64, out string) error {
	return f.record("trim", out)
}

func (f *fakeMedia) AdjustSpeed(ctx context.Context, in string, speed float64, out string) error {
	return f.record("speed", out)
}

func (f *fakeMedia) ResizeVertical(ctx context.Context, in, out string) error {
	return f.record("vertical", out)
}

func (f *fakeMedia) ResizeHorizontal(ctx context.Context, in, out string) error {
	return f.record("horizontal", out)
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, in, out string) error {
	return f.record("extract", out)
}

func (f *fakeMedia) BurnSubtitles(ctx context.Context, in, srtPath, out string) error {
	if _, err := os.Stat(srtPath); err != nil {
		return err
	}
	return f.record("burn", out)
}

func (f *fakeMedia) FilterAudio(ctx context.Context, in, chain, out string) error {
	f.calls = append(f.calls, "filter:"+chain)
	return os.WriteFile(out, []byte("filter"), 0o644)
}

func (f *fakeMedia) Delogo(ctx context.Context, in string, r watermark.Region, out string) error {
	return f.record("delogo", out)
}

func (f *fakeMedia) CropRescale(ctx context.Context, in string, cropW, cropH, x, y, outW, outH int, out string) error {
	return f.record("croprescale", out)
}

func (f *fakeMedia) ProcessFrames(ctx context.Context, in, out string, w, h int, fps float64, fn func([]byte) error) error {
	frame := make([]byte, w*h*3)
	if err := fn(frame); err != nil {
		return err
	}
	return f.record("frames", out)
}

func (f *fakeMedia) RemuxAudio(ctx context.Context, videoSrc, audioSrc, out string) error {
	return f.record("remux", out)
}

type fakeAI struct {
	intent  *types.AIIntent
	srt     string
	srtErr  error
	summary string
}

func (f fakeAI) ExtractIntent(context.Context, string) (*types.AIIntent, error) {
	if f.intent == nil {
		return nil, errors.New("no backend")
	}
	return f.intent, nil
}

func (f fakeAI) GenerateSubtitles(context.Context, string, string) (string, error) {
	return f.srt, f.srtErr
}

func (f fakeAI) Summarize(context.Context, string, string) (string, error) {
	return f.summary, nil
}

func (f fakeAI) GenerateVideo(ctx context.Context, prompt, model string, durationSeconds int, outPath string) (string, error) {
	if err := os.WriteFile(outPath, []byte("video"), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}

func writeInput(t *testing.T) (in, out string) {
	t.Helper()
	tmp := t.TempDir()
	in = filepath.Join(tmp, "in.mp4")
	if err := os.WriteFile(in, []byte("input"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return in, filepath.Join(tmp, "out.mp4")
}

func TestRun_ChainsOperationsInOrder(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	media := &fakeMedia{duration: 60}
	uc := New(Deps{Media: media, AI: fakeAI{}})

	res, err := uc.Run(context.Background(), Input{
		Instruction: "trim start 3 and end 5 seconds then make it 2x fast",
		InputPath:   in,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Path != out {
		t.Fatalf("path = %q, want %q", res.Path, out)
	}

	want := []string{"trim", "speed"}
	if len(media.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", media.calls, want)
	}
	for i := range want {
		if media.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", media.calls, want)
		}
	}

	// The first step wrote to an intermediate, not the final output.
	step0 := filepath.Join(filepath.Dir(out), "out_step0.mp4")
	if _, err := os.Stat(step0); err != nil {
		t.Fatalf("intermediate missing: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil || string(got) != "speed" {
		t.Fatalf("final output = %q err %v, want speed marker", got, err)
	}
}

func TestRun_SpeedAndCaptionsOrder(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	srt := "1\n00:00:01,000 --> 00:00:03,000\nhola\n"
	media := &fakeMedia{duration: 30}
	uc := New(Deps{Media: media, AI: fakeAI{srt: srt}})

	res, err := uc.Run(context.Background(), Input{
		Instruction: "make this 2x faster and add captions in Spanish",
		InputPath:   in,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Path != out {
		t.Fatalf("path = %q, want %q", res.Path, out)
	}

	// Captions burn in first, the speed change runs on the captioned file.
	want := []string{"burn", "speed"}
	if len(media.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", media.calls, want)
	}
	for i := range want {
		if media.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", media.calls, want)
		}
	}

	step0 := filepath.Join(filepath.Dir(out), "out_step0.mp4")
	if _, err := os.Stat(step0); err != nil {
		t.Fatalf("intermediate missing: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil || string(got) != "speed" {
		t.Fatalf("final output = %q err %v, want speed marker", got, err)
	}
}

func TestRun_IdentityCopy(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	uc := New(Deps{Media: &fakeMedia{}, AI: fakeAI{}})

	res, err := uc.Run(context.Background(), Input{
		Instruction: "do something unspecified with this",
		InputPath:   in,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := os.ReadFile(res.Path)
	if err != nil || string(got) != "input" {
		t.Fatalf("identity copy = %q err %v", got, err)
	}
}

func TestRun_SummarizeWritesText(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	uc := New(Deps{Media: &fakeMedia{}, AI: fakeAI{summary: "a short talk"}})

	res, err := uc.Run(context.Background(), Input{
		Instruction: "summarize this video",
		InputPath:   in,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasSuffix(res.Path, ".txt") {
		t.Fatalf("summary path = %q, want .txt", res.Path)
	}
	got, err := os.ReadFile(res.Path)
	if err != nil || string(got) != "a short talk" {
		t.Fatalf("summary = %q err %v", got, err)
	}
}

func TestRun_Generate(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "gen.mp4")
	uc := New(Deps{Media: &fakeMedia{}, AI: fakeAI{}})

	res, err := uc.Run(context.Background(), Input{
		Instruction: "a cat surfing a wave",
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Path != out {
		t.Fatalf("path = %q, want %q", res.Path, out)
	}
}

func TestRun_ExtractAudioRewritesExtension(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	uc := New(Deps{Media: &fakeMedia{duration: 10}, AI: fakeAI{}})

	res, err := uc.Run(context.Background(), Input{
		Instruction: "extract the audio",
		InputPath:   in,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasSuffix(res.Path, ".mp3") {
		t.Fatalf("path = %q, want .mp3", res.Path)
	}
}

func TestRun_NoiseGateUsesSubtitleTiming(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	srt := "1\n00:00:01,000 --> 00:00:03,000\nhello\n"
	media := &fakeMedia{duration: 10}
	uc := New(Deps{Media: media, AI: fakeAI{srt: srt}})

	_, err := uc.Run(context.Background(), Input{
		Instruction: "remove the noise",
		InputPath:   in,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(media.calls) != 1 {
		t.Fatalf("calls = %v, want one filter call", media.calls)
	}
	chain := media.calls[0]
	if !strings.Contains(chain, "afftdn") || !strings.Contains(chain, "between(t,1.000,3.000)") {
		t.Fatalf("chain = %q, want denoise plus subtitle gate", chain)
	}
}

func TestRun_NoiseGateFallsBackToSilenceDetection(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	media := &fakeMedia{duration: 10, starts: []float64{4}, ends: []float64{6}}
	uc := New(Deps{Media: media, AI: fakeAI{srtErr: errors.New("no backend")}})

	_, err := uc.Run(context.Background(), Input{
		Instruction: "remove the noise",
		InputPath:   in,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	chain := media.calls[len(media.calls)-1]
	if !strings.Contains(chain, "between(t,0.000,4.000)") || !strings.Contains(chain, "between(t,6.000,10.000)") {
		t.Fatalf("chain = %q, want silence-derived gate", chain)
	}
}

func TestRun_CaptionFailureAborts(t *testing.T) {
	t.Parallel()

	in, out := writeInput(t)
	uc := New(Deps{Media: &fakeMedia{}, AI: fakeAI{srtErr: errors.New("no backend")}})

	_, err := uc.Run(context.Background(), Input{
		Instruction: "add captions",
		InputPath:   in,
		OutputPath:  out,
	})
	if err == nil || !strings.Contains(err.Error(), "caption") {
		t.Fatalf("err = %v, want caption failure", err)
	}
}

func TestRun_WatermarkStrategies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		strategy string
		wantCall string
	}{
		{"fast uses delogo", "fast", "delogo"},
		{"crop rescales", "crop", "croprescale"},
		{"heal processes frames", "heal", "frames"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in, out := writeInput(t)
			media := &fakeMedia{duration: 10}
			ai := fakeAI{intent: &types.AIIntent{
				Operation: types.OpRemoveWatermark,
				Params:    types.AIParams{WatermarkStrategy: tt.strategy},
			}}
			uc := New(Deps{Media: media, AI: ai})

			_, err := uc.Run(context.Background(), Input{
				Instruction: "remove the watermark",
				InputPath:   in,
				OutputPath:  out,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			found := false
			for _, c := range media.calls {
				if c == tt.wantCall {
					found = true
				}
			}
			if !found {
				t.Fatalf("calls = %v, want %q", media.calls, tt.wantCall)
			}
		})
	}
}
