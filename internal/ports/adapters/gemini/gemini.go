// Package gemini adapts the google.golang.org/genai client to the
// AIService port: intent extraction, subtitle generation, summarization,
// and Veo video generation. Failures on the AI boundary are returned, never
// panicked, so callers can fall back to deterministic paths.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/subtitles"
	"github.com/dhairyabh/Promtx-Studio/internal/quota"
	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultVideoModel = "veo-3.1-generate-preview"

	uploadPollInterval = 2 * time.Second

	subtitleAttempts = 5
	summaryAttempts  = 3
	initialBackoff   = 2 * time.Second
)

// ErrMissingAPIKey marks the configuration-error branch of the taxonomy:
// AI-dependent paths fail with it while deterministic editing keeps working.
var ErrMissingAPIKey = errors.New("gemini: API key is missing")

type Config struct {
	APIKey     string
	TextModel  string
	VideoModel string
	Ledger     *quota.Ledger
	Logf       func(format string, args ...any)
}

type Adapter struct {
	client     *genai.Client
	textModel  string
	videoModel string
	ledger     *quota.Ledger
	limiter    *rate.Limiter
	logf       func(format string, args ...any)
}

// New builds the adapter. An empty API key is not an error here: the
// adapter is still constructed and every call reports ErrMissingAPIKey, so
// the purely deterministic parts of the pipeline keep working. A nil
// Ledger is tolerated the same way: only GenerateVideo needs one, and it
// reports ErrMissingLedger.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	a := &Adapter{
		textModel:  cfg.TextModel,
		videoModel: cfg.VideoModel,
		ledger:     cfg.Ledger,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		logf:       cfg.Logf,
	}
	if a.textModel == "" {
		a.textModel = DefaultTextModel
	}
	if a.videoModel == "" {
		a.videoModel = DefaultVideoModel
	}
	if a.logf == nil {
		a.logf = func(string, ...any) {}
	}
	if cfg.APIKey == "" {
		return a, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	a.client = client
	return a, nil
}

// transient reports errors expected to resolve themselves on retry.
func transient(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, sig := range []string{"429", "503", "UNAVAILABLE", "RESOURCE_EXHAUSTED"} {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}

func rateLimited(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "RESOURCE_EXHAUSTED")
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// uploadAndWait pushes a local media file to the backend's file service and
// polls until processing settles.
func (a *Adapter) uploadAndWait(ctx context.Context, mediaPath string) (*genai.File, error) {
	f, err := a.client.Files.UploadFromPath(ctx, mediaPath, nil)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", mediaPath, err)
	}
	for f.State == genai.FileStateProcessing {
		if err := sleep(ctx, uploadPollInterval); err != nil {
			return nil, err
		}
		if f, err = a.client.Files.Get(ctx, f.Name, nil); err != nil {
			return nil, fmt.Errorf("poll upload %s: %w", mediaPath, err)
		}
	}
	if f.State == genai.FileStateFailed {
		return nil, fmt.Errorf("backend processing failed for %s", mediaPath)
	}
	return f, nil
}

func (a *Adapter) deleteFile(ctx context.Context, f *genai.File) {
	if _, err := a.client.Files.Delete(ctx, f.Name, nil); err != nil {
		a.logf("could not delete uploaded file %s: %v", f.Name, err)
	}
}

func (a *Adapter) generateWithMedia(ctx context.Context, f *genai.File, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromURI(f.URI, f.MIMEType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := a.client.Models.GenerateContent(ctx, a.textModel, contents, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GenerateSubtitles uploads the media and asks for strict SRT captions,
// either preserving the spoken language or translating everything to
// targetLanguage. Transient backend failures retry with exponential backoff;
// the raw response is fence-stripped and passed through subtitle repair.
func (a *Adapter) GenerateSubtitles(ctx context.Context, mediaPath, targetLanguage string) (string, error) {
	if a.client == nil {
		return "", ErrMissingAPIKey
	}

	langRule := "Transcribe in the original spoken language."
	if targetLanguage != "" {
		langRule = fmt.Sprintf(
			"Translate everything to %s. Even if the original language differs, the output must be entirely in %s.",
			targetLanguage, targetLanguage,
		)
	}
	prompt := "Generate an SRT subtitle file for this media.\n" +
		"Instruction: " + langRule + "\n" +
		"Rules:\n" +
		"- Output only the raw SRT text, no markdown and no notes.\n" +
		"- Timestamp format is strictly HH:MM:SS,mmm (e.g. 00:00:05,123 --> 00:00:10,500).\n" +
		"- Start each caption at the exact millisecond speech begins and end when it ends.\n" +
		"- Break segments at meaningful phrase boundaries.\n"

	delay := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= subtitleAttempts; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}
		raw, err := a.captionAttempt(ctx, mediaPath, prompt)
		if err == nil {
			return subtitles.Repair(subtitles.StripFences(raw)), nil
		}
		lastErr = err
		if !transient(err) || attempt == subtitleAttempts {
			break
		}
		a.logf("transient subtitle error (%v), retrying in %s", err, delay)
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
	return "", fmt.Errorf("generate subtitles: %w", lastErr)
}

func (a *Adapter) captionAttempt(ctx context.Context, mediaPath, prompt string) (string, error) {
	f, err := a.uploadAndWait(ctx, mediaPath)
	if err != nil {
		return "", err
	}
	defer a.deleteFile(ctx, f)
	return a.generateWithMedia(ctx, f, prompt)
}

// Summarize uploads the media and asks for a single descriptive paragraph
// in the same language as the user's instruction.
func (a *Adapter) Summarize(ctx context.Context, mediaPath, instruction string) (string, error) {
	if a.client == nil {
		return "", ErrMissingAPIKey
	}

	prompt := "Analyze this video or audio and provide a comprehensive, descriptive paragraph summary.\n" +
		"User instruction: " + instruction + "\n" +
		"Detect the language of the user instruction above and write the entire summary in that same language.\n" +
		"Respond with the paragraph only: no headings, titles, or bullet points.\n"

	delay := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= summaryAttempts; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}
		text, err := a.captionAttempt(ctx, mediaPath, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !transient(err) || attempt == summaryAttempts {
			break
		}
		a.logf("transient summary error (%v), retrying in %s", err, delay)
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
	return "", fmt.Errorf("summarize: %w", lastErr)
}

const intentPrompt = `You are a video-editor intent extractor. Convert the natural-language instruction into structured JSON.

Available operations:
- "generate_video": create a video from text (no input file).
- "summarize": summarize the video.
- "trim": cut time from start or end.
- "remove_silence": remove silent parts.
- "remove_noise": clean audio / remove background noise.
- "add_captions": add subtitles.
- "resize_vertical": 9:16 aspect ratio (Shorts/Reels).
- "resize_horizontal": 16:9 aspect ratio.
- "adjust_speed": change playback speed.
- "extract_audio": save as MP3.
- "remove_background": remove the visual background.
- "remove_watermark": remove a logo or watermark.

Parameters:
- "start_trim" (int, seconds from start, default 0)
- "end_trim" (int, seconds from end, default 0)
- "duration" (int, seconds for new video generation, default 8)
- "target_language" (string, for captions/summary)
- "speed" (float multiplier, default 1.0)
- "model" (string, generation model if named)
- "watermark_location": top_left, top_right, bottom_left, bottom_right, middle_left, middle_right, center
- "watermark_type": small_logo, large_banner, full_width
- "watermark_width" (int, 0-100 percent of width)
- "watermark_height" (int, 0-100 percent of height)
- "watermark_strategy": heal, fast, or crop

Respond with JSON only: {"operation": "...", "params": {...}}.
Pick the most prominent operation when several are requested, and detect the
intended operation even when words are misspelled.`

// ExtractIntent is single-shot: any failure yields (nil, err) and the
// caller's deterministic fallback takes over. It never retries.
func (a *Adapter) ExtractIntent(ctx context.Context, instruction string) (*types.AIIntent, error) {
	if a.client == nil {
		return nil, ErrMissingAPIKey
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	contents := genai.Text(intentPrompt + "\n\nUser instruction: " + instruction)
	resp, err := a.client.Models.GenerateContent(ctx, a.textModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("extract intent: %w", err)
	}

	var out types.AIIntent
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text())), &out); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	return &out, nil
}
