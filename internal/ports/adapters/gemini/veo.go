package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	// Veo produces a fixed-length initial clip and extends it in fixed
	// rounds; these mirror the service's increments.
	initialClipSeconds = 8
	extensionSeconds   = 7

	operationPollInterval = 5 * time.Second
)

// ErrRemoteQuota distinguishes the provider-side quota rejection, detected
// only after an operation fails, from the cheap local pre-flight check.
var ErrRemoteQuota = errors.New("remote generation quota exhausted")

// ErrMissingLedger guards generation when the adapter was built without a
// quota ledger; the other AI operations do not need one.
var ErrMissingLedger = errors.New("gemini: quota ledger is not configured")

func remoteQuotaErr(detail string) error {
	return fmt.Errorf("%w: the provider has reached its video generation limit (%s); "+
		"preview limits are strict, wait 15-30 minutes or review the quota page in the provider console", ErrRemoteQuota, detail)
}

// canExtend decides whether another 7s extension round runs: the target is
// unreached and another round still fits under the daily cap measured from
// the pre-reservation usage. The final round may overshoot the grant by
// less than one round; reconciliation settles the difference.
func canExtend(produced, granted, usedBefore, capSeconds int) bool {
	return produced < granted && usedBefore+produced+extensionSeconds <= capSeconds
}

// fastVariant derives the reduced-quality fallback identifier from a model
// name by substituting the fast token.
func fastVariant(model string) string {
	if strings.Contains(model, "generate-preview") {
		return strings.Replace(model, "generate-preview", "fast-generate-preview", 1)
	}
	return "veo-3.1-fast-generate-preview"
}

// GenerateVideo produces a new video from prompt and writes it to outPath.
// The daily ledger gates the requested duration up front; the primary model
// falls back once to its fast variant on a rate-limit rejection; the clip is
// extended in fixed rounds until the target is reached or the next round
// would break the daily cap; a rate-limited extension keeps the partial
// result. The ledger is settled with the seconds actually produced, not the
// request.
func (a *Adapter) GenerateVideo(ctx context.Context, prompt, model string, durationSeconds int, outPath string) (retPath string, retErr error) {
	if a.client == nil {
		return "", ErrMissingAPIKey
	}
	if a.ledger == nil {
		return "", ErrMissingLedger
	}
	if model == "" || model == "veo" {
		model = a.videoModel
	}
	if durationSeconds <= 0 {
		durationSeconds = initialClipSeconds
	}

	usedBefore, err := a.ledger.Used()
	if err != nil {
		return "", err
	}
	granted, err := a.ledger.TryReserve(durationSeconds)
	if err != nil {
		return "", err
	}
	produced := 0
	defer func() {
		if retErr != nil {
			produced = 0
		}
		if err := a.ledger.Reconcile(granted, produced); err != nil {
			a.logf("quota reconcile failed: %v", err)
		}
	}()

	a.logf("generating video with %s (target %ds): %q", model, granted, prompt)

	op, err := a.startGeneration(ctx, model, prompt, nil)
	if err != nil {
		if rateLimited(err) && !strings.Contains(model, "fast") {
			a.logf("primary model rate-limited, falling back to fast variant")
			op, err = a.startGeneration(ctx, fastVariant(model), prompt, nil)
		}
		if err != nil {
			return "", err
		}
	}
	op, err = a.waitOperation(ctx, op)
	if err != nil {
		return "", err
	}
	video, err := operationVideo(op)
	if err != nil {
		return "", err
	}
	produced = initialClipSeconds

	for canExtend(produced, granted, usedBefore, a.ledger.Cap()) {
		a.logf("extending video (%ds -> target %ds)", produced, granted)
		extOp, err := a.startGeneration(ctx, model, prompt, video)
		if err != nil {
			if rateLimited(err) {
				a.logf("rate limited during extension, keeping partial result")
				break
			}
			return "", err
		}
		extOp, err = a.waitOperation(ctx, extOp)
		if err != nil {
			a.logf("extension failed (%v), keeping partial result", err)
			break
		}
		extVideo, err := operationVideo(extOp)
		if err != nil {
			a.logf("extension yielded no video (%v), keeping partial result", err)
			break
		}
		video = extVideo
		produced += extensionSeconds
	}

	data := video.VideoBytes
	if len(data) == 0 {
		if data, err = a.client.Files.Download(ctx, video, nil); err != nil {
			return "", fmt.Errorf("download generated video: %w", err)
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}

func (a *Adapter) startGeneration(ctx context.Context, model, prompt string, prior *genai.Video) (*genai.GenerateVideosOperation, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	src := &genai.GenerateVideosSource{Prompt: prompt, Video: prior}
	op, err := a.client.Models.GenerateVideosFromSource(ctx, model, src, nil)
	if err != nil {
		return nil, fmt.Errorf("start generation on %s: %w", model, err)
	}
	return op, nil
}

func (a *Adapter) waitOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	var err error
	for !op.Done {
		if err := sleep(ctx, operationPollInterval); err != nil {
			return nil, err
		}
		if op, err = a.client.Operations.GetVideosOperation(ctx, op, nil); err != nil {
			return nil, fmt.Errorf("poll generation: %w", err)
		}
	}
	if op.Error != nil {
		msg := fmt.Sprintf("%v", op.Error)
		if strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429") {
			return nil, remoteQuotaErr(msg)
		}
		return nil, fmt.Errorf("generation failed: %s", msg)
	}
	return op, nil
}

func operationVideo(op *genai.GenerateVideosOperation) (*genai.Video, error) {
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, errors.New("generation finished with no video in response")
	}
	return op.Response.GeneratedVideos[0].Video, nil
}
