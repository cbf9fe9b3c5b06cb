package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/watermark"
)

func (a *Adapter) Delogo(ctx context.Context, in string, r watermark.Region, out string) error {
	vf := fmt.Sprintf("delogo=x=%d:y=%d:w=%d:h=%d", r.X, r.Y, r.W, r.H)
	return a.run(ctx, "delogo",
		"-y", "-nostdin",
		"-i", in,
		"-vf", vf,
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "copy",
		out,
	)
}

func (a *Adapter) CropRescale(ctx context.Context, in string, cropW, cropH, x, y, outW, outH int, out string) error {
	vf := fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d:flags=bicubic", cropW, cropH, x, y, outW, outH)
	return a.run(ctx, "crop rescale",
		"-y", "-nostdin",
		"-i", in,
		"-vf", vf,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		out,
	)
}

// RemuxAudio re-encodes the processed (possibly silent) video and maps the
// original source's audio track back onto it. The trailing "?" keeps the
// mapping optional for sources without audio.
func (a *Adapter) RemuxAudio(ctx context.Context, videoSrc, audioSrc, out string) error {
	return a.run(ctx, "remux audio",
		"-y", "-nostdin",
		"-i", videoSrc,
		"-i", audioSrc,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-map", "0:v:0",
		"-map", "1:a:0?",
		"-shortest",
		out,
	)
}

// ProcessFrames streams the source through a decode pipe as raw RGB24,
// hands each frame to fn for in-place mutation, and feeds the result into
// an encode pipe producing a silent H.264 stream. Frame-accurate but
// expensive: every pixel of every frame crosses the pipes twice.
func (a *Adapter) ProcessFrames(ctx context.Context, in, out string, w, h int, fps float64, fn func(frame []byte) error) error {
	decode := exec.CommandContext(ctx, a.ffmpeg,
		"-v", "error",
		"-i", in,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	encode := exec.CommandContext(ctx, a.ffmpeg,
		"-y", "-nostdin",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", w, h),
		"-r", fmtSeconds(fps),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		out,
	)

	decOut, err := decode.StdoutPipe()
	if err != nil {
		return err
	}
	encIn, err := encode.StdinPipe()
	if err != nil {
		return err
	}

	if err := decode.Start(); err != nil {
		return fmt.Errorf("ffmpeg decode start: %w", err)
	}
	if err := encode.Start(); err != nil {
		_ = decode.Process.Kill()
		_ = decode.Wait()
		return fmt.Errorf("ffmpeg encode start: %w", err)
	}

	frame := make([]byte, w*h*3)
	var loopErr error
	for {
		_, err := io.ReadFull(decOut, frame)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			loopErr = fmt.Errorf("read frame: %w", err)
			break
		}
		if err := fn(frame); err != nil {
			loopErr = err
			break
		}
		if _, err := encIn.Write(frame); err != nil {
			loopErr = fmt.Errorf("write frame: %w", err)
			break
		}
	}

	_ = encIn.Close()

	// On a mid-stream failure the decoder may be blocked writing into the
	// full pipe; it must die before Wait or Wait never returns.
	if loopErr != nil {
		_ = decode.Process.Kill()
		_ = encode.Process.Kill()
		_ = decode.Wait()
		_ = encode.Wait()
		return loopErr
	}

	decErr := decode.Wait()
	encErr := encode.Wait()
	if decErr != nil {
		return fmt.Errorf("ffmpeg decode: %w", decErr)
	}
	if encErr != nil {
		return fmt.Errorf("ffmpeg encode: %w", encErr)
	}
	return nil
}
