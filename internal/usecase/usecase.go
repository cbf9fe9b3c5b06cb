package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhairyabh/Promtx-Studio/internal/intent"
	"github.com/dhairyabh/Promtx-Studio/internal/ports"
)

type Deps struct {
	Media ports.MediaTool
	AI    ports.AIService
	Logf  func(format string, args ...any)
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Logf == nil {
		d.Logf = func(string, ...any) {}
	}
	return Usecase{d: d}
}

type Input struct {
	Instruction string
	// InputPath is empty for pure generation requests.
	InputPath  string
	OutputPath string
}

type Result struct {
	// Path is the final artifact: media, or a text file for summaries.
	Path string
}

// operation is one bound transformation step. run returns the path it
// actually produced, which may differ from out (audio extraction rewrites
// the extension).
type operation struct {
	name string
	run  func(ctx context.Context, in, out string) (string, error)
}

// Run resolves the instruction and executes the resulting operation chain
// strictly in sequence: step k's output file is step k+1's input, only the
// last step writes the caller's output path. A failed step aborts the rest;
// completed intermediates are left in place.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	it := intent.Resolve(ctx, u.d.AI, in.Instruction, in.InputPath != "")

	if it.Generate {
		u.d.Logf("generating new video (%ds requested)", it.Duration)
		path, err := u.d.AI.GenerateVideo(ctx, in.Instruction, it.Model, it.Duration, in.OutputPath)
		if err != nil {
			return Result{}, fmt.Errorf("generate video: %w", err)
		}
		return Result{Path: path}, nil
	}

	if it.Summarize {
		path, err := u.summarize(ctx, in)
		if err != nil {
			return Result{}, err
		}
		return Result{Path: path}, nil
	}

	ops := u.buildOps(it)
	if len(ops) == 0 {
		// Identity transform: nothing recognized, hand back the input.
		u.d.Logf("no operations resolved, copying input")
		if err := copyFile(in.InputPath, in.OutputPath); err != nil {
			return Result{}, err
		}
		return Result{Path: in.OutputPath}, nil
	}

	ext := filepath.Ext(in.OutputPath)
	base := strings.TrimSuffix(in.OutputPath, ext)

	cur := in.InputPath
	for k, op := range ops {
		out := in.OutputPath
		if k < len(ops)-1 {
			out = fmt.Sprintf("%s_step%d%s", base, k, ext)
		}
		u.d.Logf("step %d/%d: %s", k+1, len(ops), op.name)
		next, err := op.run(ctx, cur, out)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", op.name, err)
		}
		cur = next
	}
	return Result{Path: cur}, nil
}

func (u Usecase) summarize(ctx context.Context, in Input) (string, error) {
	path := in.OutputPath
	if !strings.HasSuffix(path, ".txt") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
	}
	text, err := u.d.AI.Summarize(ctx, in.InputPath, in.Instruction)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
