package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dhairyabh/Promtx-Studio/internal/ports"
	"github.com/dhairyabh/Promtx-Studio/internal/ports/adapters/ffmpeg"
	"github.com/dhairyabh/Promtx-Studio/internal/ports/adapters/gemini"
	"github.com/dhairyabh/Promtx-Studio/internal/quota"
	"github.com/dhairyabh/Promtx-Studio/internal/usecase"
)

// Compile-time adapter conformance.
var (
	_ ports.MediaTool = (*ffmpeg.Adapter)(nil)
	_ ports.AIService = (*gemini.Adapter)(nil)
)

type Config struct {
	Instruction string
	// InputPath is empty for pure generation requests.
	InputPath  string
	OutputPath string

	// OutDir receives generated output names when OutputPath is empty.
	// If empty, defaults to the current directory.
	OutDir string

	FFmpegPath  string
	FFprobePath string

	GeminiAPIKey string
	TextModel    string
	VideoModel   string

	// QuotaPath is the sqlite file backing the daily generation ledger.
	// If empty, defaults to ".promtx/quota.db".
	QuotaPath         string
	DailyQuotaSeconds int

	Logf func(format string, args ...any)
}

func (c Config) Validate() error {
	if c.Instruction == "" {
		return errors.New("instruction is empty")
	}
	if c.InputPath != "" {
		if _, err := os.Stat(c.InputPath); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}
	return nil
}

// Run wires the adapters and executes one instruction end to end,
// returning the path of the produced artifact.
func Run(ctx context.Context, cfg Config) (string, error) {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	quotaPath := cfg.QuotaPath
	if quotaPath == "" {
		quotaPath = filepath.Join(".promtx", "quota.db")
	}
	if err := os.MkdirAll(filepath.Dir(quotaPath), 0o755); err != nil {
		return "", err
	}
	ledger, err := quota.Open(quotaPath, cfg.DailyQuotaSeconds)
	if err != nil {
		return "", fmt.Errorf("open quota ledger: %w", err)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logf("close quota ledger: %v", err)
		}
	}()

	media := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	ai, err := gemini.New(ctx, gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		TextModel:  cfg.TextModel,
		VideoModel: cfg.VideoModel,
		Ledger:     ledger,
		Logf:       logf,
	})
	if err != nil {
		return "", fmt.Errorf("init gemini: %w", err)
	}

	outPath := cfg.OutputPath
	if outPath == "" {
		outDir := cfg.OutDir
		if outDir == "" {
			outDir = "."
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", err
		}
		prefix := "processed"
		if cfg.InputPath == "" {
			prefix = "generated"
		}
		outPath = filepath.Join(outDir, fmt.Sprintf("%s_%s.mp4", prefix, uuid.NewString()))
	}

	uc := usecase.New(usecase.Deps{
		Media: media,
		AI:    ai,
		Logf:  logf,
	})

	res, err := uc.Run(ctx, usecase.Input{
		Instruction: cfg.Instruction,
		InputPath:   cfg.InputPath,
		OutputPath:  outPath,
	})
	if err != nil {
		return "", err
	}
	logf("done: %s", res.Path)
	return res.Path, nil
}
