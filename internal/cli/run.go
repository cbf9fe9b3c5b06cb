package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dhairyabh/Promtx-Studio/internal/pipeline"
)

func run(cmd *cobra.Command, instruction string) error {
	input, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("out")
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")
	textModel, _ := cmd.Flags().GetString("text-model")
	videoModel, _ := cmd.Flags().GetString("video-model")
	quotaCap, _ := cmd.Flags().GetInt("quota-cap")
	quotaFile, _ := cmd.Flags().GetString("quota-file")

	logf, sync, err := newLogf(verbose)
	if err != nil {
		return err
	}
	defer sync()

	if input != "" {
		abs, err := filepath.Abs(input)
		if err != nil {
			return err
		}
		input = abs
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		Instruction: instruction,
		InputPath:   input,
		OutputPath:  output,
		OutDir:      outDir,

		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",

		// A missing key is tolerated: AI features degrade, local editing works.
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		TextModel:    flagOrEnv(textModel, "GEMINI_TEXT_MODEL"),
		VideoModel:   flagOrEnv(videoModel, "VEO_MODEL"),

		QuotaPath:         quotaFile,
		DailyQuotaSeconds: quotaCap,

		Logf: logf,
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	path, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newLogf(verbose bool) (func(format string, args ...any), func(), error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	sugar := logger.Sugar()
	return sugar.Infof, func() { _ = logger.Sync() }, nil
}

func flagOrEnv(flag, envKey string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envKey)
}
