// Package intent turns a free-text editing instruction into a structured
// Intent. Resolution is two-layered: a best-effort AI extraction, and a
// deterministic keyword/regex pass that fills every field the AI left at
// its zero value. The deterministic layer is pure so it stays fully
// testable without the backend, and AI-extracted parameters win ties.
package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhairyabh/Promtx-Studio/internal/domain/watermark"
	"github.com/dhairyabh/Promtx-Studio/internal/types"
)

// DefaultGenerationSeconds is requested when an instruction asks for a new
// video without naming a duration.
const DefaultGenerationSeconds = 8

// Extractor is the slice of the AI backend resolution needs.
type Extractor interface {
	ExtractIntent(ctx context.Context, instruction string) (*types.AIIntent, error)
}

// Resolve runs AI extraction and merges the result over the deterministic
// fallback. Any extraction failure (network, credentials, malformed output)
// degrades to a nil partial record instead of propagating.
func Resolve(ctx context.Context, ex Extractor, instruction string, hasMedia bool) types.Intent {
	var partial *types.AIIntent
	if ex != nil {
		if got, err := ex.ExtractIntent(ctx, instruction); err == nil {
			partial = got
		}
	}
	return Merge(partial, instruction, hasMedia)
}

var (
	startTrimRE = regexp.MustCompile(`start.*?(\d+)`)
	endTrimRE   = regexp.MustCompile(`end.*?(\d+)`)
	speedRE     = regexp.MustCompile(`(\d+(\.\d+)?)x`)
	durationRE  = regexp.MustCompile(`(\d+)\s*sec`)
	languageRE  = regexp.MustCompile(`\b(?:in|to)\s+([a-zA-Z]+)`)
)

// Merge builds the final Intent from an optional AI partial record and the
// raw instruction. It is deterministic given its inputs.
func Merge(ai *types.AIIntent, instruction string, hasMedia bool) types.Intent {
	p := strings.ToLower(instruction)
	op := ""
	var params types.AIParams
	if ai != nil {
		op = ai.Operation
		params = ai.Params
	}

	// No source media, or an explicit generation request, short-circuits
	// every editing rule.
	if !hasMedia || op == types.OpGenerateVideo {
		it := types.Intent{Generate: true, Model: params.Model}
		it.Duration = params.Duration
		if it.Duration == 0 {
			if m := durationRE.FindStringSubmatch(p); m != nil {
				it.Duration, _ = strconv.Atoi(m[1])
			}
		}
		if it.Duration == 0 {
			it.Duration = DefaultGenerationSeconds
		}
		return it
	}

	if op == types.OpSummarize || containsAny(p, "summary", "summarize") {
		return types.Intent{Summarize: true, TargetLanguage: params.TargetLanguage}
	}

	var it types.Intent

	it.StartTrim = params.StartTrim
	it.EndTrim = params.EndTrim
	if it.StartTrim == 0 && it.EndTrim == 0 && strings.Contains(p, "trim") {
		if m := startTrimRE.FindStringSubmatch(p); m != nil {
			it.StartTrim, _ = strconv.Atoi(m[1])
		}
		if m := endTrimRE.FindStringSubmatch(p); m != nil {
			it.EndTrim, _ = strconv.Atoi(m[1])
		}
	}

	it.RemoveSilence = op == types.OpRemoveSilence || strings.Contains(p, "silence")
	it.RemoveNoise = op == types.OpRemoveNoise || containsAny(p, "noise", "clean audio")
	it.RemoveBackground = op == types.OpRemoveBackground ||
		(strings.Contains(p, "background") && containsAny(p, "remove", "isolate", "green"))

	it.RemoveWatermark = op == types.OpRemoveWatermark || containsAny(p, "watermark", "logo")
	if it.RemoveWatermark {
		it.Watermark = types.WatermarkSpec{
			Location:  orDefault(params.WatermarkLocation, watermark.DefaultLocation),
			Type:      orDefault(params.WatermarkType, watermark.DefaultType),
			WidthPct:  params.WatermarkWidth,
			HeightPct: params.WatermarkHeight,
			Strategy:  orDefault(params.WatermarkStrategy, watermark.StrategyHeal),
		}
	}

	it.AddCaptions = op == types.OpAddCaptions || containsAny(p, "caption", "subtitle")
	if it.AddCaptions {
		it.TargetLanguage = params.TargetLanguage
		if it.TargetLanguage == "" {
			if m := languageRE.FindStringSubmatch(p); m != nil {
				it.TargetLanguage = strings.ToLower(m[1])
			}
		}
	}

	// First match wins; a clip is vertical or horizontal, never both.
	if op == types.OpResizeVertical || containsAny(p, "shorts", "reel", "vertical", "tiktok") {
		it.ResizeVertical = true
	} else if op == types.OpResizeHorizontal || containsAny(p, "horizontal", "landscape", "youtube") {
		it.ResizeHorizontal = true
	}

	speed := params.Speed
	if speed == 0 || speed == 1.0 {
		switch {
		case speedRE.MatchString(p):
			m := speedRE.FindStringSubmatch(p)
			speed, _ = strconv.ParseFloat(m[1], 64)
		case strings.Contains(p, "fast"):
			speed = 2.0
		case strings.Contains(p, "slow"):
			speed = 0.5
		default:
			speed = 1.0
		}
	}
	it.Speed = speed

	it.ExtractAudio = op == types.OpExtractAudio || containsAny(p, "audio", "mp3", "extract")

	return it
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
