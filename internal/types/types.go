package types

// Intent is the resolved interpretation of a free-text editing instruction.
// Fields are evaluated independently by the orchestrator, so a single
// instruction can fire several chained operations. Generate and Summarize
// short-circuit the rest.
type Intent struct {
	Generate  bool
	Summarize bool

	StartTrim int
	EndTrim   int

	RemoveSilence    bool
	RemoveNoise      bool
	RemoveBackground bool

	RemoveWatermark bool
	Watermark       WatermarkSpec

	AddCaptions    bool
	TargetLanguage string

	ResizeVertical   bool
	ResizeHorizontal bool

	Speed        float64
	ExtractAudio bool

	// Generation-only parameters.
	Duration int
	Model    string
}

// WatermarkSpec describes where a watermark sits and how to remove it.
type WatermarkSpec struct {
	Location  string
	Type      string
	WidthPct  int
	HeightPct int
	Strategy  string
}

// AIIntent is the partial record the generative backend extracts from an
// instruction. Zero-valued fields are filled by the deterministic fallback.
type AIIntent struct {
	Operation string   `json:"operation"`
	Params    AIParams `json:"params"`
}

type AIParams struct {
	StartTrim         int     `json:"start_trim"`
	EndTrim           int     `json:"end_trim"`
	Duration          int     `json:"duration"`
	TargetLanguage    string  `json:"target_language"`
	Speed             float64 `json:"speed"`
	Model             string  `json:"model"`
	WatermarkLocation string  `json:"watermark_location"`
	WatermarkType     string  `json:"watermark_type"`
	WatermarkWidth    int     `json:"watermark_width"`
	WatermarkHeight   int     `json:"watermark_height"`
	WatermarkStrategy string  `json:"watermark_strategy"`
}

// Operation names the AI backend may return.
const (
	OpGenerateVideo    = "generate_video"
	OpSummarize        = "summarize"
	OpTrim             = "trim"
	OpRemoveSilence    = "remove_silence"
	OpRemoveNoise      = "remove_noise"
	OpAddCaptions      = "add_captions"
	OpResizeVertical   = "resize_vertical"
	OpResizeHorizontal = "resize_horizontal"
	OpAdjustSpeed      = "adjust_speed"
	OpExtractAudio     = "extract_audio"
	OpRemoveBackground = "remove_background"
	OpRemoveWatermark  = "remove_watermark"
)

// Interval is a half-open [Start, End) time range in seconds on a media
// file's timeline.
type Interval struct {
	Start float64
	End   float64
}

func (i Interval) Duration() float64 { return i.End - i.Start }
