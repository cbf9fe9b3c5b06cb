package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestTransientClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err           error
		wantTransient bool
		wantRateLimit bool
	}{
		{nil, false, false},
		{errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"), true, true},
		{errors.New("rpc error: code = 503 UNAVAILABLE"), true, false},
		{errors.New("invalid argument"), false, false},
		{errors.New("quota exceeded: RESOURCE_EXHAUSTED"), true, true},
	}
	for _, tt := range tests {
		if got := transient(tt.err); got != tt.wantTransient {
			t.Fatalf("transient(%v) = %v, want %v", tt.err, got, tt.wantTransient)
		}
		if got := rateLimited(tt.err); got != tt.wantRateLimit {
			t.Fatalf("rateLimited(%v) = %v, want %v", tt.err, got, tt.wantRateLimit)
		}
	}
}

func TestFastVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"veo-3.1-generate-preview", "veo-3.1-fast-generate-preview"},
		{"veo-2.0-generate-preview", "veo-2.0-fast-generate-preview"},
		{"some-custom-model", "veo-3.1-fast-generate-preview"},
	}
	for _, tt := range tests {
		if got := fastVariant(tt.in); got != tt.want {
			t.Fatalf("fastVariant(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemoteQuotaErr(t *testing.T) {
	t.Parallel()

	err := remoteQuotaErr("operation failed")
	if !errors.Is(err, ErrRemoteQuota) {
		t.Fatalf("err = %v, want ErrRemoteQuota", err)
	}
}

func TestCanExtend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		produced   int
		granted    int
		usedBefore int
		cap        int
		want       bool
	}{
		// 10s requested against a fresh 30s cap: the 8s initial clip
		// extends once even though 8+7 overshoots the grant.
		{"target unreached under cap", 8, 10, 0, 30, true},
		{"target reached", 15, 10, 0, 30, false},
		{"next round would break cap", 8, 10, 20, 30, false},
		{"grant already overshot by initial clip", 8, 5, 25, 30, false},
		{"long target keeps extending", 22, 30, 0, 30, true},
		{"long target stops at cap", 29, 30, 0, 30, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := canExtend(tt.produced, tt.granted, tt.usedBefore, tt.cap); got != tt.want {
				t.Fatalf("canExtend(%d, %d, %d, %d) = %v, want %v",
					tt.produced, tt.granted, tt.usedBefore, tt.cap, got, tt.want)
			}
		})
	}
}

func TestGenerateVideoRequiresLedger(t *testing.T) {
	t.Parallel()

	a := &Adapter{
		client:     &genai.Client{},
		videoModel: DefaultVideoModel,
		logf:       func(string, ...any) {},
	}
	if _, err := a.GenerateVideo(context.Background(), "a cat", "", 8, "out.mp4"); !errors.Is(err, ErrMissingLedger) {
		t.Fatalf("err = %v, want ErrMissingLedger", err)
	}
}

func TestMissingAPIKeyDegrades(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("new without key: %v", err)
	}

	if _, err := a.GenerateSubtitles(context.Background(), "in.mp4", ""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("subtitles err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := a.Summarize(context.Background(), "in.mp4", "sum it up"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("summarize err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := a.ExtractIntent(context.Background(), "trim it"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("intent err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := a.GenerateVideo(context.Background(), "a cat", "", 8, "out.mp4"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("generate err = %v, want ErrMissingAPIKey", err)
	}
}
