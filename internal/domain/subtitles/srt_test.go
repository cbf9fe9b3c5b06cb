package subtitles

import (
	"strings"
	"testing"
)

func TestNormalizeTimestamp_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"00:00:01,000", "00:00:01,000"},
		{"00:00:01.500", "00:00:01,500"},
		{"1:5,2", "00:01:05,200"},
		{"5", "00:00:05,000"},
		{"5,25", "00:00:05,250"},
		{"1:02:03,4", "01:02:03,400"},
		{"00:00:01,12345", "00:00:01,123"},
		{"12500", "00:00:12,500"},
		// Field-width repair only: out-of-range seconds pass through.
		{"00:00:65,500", "00:00:65,500"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := NormalizeTimestamp(tt.in); got != tt.want {
				t.Fatalf("NormalizeTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepair(t *testing.T) {
	t.Parallel()

	raw := "7\n0:1,5 --> 0:3\nhello there\n\n" +
		"this block has no timing\n\n" +
		"9\n00:00:04.000 --> 00:00:06,2\nsecond line\nand another\n"

	got := Repair(raw)
	want := "1\n00:00:01,500 --> 00:00:03,000\nhello there\n\n" +
		"2\n00:00:04,000 --> 00:00:06,200\nsecond line\nand another\n"
	if got != want {
		t.Fatalf("Repair mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}

	// Canonical output survives a second pass unchanged.
	if again := Repair(got); again != got {
		t.Fatalf("Repair not idempotent:\nfirst:\n%q\nsecond:\n%q", got, again)
	}
}

func TestRepair_AllMalformed(t *testing.T) {
	t.Parallel()

	got := Repair("just some prose\n\nmore prose")
	if strings.TrimSpace(got) != "" {
		t.Fatalf("expected empty repair, got %q", got)
	}
}

func TestIntervals(t *testing.T) {
	t.Parallel()

	srt := "1\n00:00:01,500 --> 00:00:03,000\nhello\n\n" +
		"2\n00:01:00,250 --> 00:01:02,000\nworld\n"

	got := Intervals(srt)
	if len(got) != 2 {
		t.Fatalf("got %d intervals, want 2", len(got))
	}
	if got[0].Start != 1.5 || got[0].End != 3.0 {
		t.Fatalf("first interval: got %v", got[0])
	}
	if got[1].Start != 60.25 || got[1].End != 62.0 {
		t.Fatalf("second interval: got %v", got[1])
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	in := "```srt\n1\n00:00:01,000 --> 00:00:02,000\nhi\n```"
	want := "1\n00:00:01,000 --> 00:00:02,000\nhi"
	if got := StripFences(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
