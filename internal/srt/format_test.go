package srt

import (
	"strings"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.025, "00:01:01,025"},
		{3661.999, "01:01:01,999"},
	}
	for _, c := range cases {
		if got := formatTimestamp(c.seconds); got != c.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestWriteProducesSequentialIndices(t *testing.T) {
	cues := []Cue{
		{Index: 0, Start: 0, End: 1, Text: "hello"},
		{Index: 1, Start: 1, End: 2, Text: "world"},
	}
	var b strings.Builder
	if err := Write(&b, cues); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "1\n00:00:00,000 --> 00:00:01,000\nhello") {
		t.Errorf("missing first cue block, got:\n%s", out)
	}
	if !strings.Contains(out, "2\n00:00:01,000 --> 00:00:02,000\nworld") {
		t.Errorf("missing second cue block, got:\n%s", out)
	}
}
