package merger

import (
	"testing"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/textnorm"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

func newTestMerger(t *testing.T) *Merger {
	t.Helper()
	norm, err := textnorm.NewNormaliser("")
	if err != nil {
		t.Fatalf("NewNormaliser() error = %v", err)
	}
	return New(norm, nil, textnorm.Options{FormatNum: true, FormatSpell: true})
}

func TestMergeFirstSegmentKeepsLeadingTokens(t *testing.T) {
	m := newTestMerger(t)
	out := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     0,
		Overlap:    2,
		Duration:   10,
		IsFinal:    false,
		Tokens:     []string{"hello", "world"},
		Timestamps: []float64{0.1, 0.5},
	}
	pr := m.Merge(out, "sock1", wire.SourceMic)
	if len(pr.Tokens) != 2 {
		t.Fatalf("len(Tokens) = %d, want 2 (first segment keeps its leading edge): %+v", len(pr.Tokens), pr.Tokens)
	}
	if pr.IsFinal {
		t.Fatalf("IsFinal = true on non-final segment")
	}
}

func TestMergeDropsOverlapAtSegmentBoundary(t *testing.T) {
	m := newTestMerger(t)
	first := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     0,
		Overlap:    2,
		Duration:   10,
		IsFinal:    false,
		Tokens:     []string{"a", "b", "c"},
		Timestamps: []float64{0.1, 5.0, 9.5},
	}
	m.Merge(first, "sock1", wire.SourceMic)

	second := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     10,
		Overlap:    2,
		Duration:   10,
		IsFinal:    false,
		Tokens:     []string{"c", "d", "e"},
		Timestamps: []float64{0.5, 5.0, 9.5},
	}
	pr := m.Merge(second, "sock1", wire.SourceMic)

	want := []string{"a", "b", "c", "d", "e"}
	if len(pr.Tokens) != len(want) {
		t.Fatalf("Tokens = %+v, want %+v", pr.Tokens, want)
	}
	for i, tok := range want {
		if pr.Tokens[i] != tok {
			t.Fatalf("Tokens[%d] = %q, want %q (full: %+v)", i, pr.Tokens[i], tok, pr.Tokens)
		}
	}

	// Each interior segment contributes segment_len - overlap = 10 - 2 = 8
	// seconds; the shared overlap window must not be double-counted.
	if pr.Duration != 16 {
		t.Fatalf("Duration = %v, want 16 (two interior segments of 10s with 2s overlap each)", pr.Duration)
	}
}

func TestMergeFinalSegmentAddsBackOverlap(t *testing.T) {
	m := newTestMerger(t)
	first := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     0,
		Overlap:    2,
		Duration:   10,
		IsFinal:    false,
		Tokens:     []string{"a", "b"},
		Timestamps: []float64{0.1, 5.0},
	}
	m.Merge(first, "sock1", wire.SourceMic)

	final := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     10,
		Overlap:    2,
		Duration:   5,
		IsFinal:    true,
		Tokens:     []string{"c"},
		Timestamps: []float64{0.5},
	}
	pr := m.Merge(final, "sock1", wire.SourceMic)

	// Interior segment: 10 - 2 = 8. Final segment keeps its full window
	// since there is no following segment to absorb its trailing overlap:
	// (5 - 2) + 2 = 5.
	if pr.Duration != 13 {
		t.Fatalf("Duration = %v, want 13 (interior 8s + final 5s)", pr.Duration)
	}
}

func TestMergeFinalRemovesFromTable(t *testing.T) {
	m := newTestMerger(t)
	out := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     0,
		Overlap:    2,
		Duration:   3,
		IsFinal:    true,
		Tokens:     []string{"done"},
		Timestamps: []float64{0.1},
	}
	pr := m.Merge(out, "sock1", wire.SourceMic)
	if !pr.IsFinal {
		t.Fatalf("IsFinal = false, want true")
	}
	if _, ok := m.byID["t1"]; ok {
		t.Fatalf("task still present in merger table after final merge")
	}
}

func TestMergeFinalKeepsTrailingTokens(t *testing.T) {
	m := newTestMerger(t)
	out := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     0,
		Overlap:    2,
		Duration:   3,
		IsFinal:    true,
		Tokens:     []string{"a", "b", "c"},
		Timestamps: []float64{0.1, 1.5, 2.9},
	}
	pr := m.Merge(out, "sock1", wire.SourceMic)
	if len(pr.Tokens) != 3 {
		t.Fatalf("final segment dropped trailing tokens: %+v", pr.Tokens)
	}
}

func TestMergeRecomposesText(t *testing.T) {
	m := newTestMerger(t)
	out := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     0,
		Overlap:    2,
		Duration:   3,
		IsFinal:    true,
		Tokens:     []string{"hello", "@@ ", "world"},
		Timestamps: []float64{0.1, 0.2, 0.3},
	}
	pr := m.Merge(out, "sock1", wire.SourceMic)
	if pr.Text == "" {
		t.Fatalf("Text is empty after recompose")
	}
}

func TestMergePropagatesTimeStart(t *testing.T) {
	m := newTestMerger(t)
	out := wire.WorkerOutput{
		TaskID:     "t1",
		Offset:     0,
		Overlap:    2,
		Duration:   3,
		IsFinal:    true,
		TimeStart:  1234.5,
		TimeSubmit: 1234.6,
		Tokens:     []string{"a"},
		Timestamps: []float64{0.1},
	}
	pr := m.Merge(out, "sock1", wire.SourceMic)
	if pr.TimeStart != 1234.5 {
		t.Fatalf("TimeStart = %v, want 1234.5", pr.TimeStart)
	}
	if pr.TimeSubmit != 1234.6 {
		t.Fatalf("TimeSubmit = %v, want 1234.6", pr.TimeSubmit)
	}
}

func TestTrimSeamPunctuationDropsTrailingPunctuation(t *testing.T) {
	got := TrimSeamPunctuation([]string{"hi", "there", "，"})
	want := []string{"hi", "there"}
	if len(got) != len(want) || got[len(got)-1] != want[len(want)-1] {
		t.Fatalf("TrimSeamPunctuation() = %+v, want %+v", got, want)
	}
}

func TestTrimSeamPunctuationLeavesWordAlone(t *testing.T) {
	in := []string{"hi", "there"}
	got := TrimSeamPunctuation(in)
	if len(got) != 2 {
		t.Fatalf("TrimSeamPunctuation() = %+v, want unchanged %+v", got, in)
	}
}

func TestMergerDropDiscardsPartialResult(t *testing.T) {
	m := newTestMerger(t)
	m.Merge(wire.WorkerOutput{TaskID: "t1", Tokens: []string{"a"}, Timestamps: []float64{0}}, "sock1", wire.SourceMic)
	m.Drop("t1")
	if _, ok := m.byID["t1"]; ok {
		t.Fatalf("task still present after Drop")
	}
}

type stubPunctuator struct{ calls int }

func (p *stubPunctuator) Punctuate(text string) string {
	p.calls++
	return text + "。"
}

func TestMergeInvokesPunctuationModelBetweenPasses(t *testing.T) {
	norm, err := textnorm.NewNormaliser("")
	if err != nil {
		t.Fatalf("NewNormaliser() error = %v", err)
	}
	punc := &stubPunctuator{}
	m := New(norm, punc, textnorm.Options{FormatNum: true, FormatSpell: true})

	out := wire.WorkerOutput{
		TaskID:     "t1",
		IsFinal:    true,
		Tokens:     []string{"hello"},
		Timestamps: []float64{0.1},
	}
	pr := m.Merge(out, "sock1", wire.SourceMic)
	if punc.calls != 1 {
		t.Fatalf("Punctuate called %d times, want 1", punc.calls)
	}
	if pr.Text == "" {
		t.Fatalf("Text is empty")
	}
}
