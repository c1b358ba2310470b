// Package merger implements the server-side result merger (C6): stitching
// overlapping ASR worker outputs for a task_id into one growing
// PartialResult, and recomposing its tokens into formatted text.
package merger

import (
	"strings"
	"sync"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/textnorm"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

// PartialResult is kept by the merger for the lifetime of a task_id, per
// below. Tokens/Timestamps grow monotonically; Text is recomputed on
// every merge.
type PartialResult struct {
	TaskID       string
	SocketID     string
	Source       wire.Source
	Duration     float64
	Tokens       []string
	Timestamps   []float64
	Text         string
	TimeStart    float64
	TimeSubmit   float64
	TimeComplete float64
	IsFinal      bool
}

// PunctuationModel is the narrow external-collaborator interface for an
// optional punctuation-insertion step, invoked with the pre-punctuation
// text and returning the punctuated text.
type PunctuationModel interface {
	Punctuate(text string) string
}

// Merger owns the in-flight PartialResult for every task_id currently
// being recognised.
type Merger struct {
	mu    sync.Mutex
	byID  map[string]*PartialResult
	norm  *textnorm.Normaliser
	punc  PunctuationModel
	opts  textnorm.Options
}

func New(norm *textnorm.Normaliser, punc PunctuationModel, opts textnorm.Options) *Merger {
	return &Merger{
		byID: make(map[string]*PartialResult),
		norm: norm,
		punc: punc,
		opts: opts,
	}
}

// Merge folds one WorkerOutput into its task's PartialResult and returns the
// updated (or finalised) result. When out.IsFinal, the PartialResult is
// removed from the merger's table and the returned result has IsFinal=true.
func (m *Merger) Merge(out wire.WorkerOutput, socketID string, source wire.Source) PartialResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	pr, ok := m.byID[out.TaskID]
	if !ok {
		pr = &PartialResult{TaskID: out.TaskID, SocketID: socketID, Source: source}
		m.byID[out.TaskID] = pr
	}

	pr.Duration += out.Duration - out.Overlap
	if out.IsFinal {
		pr.Duration += out.Overlap
	}
	pr.TimeStart = out.TimeStart
	pr.TimeSubmit = out.TimeSubmit
	pr.TimeComplete = out.TimeComplete

	lo, hi := coarseBounds(out.Timestamps, out.Overlap, out.Duration, len(pr.Timestamps) == 0, out.IsFinal)
	lo = fineDedup(pr.Tokens, out.Tokens[lo:hi], lo)

	pr.Tokens = TrimSeamPunctuation(pr.Tokens)

	for _, ts := range out.Timestamps[lo:hi] {
		pr.Timestamps = append(pr.Timestamps, ts+out.Offset)
	}
	pr.Tokens = append(pr.Tokens, out.Tokens[lo:hi]...)

	pr.Text = m.recompose(pr.Tokens)

	if !out.IsFinal {
		result := *pr
		return result
	}

	delete(m.byID, out.TaskID)
	pr.IsFinal = true
	return *pr
}

// coarseBounds implements coarse de-duplication: drop
// leading tokens inside the first half of the overlap window, and (unless
// this is the task's final segment) drop trailing tokens inside the last
// half of the overlap window, so the next segment's matching window
// supplies them instead.
func coarseBounds(timestamps []float64, overlap, duration float64, isFirstSegment, isFinal bool) (lo, hi int) {
	lo, hi = len(timestamps), len(timestamps)
	for i, ts := range timestamps {
		if ts > overlap/2 {
			lo = i
			break
		}
	}
	for i, ts := range timestamps {
		hi = i + 1
		if ts > duration-overlap/2 {
			break
		}
	}
	if isFirstSegment {
		lo = 0
	}
	if isFinal {
		hi = len(timestamps)
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// fineDedup implements step 5: after the coarse cut, check whether the
// already-merged tail still overlaps the new segment's head by one or two
// tokens (the coarse timestamp cut is approximate) and trims the extra
// tokens by advancing lo.
func fineDedup(mergedTokens []string, newHead []string, lo int) int {
	if len(mergedTokens) >= 2 && len(newHead) >= 2 &&
		mergedTokens[len(mergedTokens)-2] == newHead[0] && mergedTokens[len(mergedTokens)-1] == newHead[1] {
		return lo + 2
	}
	if len(mergedTokens) >= 1 && len(newHead) >= 1 && mergedTokens[len(mergedTokens)-1] == newHead[0] {
		return lo + 1
	}
	return lo
}

// recompose implements step 7: join tokens, strip BPE continuation
// artefacts, collapse inter-token punctuation spacing, run the punctuation
// model (if any) between the two normalisation passes, and convert
// numerals.
func (m *Merger) recompose(tokens []string) string {
	text := strings.Join(tokens, " ")
	text = strings.ReplaceAll(text, "@@ ", "")
	text = textnorm.CollapseArtefactSpaces(text)
	if m.opts.FormatSpell {
		text = textnorm.AdjustSpace(text)
	}
	if m.punc != nil {
		text = m.punc.Punctuate(text)
	}
	if m.opts.FormatNum {
		text = m.norm.ConvertNumerals(text)
	}
	if m.opts.FormatSpell {
		text = textnorm.AdjustSpace(text)
	}
	return text
}

// TrimSeamPunctuation implements the punctuation seam fix: if the
// previous PartialResult's last token is a punctuation character,
// drop it before the next segment's tokens are appended, since the next
// segment's leading word makes the old trailing punctuation wrong.
func TrimSeamPunctuation(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	last := tokens[len(tokens)-1]
	if isPunctuationToken(last) {
		return tokens[:len(tokens)-1]
	}
	return tokens
}

func isPunctuationToken(tok string) bool {
	if tok == "" {
		return false
	}
	r := []rune(tok)
	if len(r) != 1 {
		return false
	}
	c := r[0]
	switch c {
	case '，', '。', '？', '！', '、', '；', '：', ',', '.', '?', '!', ';', ':':
		return true
	}
	return false
}

// Drop discards a task's PartialResult without finalising it, used when a
// client disconnects mid-recording (lazy PartialResult GC).
func (m *Merger) Drop(taskID string) {
	m.mu.Lock()
	delete(m.byID, taskID)
	m.mu.Unlock()
}

// InFlight returns the number of task_ids with an in-progress
// PartialResult, for internal/metrics' gauge.
func (m *Merger) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
