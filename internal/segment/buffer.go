// Package segment implements the server-side segmenter (C4): per-task_id
// audio buffering that slices a streaming recording into overlapping
// windows and hands each window off as a Task for the ASR worker.
package segment

import (
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

const sampleRate = 16000

// Buffer accumulates one task_id's audio chunks and emits Tasks once enough
// audio has arrived. It is not safe for concurrent
// use; callers serialise access per task_id (see Manager).
type Buffer struct {
	taskID      string
	socketID    string
	source      wire.Source
	segDuration float64
	segOverlap  float64
	timeStart   float64

	samples []float32
	offset  float64
}

// NewBuffer seeds a Buffer from the first AudioChunk of a task. All chunks
// for the same task_id carry identical source/seg_duration/seg_overlap/time_start.
func NewBuffer(socketID string, chunk wire.AudioChunk) *Buffer {
	return &Buffer{
		taskID:      chunk.TaskID,
		socketID:    socketID,
		source:      chunk.Source,
		segDuration: chunk.SegDuration,
		segOverlap:  chunk.SegOverlap,
		timeStart:   chunk.TimeStart,
	}
}

// Push decodes and appends one chunk's audio, returning every Task that is
// now ready to dispatch. A final chunk always yields exactly one Task
// (whatever remains buffered, however short) and resets the buffer so the
// caller can discard it.
func (b *Buffer) Push(chunk wire.AudioChunk, timeSubmit float64) ([]wire.Task, error) {
	samples, err := wire.DecodeSamples(chunk.Data)
	if err != nil {
		return nil, err
	}
	b.samples = append(b.samples, samples...)

	if chunk.IsFinal {
		task := b.makeTask(b.samples, true, timeSubmit)
		b.samples = nil
		b.offset = 0
		return []wire.Task{task}, nil
	}

	threshold := b.segDuration + 2*b.segOverlap
	cutLen := int((b.segDuration + b.segOverlap) * sampleRate)
	advanceLen := int(b.segDuration * sampleRate)

	var tasks []wire.Task
	for float64(len(b.samples))/sampleRate >= threshold {
		window := make([]float32, cutLen)
		copy(window, b.samples[:cutLen])
		tasks = append(tasks, b.makeTask(window, false, timeSubmit))
		b.samples = append([]float32(nil), b.samples[advanceLen:]...)
		b.offset += b.segDuration
	}
	return tasks, nil
}

func (b *Buffer) makeTask(samples []float32, isFinal bool, timeSubmit float64) wire.Task {
	return wire.Task{
		TaskID:     b.taskID,
		SocketID:   b.socketID,
		Source:     b.source,
		Samples:    samples,
		Offset:     b.offset,
		Overlap:    b.segOverlap,
		IsFinal:    isFinal,
		TimeStart:  b.timeStart,
		TimeSubmit: timeSubmit,
	}
}
