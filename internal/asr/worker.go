package asr

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

const sampleRate = 16000

// Worker reads one wire.Task per line from in, recognizes it, and writes one
// wire.WorkerOutput per line to out. It is the loop body of cmd/asrworker,
// factored out so it can be exercised without a subprocess (pipes in
// place of stdin/stdout). It is a plain receive -> recognize -> send loop,
// framed as JSON lines on a pipe instead of an in-process queue.
type Worker struct {
	Recognizer Recognizer
	Log        *slog.Logger
}

// Run blocks until in is exhausted or a read or write fails. Each line must
// be a complete wire.Task JSON object; a malformed line is logged and
// skipped rather than aborting the whole worker, since one bad frame should
// not take down recognition for every other in-flight task.
func (w *Worker) Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	writer := bufio.NewWriter(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		task, err := wire.DecodeTask(line)
		if err != nil {
			w.logf("decode task: %v", err)
			continue
		}

		result := w.recognize(task)

		data, err := wire.Marshal(result)
		if err != nil {
			w.logf("encode worker output: %v", err)
			continue
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if _, err := writer.Write([]byte("\n")); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (w *Worker) recognize(task wire.Task) wire.WorkerOutput {
	duration := float64(len(task.Samples)) / float64(sampleRate)
	out := wire.WorkerOutput{
		TaskID:       task.TaskID,
		SocketID:     task.SocketID,
		Source:       task.Source,
		Offset:       task.Offset,
		Overlap:      task.Overlap,
		Duration:     duration,
		IsFinal:      task.IsFinal,
		TimeStart:    task.TimeStart,
		TimeSubmit:   task.TimeSubmit,
		TimeComplete: nowUnix(),
	}

	tokens, timestamps, err := w.Recognizer.Recognize(task.Samples, sampleRate)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	out.Tokens = tokens
	out.Timestamps = timestamps
	return out
}

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func (w *Worker) logf(format string, args ...any) {
	if w.Log == nil {
		return
	}
	w.Log.Warn(fmt.Sprintf(format, args...))
}
