package asr

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/metrics"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

// LiveSockets reports whether a socket_id still has an open connection, so
// the manager can drop stale tasks before handing them to the worker
// process instead of recognizing audio for a client that already left.
type LiveSockets interface {
	Live(socketID string) bool
}

// FailureRecorder persists a WorkerOutput that came back with a non-empty
// Err instead of handing it to the merger, so it never corrupts a
// PartialResult and is still inspectable afterwards.
type FailureRecorder interface {
	RecordFailure(out wire.WorkerOutput) error
}

// Manager supervises the cmd/asrworker subprocess (spawn, feed Tasks over
// its stdin, read WorkerOutputs off its stdout) the way a process
// supervisor manages a long-running worker: exec.Command plus a
// long-lived goroutine pumping output back to callers.
type Manager struct {
	binPath  string
	sockets  LiveSockets
	failures FailureRecorder
	log      *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	results chan wire.WorkerOutput
}

// NewManager builds a Manager that will exec binPath when Start is called.
// sockets may be nil, in which case no liveness filtering is applied.
func NewManager(binPath string, sockets LiveSockets, log *slog.Logger) *Manager {
	return &Manager{
		binPath: binPath,
		sockets: sockets,
		log:     log,
		results: make(chan wire.WorkerOutput, 256),
	}
}

// WithFailureRecorder sets the sink failed WorkerOutputs are diverted to
// instead of being pushed onto Results(). Optional; failures are silently
// dropped (after a log line) if unset.
func (m *Manager) WithFailureRecorder(r FailureRecorder) *Manager {
	m.failures = r
	return m
}

// WithSockets sets the liveness source Submit consults, for wiring in
// after construction: the wsserver.Server that owns the live connection
// table is itself built from a Manager, so the two are connected in two
// steps rather than a constructor cycle.
func (m *Manager) WithSockets(s LiveSockets) *Manager {
	m.sockets = s
	return m
}

// Results returns the channel WorkerOutputs are delivered on.
func (m *Manager) Results() <-chan wire.WorkerOutput {
	return m.results
}

// Start spawns the worker subprocess and begins pumping its stdout into
// Results(). It blocks until the process is running and its pipes are
// wired, then returns; actual output pumping happens in a background
// goroutine for the lifetime of ctx.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := exec.CommandContext(ctx, m.binPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("asr: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("asr: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("asr: start worker: %w", err)
	}

	m.cmd = cmd
	m.stdin = stdin
	m.stdout = stdout

	go m.pump(stdout)

	if m.log != nil {
		m.log.Info("asr worker started", "pid", cmd.Process.Pid, "bin", m.binPath)
	}
	return nil
}

func (m *Manager) pump(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		out, err := wire.DecodeWorkerOutput(line)
		if err != nil {
			if m.log != nil {
				m.log.Warn("asr: malformed worker output", "error", err)
			}
			continue
		}
		if out.Err != "" {
			m.handleFailure(out)
			continue
		}
		m.results <- out
	}
	close(m.results)
}

func (m *Manager) handleFailure(out wire.WorkerOutput) {
	if m.log != nil {
		m.log.Warn("asr: worker reported decode failure", "task_id", out.TaskID, "error", out.Err)
	}
	metrics.DeadLettersTotal.Inc()
	if m.failures == nil {
		return
	}
	if err := m.failures.RecordFailure(out); err != nil && m.log != nil {
		m.log.Error("asr: recording dead letter", "error", err)
	}
}

// Submit writes one Task to the worker's stdin as a JSON line. It is
// dropped (not an error) if the task's originating socket is no longer
// live.
func (m *Manager) Submit(task wire.Task) error {
	if m.sockets != nil && !m.sockets.Live(task.SocketID) {
		if m.log != nil {
			m.log.Debug("asr: dropping task for dead socket", "task_id", task.TaskID, "socket_id", task.SocketID)
		}
		return nil
	}

	data, err := wire.Marshal(task)
	if err != nil {
		return fmt.Errorf("asr: encode task: %w", err)
	}

	m.mu.Lock()
	stdin := m.stdin
	m.mu.Unlock()
	if stdin == nil {
		return fmt.Errorf("asr: worker not started")
	}

	if _, err := stdin.Write(data); err != nil {
		return fmt.Errorf("asr: write task: %w", err)
	}
	if _, err := stdin.Write([]byte("\n")); err != nil {
		return fmt.Errorf("asr: write newline: %w", err)
	}
	return nil
}

// Stop closes the worker's stdin, signalling end of input, and waits for
// the process to exit.
func (m *Manager) Stop() error {
	m.mu.Lock()
	stdin := m.stdin
	cmd := m.cmd
	m.mu.Unlock()

	if stdin != nil {
		stdin.Close()
	}
	if cmd == nil {
		return nil
	}
	return cmd.Wait()
}
