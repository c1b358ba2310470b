// Command asrworker is the separate recognition process spawned by
// cmd/server (C5). It reads one wire.Task JSON line per recognition request
// from stdin and writes one wire.WorkerOutput JSON line per result to
// stdout: a subprocess + pipe standing in for an in-process worker queue,
// so a crash in the recognizer cannot take down the host process.
package main

import (
	"log/slog"
	"os"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/asr"
)

func main() {
	logHandler := slog.NewJSONHandler(os.Stderr, nil)
	log := slog.New(logHandler)
	slog.SetDefault(log)

	recognizer := &asr.StubRecognizer{}
	worker := &asr.Worker{
		Recognizer: recognizer,
		Log:        log,
	}

	log.Info("asrworker starting")
	if err := worker.Run(os.Stdin, os.Stdout); err != nil {
		log.Error("asrworker exited", "error", err)
		os.Exit(1)
	}
}
