// Command client is the push-to-talk client (C8-C10): in its default mode
// it listens for configured hotkeys, streams microphone audio to
// cmd/server over WebSocket, and injects the returned transcript; given one
// or more file paths as arguments it instead transcribes each file and
// writes the adjacent .txt/.merge.txt/.json/.srt quadruple: two CLI entry
// points folded into one binary.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/audio"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/config"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/hotkey"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/hotword"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/recorder"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/sink"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/srt"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/textnorm"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.LoadClient("client.yaml")
	if err != nil {
		log.Error("client exited", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		for _, path := range os.Args[1:] {
			if err := transcribeFile(ctx, cfg, path, log); err != nil {
				log.Error("transcribe file", "path", path, "error", err)
			}
		}
		return
	}

	if err := runMic(ctx, cfg, log); err != nil {
		log.Error("client exited", "error", err)
		os.Exit(1)
	}
}

func serverURL(cfg config.ClientConfig) string {
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(cfg.Addr, strconv.Itoa(cfg.Port))}
	return u.String()
}

// wsSender serialises concurrent Session.run() writes onto one connection.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsSender) Send(chunk wire.AudioChunk) error {
	data, err := wire.Marshal(chunk)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func optionalFile(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func readKeywords(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var keywords []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, line)
	}
	return keywords
}

func runMic(ctx context.Context, cfg config.ClientConfig, log *slog.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL(cfg), nil)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", serverURL(cfg), err)
	}
	defer conn.Close()
	sender := &wsSender{conn: conn}

	norm, err := textnorm.NewNormaliser(optionalFile("idioms-extra.txt"))
	if err != nil {
		return err
	}

	engine := hotword.NewEngine(cfg.HotZh, cfg.HotEn, cfg.HotRule)
	if err := engine.LoadFiles("hot-zh.txt", "hot-en.txt", "hot-rule.txt"); err != nil {
		log.Warn("hotword: initial load failed", "error", err)
	}
	watcher, err := hotword.WatchFiles(engine, log, "hot-zh.txt", "hot-en.txt", "hot-rule.txt")
	if err != nil {
		log.Warn("hotword: file watcher unavailable", "error", err)
	} else {
		defer watcher.Close()
	}

	saveDir := ""
	if cfg.SaveAudio {
		saveDir = filepath.Join(time.Now().Format("2006/01"), "assets")
		if err := os.MkdirAll(saveDir, 0o755); err != nil {
			log.Warn("recorder: cannot create save directory", "dir", saveDir, "error", err)
			saveDir = ""
		}
	}

	mic := audio.NewNullMicSource()
	rec := recorder.New(mic, sender, cfg.MicSegDuration, cfg.MicSegOverlap, cfg.Threshold, saveDir, log)

	var broadcaster *sink.UDPBroadcaster
	if cfg.UDPBroadcast && len(cfg.UDPBroadcastTargets) > 0 {
		broadcaster, err = sink.NewUDPBroadcaster(cfg.UDPBroadcastTargets, log)
		if err != nil {
			log.Warn("sink: udp broadcaster unavailable", "error", err)
		} else {
			defer broadcaster.Close()
		}
	}

	resultSink := sink.New(engine, norm, textnorm.Options{FormatNum: true, FormatSpell: true}, nil, nil, rec, broadcaster, sink.Options{
		Paste:        cfg.Paste,
		RestoreClip:  cfg.RestoreClip,
		TrashPunc:    cfg.TrashPunc,
		SaveAudio:    cfg.SaveAudio,
		AudioNameLen: cfg.AudioNameLen,
		RootDir:      ".",
		Keywords:     readKeywords("keywords.txt"),
	}, log)

	dispatcher := hotkey.NewDispatcher(cfg.Shortcuts, rec, nil, nil, log)

	var listener hotkey.HotkeyListener
	if cfg.UDPControl {
		listener, err = hotkey.NewUDPControlSource(net.JoinHostPort(cfg.UDPControlAddr, strconv.Itoa(cfg.UDPControlPort)), log)
		if err != nil {
			return fmt.Errorf("client: udp control source: %w", err)
		}
	} else {
		log.Warn("hotkey: no OS input hook in this build; enable udp_control to drive sessions")
		listener = newNoopListener()
	}
	defer listener.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rec.Run(gctx)
		return nil
	})

	g.Go(func() error {
		dispatcher.Run(gctx, listener)
		return nil
	})

	g.Go(func() error {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return err
				}
			}
			result, err := wire.DecodeResult(data)
			if err != nil {
				log.Warn("client: malformed result", "error", err)
				continue
			}
			if err := resultSink.Process(result); err != nil {
				log.Warn("client: sink process", "error", err)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		conn.Close()
		return nil
	})

	return g.Wait()
}

// noopListener satisfies hotkey.HotkeyListener with a channel that is never
// written to, standing in for the OS input hook this repo does not bind
// (this repo's contract-only treatment of key injection and hotkey hooks
// extends to the capture side).
type noopListener struct {
	events chan hotkey.Event
}

func newNoopListener() *noopListener {
	return &noopListener{events: make(chan hotkey.Event)}
}

func (n *noopListener) Events() <-chan hotkey.Event {
	return n.events
}

func (n *noopListener) Close() error {
	return nil
}

// transcribeFile implements the file-transcription CLI mode: open a fresh
// connection, stream the file's samples as source=file AudioChunks in
// fixed 60-second transport windows (independent of seg_duration/overlap,
// which only steer the server's own segmenter), then wait for the final
// Result and write the .merge.txt/.txt/.json/.srt quadruple, with the send
// and receive halves run as two independent phases.
func transcribeFile(ctx context.Context, cfg config.ClientConfig, path string, log *slog.Logger) error {
	samples, rate, err := audio.ReadWAVFile(path)
	if err != nil {
		return err
	}
	if rate != 16000 {
		log.Warn("client: file is not 16kHz, transcription quality may suffer", "path", path, "sample_rate", rate)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL(cfg), nil)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", serverURL(cfg), err)
	}
	defer conn.Close()

	taskID := fmt.Sprintf("file-%d", time.Now().UnixNano())
	timeStart := float64(time.Now().UnixNano()) / 1e9
	const windowSamples = 16000 * 60

	for offset := 0; ; offset += windowSamples {
		end := offset + windowSamples
		isFinal := end >= len(samples)
		if end > len(samples) {
			end = len(samples)
		}
		chunk := wire.EncodeAudioChunk(taskID, wire.SourceFile, cfg.FileSegDuration, cfg.FileSegOverlap, isFinal, timeStart, float64(time.Now().UnixNano())/1e9, samples[offset:end])
		data, err := wire.Marshal(chunk)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
		if isFinal {
			break
		}
	}

	var result wire.Result
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("client: read result: %w", err)
		}
		result, err = wire.DecodeResult(data)
		if err != nil {
			return fmt.Errorf("client: decode result: %w", err)
		}
		if result.IsFinal {
			break
		}
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	mergeFile := base + ".merge.txt"
	txtFile := base + ".txt"
	jsonFile := base + ".json"
	srtFile := base + ".srt"

	if err := os.WriteFile(mergeFile, []byte(result.Text), 0o644); err != nil {
		return err
	}

	textSplit := splitOnSentenceBreaks(result.Text)
	if err := os.WriteFile(txtFile, []byte(textSplit), 0o644); err != nil {
		return err
	}

	jsonData, err := json.Marshal(struct {
		Timestamps []float64 `json:"timestamps"`
		Tokens     []string  `json:"tokens"`
	}{Timestamps: result.Timestamps, Tokens: result.Tokens})
	if err != nil {
		return err
	}
	if err := os.WriteFile(jsonFile, jsonData, 0o644); err != nil {
		return err
	}

	lines, err := srt.ReadLines(txtFile)
	if err != nil {
		return err
	}
	words := srt.WordsFromTokens(result.Tokens, result.Timestamps)
	cues, err := srt.Align(lines, words)
	if err != nil {
		log.Warn("client: srt alignment failed", "path", path, "error", err)
		return nil
	}
	return srt.WriteFile(srtFile, cues)
}

// splitOnSentenceBreaks turns every full-width comma, period, or question
// mark into a line break, so the resulting file is the one-sentence-per-line
// input internal/srt aligns against.
func splitOnSentenceBreaks(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '，', '。', '？':
			b.WriteRune('\n')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
