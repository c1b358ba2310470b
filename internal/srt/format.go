package srt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadLines reads a line-broken transcript file, preserving blank lines so
// callers can report accurate line numbers on a later ErrNoAlignment.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// WriteFile renders cues as an SRT file at path.
func WriteFile(path string, cues []Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, cues)
}

// Write renders cues in standard SRT format to w.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for _, c := range cues {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			c.Index+1, formatTimestamp(c.Start), formatTimestamp(c.End), strings.TrimSpace(c.Text)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatTimestamp renders seconds as SRT's "HH:MM:SS,mmm" timestamp.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	ms := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	s := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	m := totalMinutes % 60
	h := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
