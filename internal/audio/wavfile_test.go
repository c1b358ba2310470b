package audio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteThenReadWAVFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := []float32{0, 0.5, -0.5, 1, -1}

	if err := WriteWAVFile(path, samples, 16000); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}

	got, rate, err := ReadWAVFile(path)
	if err != nil {
		t.Fatalf("ReadWAVFile: %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(samples))
	}
	for i, want := range samples {
		if diff := math.Abs(float64(got[i] - want)); diff > 0.01 {
			t.Errorf("sample[%d] = %v, want ~%v", i, got[i], want)
		}
	}
}
