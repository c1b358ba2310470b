package wire

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// ErrMalformedFrame is returned when an inbound frame is not well-formed
// JSON, or its audio payload does not decode to a whole number of 32-bit
// floats. The connection is closed with no response.
var ErrMalformedFrame = errors.New("wire: malformed frame")

// DecodeAudioChunk parses a client -> server frame. It first sniffs the
// required fields with gjson to reject garbage cheaply (no struct
// allocation, no full unmarshal) before handing the bytes to sonic for the
// real decode.
func DecodeAudioChunk(raw []byte) (AudioChunk, error) {
	if !gjson.ValidBytes(raw) {
		return AudioChunk{}, fmt.Errorf("%w: invalid json", ErrMalformedFrame)
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.Get("task_id").Exists() {
		return AudioChunk{}, fmt.Errorf("%w: missing task_id", ErrMalformedFrame)
	}

	var chunk AudioChunk
	if err := sonic.Unmarshal(raw, &chunk); err != nil {
		return AudioChunk{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if chunk.TaskID == "" {
		return AudioChunk{}, fmt.Errorf("%w: empty task_id", ErrMalformedFrame)
	}
	if chunk.Data == "" && !chunk.IsFinal {
		return AudioChunk{}, fmt.Errorf("%w: empty data on non-final chunk", ErrMalformedFrame)
	}
	if _, err := DecodeSamples(chunk.Data); err != nil {
		return AudioChunk{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return chunk, nil
}

// DecodeSamples base64-decodes a chunk payload into little-endian float32
// PCM samples. Returns ErrMalformedFrame if the payload is not a whole
// number of 4-byte floats.
func DecodeSamples(b64 string) ([]float32, error) {
	if b64 == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrMalformedFrame, err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: payload not a multiple of 4 bytes", ErrMalformedFrame)
	}
	return BytesToFloat32(raw), nil
}

// BytesToFloat32 reinterprets little-endian bytes as float32 samples.
func BytesToFloat32(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// Float32ToBytes serialises float32 samples as little-endian bytes.
func Float32ToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// EncodeAudioChunk base64-encodes samples into an AudioChunk ready to send.
func EncodeAudioChunk(taskID string, source Source, segDuration, segOverlap float64, isFinal bool, timeStart, timeFrame float64, samples []float32) AudioChunk {
	return AudioChunk{
		TaskID:      taskID,
		Source:      source,
		SegDuration: segDuration,
		SegOverlap:  segOverlap,
		IsFinal:     isFinal,
		TimeStart:   timeStart,
		TimeFrame:   timeFrame,
		Data:        base64.StdEncoding.EncodeToString(Float32ToBytes(samples)),
	}
}

// Marshal serialises any wire message with sonic instead of encoding/json,
// for the hot path's allocation and CPU cost.
func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// DecodeResult parses a server -> client Result frame.
func DecodeResult(raw []byte) (Result, error) {
	var r Result
	if err := sonic.Unmarshal(raw, &r); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return r, nil
}

// DecodeTask parses one server -> worker Task line.
func DecodeTask(raw []byte) (Task, error) {
	var t Task
	if err := sonic.Unmarshal(raw, &t); err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return t, nil
}

// DecodeWorkerOutput parses one worker -> server WorkerOutput line.
func DecodeWorkerOutput(raw []byte) (WorkerOutput, error) {
	var w WorkerOutput
	if err := sonic.Unmarshal(raw, &w); err != nil {
		return WorkerOutput{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return w, nil
}
