package audio

import (
	"bytes"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/pkg/errors"
)

var ErrInvalidWAV = errors.New("not a valid wav file")

// Decode reads a WAV file and keeps its first channel, normalized to [-1, 1],
// for analysis.
func Decode(r io.ReadSeeker) (*model.CapturedAudio, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "could not decode wav")
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, ErrInvalidWAV
	}

	bitDepth := int(decoder.BitDepth)
	channels := buf.Format.NumChannels
	samples := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, normalize(buf.Data[i], bitDepth))
	}

	return &model.CapturedAudio{
		ID:         uuid.New(),
		Samples:    samples,
		SampleRate: int(decoder.SampleRate),
	}, nil
}

func DecodeBytes(b []byte) (*model.CapturedAudio, error) {
	return Decode(bytes.NewReader(b))
}

func normalize(v, bitDepth int) float64 {
	if bitDepth == 8 {
		// 8-bit wav is unsigned
		return float64(v-128) / 128
	}
	return float64(v) / math.Pow(2, float64(bitDepth-1))
}

// Encode writes samples as a 16-bit mono WAV.
func Encode(w io.WriteSeeker, samples []float64, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * 32767))
	}
	buf := &audio.IntBuffer{Data: data, Format: &audio.Format{SampleRate: sampleRate, NumChannels: 1}, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "could not write wav")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "could not finish wav")
	}
	return nil
}

func EncodeBytes(samples []float64, sampleRate int) ([]byte, error) {
	ws := &writeSeeker{}
	if err := Encode(ws, samples, sampleRate); err != nil {
		return nil, err
	}
	return ws.buf, nil
}

// writeSeeker is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes on Close.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(w.pos) + offset
	case io.SeekEnd:
		next = int64(len(w.buf)) + offset
	default:
		return 0, errors.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, errors.New("negative seek position")
	}
	w.pos = int(next)
	return next, nil
}
