package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	samples := Sine(440, 0.1, 22050, 0.5)
	b, err := EncodeBytes(samples, 22050)
	require.NoError(t, err)

	a, err := DecodeBytes(b)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(22050, a.SampleRate)
	assert.Len(a.Samples, len(samples))
	for i := range samples {
		assert.InDelta(samples[i], a.Samples[i], 1e-4)
	}
	assert.NotEqual(uuid.Nil, a.ID)
}

func TestEncodeToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Encode(f, Sine(220, 0.05, 8000, 2), 8000))
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	a, err := Decode(f)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(400, len(a.Samples))
	// clipped on the way out
	for _, s := range a.Samples {
		assert.LessOrEqual(s, 1.0)
		assert.GreaterOrEqual(s, -1.0)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeBytes([]byte("definitely not a riff file"))
	assert.ErrorIs(t, err, ErrInvalidWAV)
}

func TestStreamCaptureInChunks(t *testing.T) {
	b, err := EncodeBytes(Sine(330, 0.2, 16000, 0.3), 16000)
	require.NoError(t, err)

	c := NewStreamCapture()
	h, err := c.Begin()
	require.NoError(t, err)
	for i := 0; i < len(b); i += 1000 {
		end := i + 1000
		if end > len(b) {
			end = len(b)
		}
		require.NoError(t, c.OnData(h, b[i:end]))
	}
	a, err := c.Finalize(h)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(h, a.ID)
	assert.Equal(16000, a.SampleRate)
	assert.Len(a.Samples, 3200)
	assert.Equal(0, c.Open())
}

func TestStreamCaptureRepairsSizes(t *testing.T) {
	b, err := EncodeBytes(Sine(330, 0.1, 8000, 0.3), 8000)
	require.NoError(t, err)
	// a live recorder writes placeholder sizes
	binary.LittleEndian.PutUint32(b[4:8], 0)
	binary.LittleEndian.PutUint32(b[40:44], 0)

	c := NewStreamCapture()
	h, _ := c.Begin()
	require.NoError(t, c.OnData(h, b))
	a, err := c.Finalize(h)
	require.NoError(t, err)
	assert.Len(t, a.Samples, 800)
}

func TestStreamCaptureAbort(t *testing.T) {
	c := NewStreamCapture()
	h, _ := c.Begin()
	c.Abort(h)

	assert := assert.New(t)
	assert.ErrorIs(c.OnData(h, []byte{1}), ErrUnknownHandle)
	_, err := c.Finalize(h)
	assert.ErrorIs(err, ErrUnknownHandle)
	assert.Equal(0, c.Open())
}

func TestMixClipsAtEnd(t *testing.T) {
	dst := make([]float64, 4)
	Mix(dst, []float64{1, 1, 1}, 2)
	Mix(dst, []float64{1, 1}, -1)
	assert.Equal(t, []float64{1, 0, 1, 1}, dst)
}

func TestRenderMelody(t *testing.T) {
	m := model.Melody{Tempo: 120, Events: []model.RawEvent{
		model.NewNote("A4", 69, 0, 0.5, 1),
		model.NewRest(0.5, 0.5),
		model.NewNote("A4", 69, 1, 0.5, 1),
	}}
	res := RenderMelody(m, RenderOptions{SampleRate: 1000, Amplitude: 0.5, TailSeconds: 0.5})

	assert := assert.New(t)
	assert.Len(res, 2000)
	for _, s := range res[500:1000] {
		assert.Equal(0.0, s)
	}
	assert.Nil(RenderMelody(model.Melody{}, RenderOptions{}))
}

func TestPrerollKeepsHeaderOnly(t *testing.T) {
	b, err := EncodeBytes(Sine(330, 0.1, 8000, 0.3), 8000)
	require.NoError(t, err)

	var p Preroll
	_, _ = p.Write(b[:30])
	_, _ = p.Write(b[30:101])
	take := p.Take()

	assert := assert.New(t)
	// 44 byte header, then 57 bytes of audio of which the odd one out is
	// half a frame
	assert.Len(take, 45)
	assert.Equal(b[:44], take[:44])
	assert.Equal(b[100], take[44])
	assert.Empty(p.Take())
}

func TestPrerollPassesThroughUnknownStreams(t *testing.T) {
	var p Preroll
	_, _ = p.Write([]byte("raw pcm"))
	assert.Equal(t, []byte("raw pcm"), p.Take())
}
