package audio

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrUnknownHandle = errors.New("unknown capture handle")

// StreamCapture collects a WAV byte stream in chunks (from an HTTP client or
// a recorder piped into stdin) and decodes it once the take is finalized.
type StreamCapture struct {
	mu    sync.Mutex
	takes map[uuid.UUID]*bytes.Buffer
}

func NewStreamCapture() *StreamCapture {
	return &StreamCapture{takes: make(map[uuid.UUID]*bytes.Buffer)}
}

func (c *StreamCapture) Begin() (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := uuid.New()
	c.takes[h] = new(bytes.Buffer)
	logrus.WithField("take", h).Debug("capture started")
	return h, nil
}

func (c *StreamCapture) OnData(h uuid.UUID, chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.takes[h]
	if !ok {
		return ErrUnknownHandle
	}
	buf.Write(chunk)
	return nil
}

func (c *StreamCapture) Finalize(h uuid.UUID) (*model.CapturedAudio, error) {
	c.mu.Lock()
	buf, ok := c.takes[h]
	delete(c.takes, h)
	c.mu.Unlock()
	if !ok {
		return nil, ErrUnknownHandle
	}

	data := buf.Bytes()
	repairSizes(data)
	a, err := DecodeBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "could not decode captured take")
	}
	a.ID = h
	return a, nil
}

func (c *StreamCapture) Abort(h uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.takes, h)
}

// Open reports how many takes are still being captured.
func (c *StreamCapture) Open() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.takes)
}

// repairSizes rewrites the RIFF and data chunk sizes to match what was
// actually received. Recorders that stream wav cannot know them up front.
func repairSizes(b []byte) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return
	}
	binary.LittleEndian.PutUint32(b[4:8], uint32(len(b)-8))

	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		if id == "data" {
			binary.LittleEndian.PutUint32(b[pos+4:pos+8], uint32(len(b)-pos-8))
			return
		}
		pos += 8 + size + size%2
	}
}
