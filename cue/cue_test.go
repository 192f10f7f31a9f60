package cue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"
)

type recorder struct {
	mu   sync.Mutex
	msgs []gomidi.Message
}

func (r *recorder) send(msg gomidi.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) at(i int) gomidi.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgs[i]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestClickIsWoodblockOnDrumChannel(t *testing.T) {
	r := &recorder{}
	NewMIDI(r.send).Click()

	var ch, key, vel uint8
	assert := assert.New(t)
	assert.True(r.at(0).GetNoteStart(&ch, &key, &vel))
	assert.Equal(uint8(9), ch)
	assert.Equal(uint8(76), key)

	assert.Eventually(func() bool { return r.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(r.at(1).GetNoteEnd(&ch, &key))
}

func TestPitchSendsMelodyNote(t *testing.T) {
	r := &recorder{}
	m := NewMIDI(r.send)
	m.Pitch("A4", 10)

	var ch, key, vel uint8
	assert := assert.New(t)
	assert.True(r.at(0).GetNoteStart(&ch, &key, &vel))
	assert.Equal(uint8(0), ch)
	assert.Equal(uint8(69), key)

	// silencing cancels the scheduled note-off and sends all-notes-off instead
	m.Silence()
	assert.Equal(17, r.count())
}

func TestPitchIgnoresUnknownNames(t *testing.T) {
	r := &recorder{}
	NewMIDI(r.send).Pitch("not a note", 1)
	assert.Equal(t, 0, r.count())
}

type counting struct{ clicks, pitches int }

func (c *counting) Click()                { c.clicks++ }
func (c *counting) Pitch(string, float64) { c.pitches++ }

func TestTee(t *testing.T) {
	a, b := &counting{}, &counting{}
	tee := Tee{a, b, Log{}}
	tee.Click()
	tee.Click()
	tee.Pitch("C4", 0.5)

	assert := assert.New(t)
	assert.Equal(2, a.clicks)
	assert.Equal(2, b.clicks)
	assert.Equal(1, b.pitches)
}
