package audio

import "encoding/binary"

// Preroll holds a live WAV stream until the take starts. Take keeps the
// stream's header and drops the audio recorded before that point.
type Preroll struct {
	buf []byte
}

func (p *Preroll) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	return len(b), nil
}

// Take returns the bytes to hand to the capture when recording begins and
// empties the preroll. A stream whose header cannot be read is passed
// through untouched.
func (p *Preroll) Take() []byte {
	b := p.buf
	p.buf = nil

	headerEnd, align := scanHeader(b)
	if headerEnd < 0 || align <= 0 {
		return b
	}
	partial := (len(b) - headerEnd) % align
	res := make([]byte, 0, headerEnd+partial)
	res = append(res, b[:headerEnd]...)
	return append(res, b[len(b)-partial:]...)
}

// scanHeader finds where the sample data starts and the frame size.
func scanHeader(b []byte) (int, int) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return -1, 0
	}
	align := 0
	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		switch id {
		case "fmt ":
			if pos+22 <= len(b) {
				align = int(binary.LittleEndian.Uint16(b[pos+20 : pos+22]))
			}
		case "data":
			return pos + 8, align
		}
		pos += 8 + size + size%2
	}
	return -1, 0
}
