package midi

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var sharpNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// NoteName spells key with sharps, middle C being "C4".
func NoteName(key uint8) string {
	octave := int(key)/12 - 1
	return sharpNames[int(key)%12] + strconv.Itoa(octave)
}

// ParseNoteName is the inverse of NoteName. Flats ("Bb3") are accepted too.
func ParseNoteName(name string) (int, error) {
	if len(name) < 2 {
		return 0, errors.Errorf("invalid note name %q", name)
	}
	upper := strings.ToUpper(name[:1]) + name[1:]
	offset, ok := letterOffsets[upper[0]]
	if !ok {
		return 0, errors.Errorf("invalid note letter in %q", name)
	}

	i := 1
	for ; i < len(upper); i++ {
		switch upper[i] {
		case '#':
			offset++
			continue
		case 'b':
			offset--
			continue
		}
		break
	}

	octave, err := strconv.Atoi(upper[i:])
	if err != nil {
		return 0, errors.Wrapf(err, "invalid octave in %q", name)
	}
	return (octave+1)*12 + offset, nil
}
