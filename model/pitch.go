package model

// Accidental alteration, in semitones away from the natural step.
type Accidental int

const (
	AccNone Accidental = iota
	AccNatural
	AccSharp
	AccFlat
	AccDoubleSharp
	AccDoubleFlat
)

func (a Accidental) Alter() int {
	switch a {
	case AccSharp:
		return 1
	case AccFlat:
		return -1
	case AccDoubleSharp:
		return 2
	case AccDoubleFlat:
		return -2
	default:
		return 0
	}
}

// Pitch is a notated pitch. Letter is one of 'c' 'd' 'e' 'f' 'g' 'a' 'b'.
// Octave 0 is the octave containing middle C; before relative-pitch
// resolution it holds the explicit octave-marker count instead.
type Pitch struct {
	Letter byte
	Acc    Accidental
	Octave int
}

var diatonicSemitones = []int{0, 2, 4, 5, 7, 9, 11}

// Step returns the index of Letter in the c..b scale, or -1 when the
// letter class is not one of the 7 symbols.
func (p Pitch) Step() int {
	switch p.Letter {
	case 'c':
		return 0
	case 'd':
		return 1
	case 'e':
		return 2
	case 'f':
		return 3
	case 'g':
		return 4
	case 'a':
		return 5
	case 'b':
		return 6
	}
	return -1
}

// MidiKey maps a resolved pitch onto the MIDI keyboard (c0 == 60).
func (p Pitch) MidiKey() int {
	return 60 + p.Octave*12 + diatonicSemitones[p.Step()] + p.Acc.Alter()
}

// SamePlace reports whether two pitches occupy the same staff position,
// ignoring accidentals. Tie matching works on staff position.
func (p Pitch) SamePlace(o Pitch) bool {
	return p.Letter == o.Letter && p.Octave == o.Octave
}
