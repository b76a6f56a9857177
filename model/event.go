package model

type StemDirection int

const (
	StemNeutral StemDirection = iota
	StemUp
	StemDown
)

// Event is one entry in a voice's temporal stream.
type Event interface {
	event()
}

// Note is a single note or chord. Pitches is never empty; the first pitch
// is the one the relative-pitch environment advances on.
type Note struct {
	Pitches    []Pitch
	Dur        Duration
	Marks      []Mark
	Grace      bool
	TremoloDiv int // unmeasured tremolo on one note, 0 when absent
	Staff      int // cross-staff override, 0 means the voice's home staff
	Stem       StemDirection
}

type Rest struct {
	Dur         Duration
	Invisible   bool
	FullMeasure bool
	Position    *Pitch // staff placement of the rest glyph, optional
}

type Key struct {
	Fifths int
	Mode   string // major, minor
}

type TimeSig struct {
	Num int
	Den int
}

type Tempo struct {
	Unit int // beat division, e.g. 4 for quarter
	BPM  int
}

// ContextChange is a zero-duration event altering the running notation
// context of its voice. Nil fields leave the corresponding state untouched.
// Ottava is in signed octaves; an explicit 0 cancels the running span.
type ContextChange struct {
	Key    *Key
	Time   *TimeSig
	Clef   string
	Ottava *int
	Stem   *StemDirection
	Tempo  *Tempo
	Staff  int // 0 means no staff switch
}

// Tuplet wraps notes and rests played at Ratio (actual over normal, e.g.
// 3/2 for a triplet) of their written speed.
type Tuplet struct {
	Ratio  Fraction
	Events []Event // Note and Rest only
}

// Tremolo is the fingered (pitch-alternating) kind: GroupA and GroupB
// alternate Repeats times at the written Division.
type Tremolo struct {
	GroupA   []Pitch
	GroupB   []Pitch
	Repeats  int
	Division int
}

type Barline struct {
	Style string // double, final, repeatStart, repeatEnd, repeatBoth, dashed
}

type Harmony struct {
	Text string
}

// Annotation is free text anchored to the most recent note of the voice.
type Annotation struct {
	Text      string
	Placement string
}

// PitchReset restarts the relative-pitch environment of its voice.
type PitchReset struct{}

func (*Note) event()          {}
func (*Rest) event()          {}
func (*ContextChange) event() {}
func (*Tuplet) event()        {}
func (*Tremolo) event()       {}
func (*Barline) event()       {}
func (*Harmony) event()       {}
func (*Annotation) event()    {}
func (*PitchReset) event()    {}
