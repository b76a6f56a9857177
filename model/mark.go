package model

// Mark is an attachment on a note: articulations, ornaments, dynamics and
// the span marks (tie, slur, beam, hairpin). Span marks carry a Start flag;
// a start and a later stop of the same kind in the same voice form a
// matched pair and may straddle measure boundaries.
type Mark interface {
	mark()
}

type Articulation struct {
	Name string // staccato, accent, tenuto, marcato, staccatissimo, portato, stopped
}

type Ornament struct {
	Name string // trill, mordent, turn
}

type Dynamic struct {
	Name string // p, pp, ppp, f, ff, fff, mp, mf, sfz
}

// Hairpin start carries the direction; the stop mark is direction-less and
// is reconciled against the pending span (the source notation has a single
// generic hairpin terminator).
type Hairpin struct {
	Cresc bool
	Start bool
}

type Tie struct {
	Start bool
}

type Slur struct {
	Start bool
}

type Beam struct {
	Start bool
}

type Pedal struct {
	Down bool
}

type Fingering struct {
	Digit int
}

type Navigation struct {
	Kind string // segno, coda, fine
}

// TextMark is free text attached to a note.
type TextMark struct {
	Text      string
	Placement string // above, below
}

func (Articulation) mark() {}
func (Ornament) mark()     {}
func (Dynamic) mark()      {}
func (Hairpin) mark()      {}
func (Tie) mark()          {}
func (Slur) mark()         {}
func (Beam) mark()         {}
func (Pedal) mark()        {}
func (Fingering) mark()    {}
func (Navigation) mark()   {}
func (TextMark) mark()     {}
