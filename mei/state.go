package mei

import (
	"github.com/scorio/scorio/model"
)

// voiceKey identifies one layer: global staff number plus layer ordinal.
// Span state is threaded per key across the whole measure loop.
type voiceKey struct {
	staff int
	voice int
}

type pendingHairpin struct {
	cresc   bool
	startID string
}

// pendingOttava is an octave-shift span that has started but not closed.
// startID stays empty until the first note under the span is emitted.
type pendingOttava struct {
	dis     int // 8 or 15
	place   string
	startID string
	shift   int // signed octaves
}

type voiceState struct {
	pendingTies []model.Pitch
	slurStartID string
	hairpin     *pendingHairpin
	ottava      *pendingOttava
	shift       int // active written-pitch displacement, signed octaves
	stem        model.StemDirection
	staffSwitch int // global staff from a context staff change, 0 = home
	lastNoteID  string
}

func (e *encoder) state(k voiceKey) *voiceState {
	st, ok := e.states[k]
	if !ok {
		st = &voiceState{}
		e.states[k] = st
	}
	return st
}

// applyOttava runs the octave-shift transitions: an identical shift
// continues the pending span, a differing one closes it at the last note
// and opens a fresh span at the next note, zero closes outright.
func (e *encoder) applyOttava(st *voiceState, shift int) {
	switch {
	case shift == 0:
		e.closeOttava(st)
		st.shift = 0
	case st.ottava != nil && st.ottava.shift == shift:
		st.shift = shift
	default:
		e.closeOttava(st)
		e.openOttava(st, shift)
	}
}

func (e *encoder) openOttava(st *voiceState, shift int) {
	mag := shift
	if mag < 0 {
		mag = -mag
	}
	dis := 8
	if mag >= 2 {
		dis = 15
	}
	place := "above"
	if shift < 0 {
		place = "below"
	}
	st.ottava = &pendingOttava{dis: dis, place: place, shift: shift}
	st.shift = shift
}

// closeOttava emits the octave control element against the last emitted
// note. A span that never covered a note is dropped silently.
func (e *encoder) closeOttava(st *voiceState) {
	o := st.ottava
	st.ottava = nil
	if o == nil || o.startID == "" || st.lastNoteID == "" {
		return
	}
	e.addControl(control{
		name: "octave",
		attrs: [][2]string{
			{"dis", itoa(o.dis)},
			{"dis.place", o.place},
			{"startid", "#" + o.startID},
			{"endid", "#" + st.lastNoteID},
		},
	})
}

// control is a buffered measure-level element referencing notes by id.
// Controls are flushed after the measure's staves so references never
// point forward.
type control struct {
	name  string
	text  string
	attrs [][2]string
}

func (e *encoder) addControl(c control) {
	e.controls = append(e.controls, c)
}

func (e *encoder) flushControls() {
	for _, c := range e.controls {
		n := e.curMeasure.CreateNode(c.name)
		n.SetAttributeValue("xml:id", e.ids.next(c.name))
		for _, a := range c.attrs {
			n.SetAttributeValue(a[0], a[1])
		}
		if c.text != "" {
			n.Text = c.text
		}
	}
	e.controls = e.controls[:0]
}
