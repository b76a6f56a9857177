package mei

import (
	"strings"

	"github.com/subchen/go-xmldom"

	"github.com/scorio/scorio/model"
)

// layerCtx tracks where events land inside one layer: either the layer
// (or tuplet) node itself, or an open beam container within it.
type layerCtx struct {
	base *xmldom.Node
	beam *xmldom.Node
}

func (c *layerCtx) parent() *xmldom.Node {
	if c.beam != nil {
		return c.beam
	}
	return c.base
}

func (e *encoder) encodeLayer(layer *xmldom.Node, events []model.Event, st *voiceState, homeStaff, pi int) {
	ctx := &layerCtx{base: layer}
	for _, ev := range events {
		e.encodeEvent(ctx, ev, st, homeStaff, pi)
	}
}

func (e *encoder) encodeEvent(ctx *layerCtx, ev model.Event, st *voiceState, homeStaff, pi int) {
	switch t := ev.(type) {
	case *model.Note:
		e.encodeNote(ctx, t, st, homeStaff, pi)
	case *model.Rest:
		e.encodeRest(ctx.parent(), t)
	case *model.Tuplet:
		e.encodeTuplet(ctx, t, st, homeStaff, pi)
	case *model.Tremolo:
		e.encodeTremolo(ctx.parent(), t, st)
	case *model.ContextChange:
		e.encodeContext(ctx, t, st, homeStaff, pi)
	case *model.Barline:
		if style, ok := barlines[t.Style]; ok {
			e.measureRight = style
		}
	case *model.Harmony:
		// anchored to the last emitted note; dropped when none exists yet
		if st.lastNoteID != "" {
			e.addControl(control{
				name:  "harm",
				text:  t.Text,
				attrs: [][2]string{{"startid", "#" + st.lastNoteID}},
			})
		}
	case *model.Annotation:
		if st.lastNoteID != "" {
			attrs := [][2]string{{"startid", "#" + st.lastNoteID}}
			if t.Placement != "" {
				attrs = append(attrs, [2]string{"place", t.Placement})
			}
			e.addControl(control{name: "dir", text: t.Text, attrs: attrs})
		}
	case *model.PitchReset:
		// notation-source artifact, nothing to emit
	}
}

func beamFlags(marks []model.Mark) (start, stop bool) {
	for _, m := range marks {
		if b, ok := m.(model.Beam); ok {
			if b.Start {
				start = true
			} else {
				stop = true
			}
		}
	}
	return
}

func (e *encoder) encodeNote(ctx *layerCtx, t *model.Note, st *voiceState, homeStaff, pi int) {
	beamStart, beamStop := beamFlags(t.Marks)
	if beamStart && ctx.beam == nil {
		b := ctx.base.CreateNode("beam")
		b.SetAttributeValue("xml:id", e.ids.next("beam"))
		ctx.beam = b
	}
	parent := ctx.parent()

	// tie state: terminal when the pitch set matches the pending set,
	// initial when this note opens a new tie, medial when both hold
	tieStart := false
	for _, m := range t.Marks {
		if tie, ok := m.(model.Tie); ok && tie.Start {
			tieStart = true
		}
	}
	terminal := samePitchSet(st.pendingTies, t.Pitches)
	tieVal := ""
	switch {
	case terminal && tieStart:
		tieVal = "m"
	case terminal:
		tieVal = "t"
	case tieStart:
		tieVal = "i"
	}

	if t.TremoloDiv > 0 {
		wrap := parent.CreateNode("bTrem")
		wrap.SetAttributeValue("xml:id", e.ids.next("btrem"))
		parent = wrap
	}

	id, el := e.emitGroup(parent, t.Pitches, t.Dur.Division, t.Dur.Dots, tieVal, st)
	if t.Grace {
		el.SetAttributeValue("grace", "acc")
	}
	if t.TremoloDiv > 0 {
		if strokes := log2i(t.TremoloDiv) - 2; strokes >= 1 {
			el.SetAttributeValue("stem.mod", itoa(strokes)+"slash")
		}
	}
	stem := t.Stem
	if stem == model.StemNeutral {
		stem = st.stem
	}
	if dir := stemDirValue(stem); dir != "" {
		el.SetAttributeValue("stem.dir", dir)
	}
	if staff := e.noteStaff(t, st, homeStaff, pi); staff != homeStaff {
		el.SetAttributeValue("staff", itoa(staff))
	}

	e.encodeMarks(el, t.Marks, id, st)

	if tieStart {
		st.pendingTies = append([]model.Pitch(nil), t.Pitches...)
	} else {
		st.pendingTies = nil
	}
	if beamStop {
		ctx.beam = nil
	}
}

// noteStaff resolves cross-staff placement: a per-note override wins over
// a running context staff switch, which wins over the home staff.
func (e *encoder) noteStaff(t *model.Note, st *voiceState, homeStaff, pi int) int {
	if t.Staff > 0 && pi < len(e.staffBase) {
		return e.staffBase[pi] + t.Staff
	}
	if st.staffSwitch > 0 {
		return st.staffSwitch
	}
	return homeStaff
}

// emitGroup writes one note or chord element with written pitches, which
// under an active octave shift sit displaced from the sounding ones (the
// sounding octave is kept on oct.ges). Returns the anchoring id.
func (e *encoder) emitGroup(parent *xmldom.Node, pitches []model.Pitch, division, dots int, tieVal string, st *voiceState) (string, *xmldom.Node) {
	kind := "note"
	if len(pitches) > 1 {
		kind = "chord"
	}
	el := parent.CreateNode(kind)
	id := e.ids.next(kind)
	el.SetAttributeValue("xml:id", id)
	el.SetAttributeValue("dur", itoa(nearestDivision(division)))
	if dots > 0 {
		el.SetAttributeValue("dots", itoa(dots))
	}

	if len(pitches) == 1 {
		e.pitchAttrs(el, pitches[0], tieVal, st.shift)
	} else {
		for _, p := range pitches {
			child := el.CreateNode("note")
			child.SetAttributeValue("xml:id", e.ids.next("note"))
			e.pitchAttrs(child, p, tieVal, st.shift)
		}
	}

	if st.ottava != nil && st.ottava.startID == "" {
		st.ottava.startID = id
	}
	st.lastNoteID = id
	return id, el
}

func (e *encoder) pitchAttrs(el *xmldom.Node, p model.Pitch, tieVal string, shift int) {
	el.SetAttributeValue("pname", string(p.Letter))
	el.SetAttributeValue("oct", itoa(meiOctave(p.Octave-shift)))
	if shift != 0 {
		el.SetAttributeValue("oct.ges", itoa(meiOctave(p.Octave)))
	}
	if acc, ok := accidentals[p.Acc]; ok {
		el.SetAttributeValue("accid", acc)
	}
	if tieVal != "" {
		el.SetAttributeValue("tie", tieVal)
	}
}

// encodeMarks turns the remaining marks into note attributes and control
// elements. Unknown table keys are dropped, never fatal.
func (e *encoder) encodeMarks(el *xmldom.Node, marks []model.Mark, id string, st *voiceState) {
	var artics []string
	anchor := [2]string{"startid", "#" + id}
	for _, m := range marks {
		switch t := m.(type) {
		case model.Articulation:
			if v, ok := articulations[t.Name]; ok {
				artics = append(artics, v)
			}
		case model.Ornament:
			if name, ok := ornaments[t.Name]; ok {
				e.addControl(control{name: name, attrs: [][2]string{anchor}})
			}
		case model.Dynamic:
			if dynamics[t.Name] {
				e.addControl(control{name: "dynam", text: t.Name, attrs: [][2]string{anchor}})
			}
		case model.Hairpin:
			if t.Start {
				st.hairpin = &pendingHairpin{cresc: t.Cresc, startID: id}
			} else if st.hairpin != nil {
				form := "dim"
				if st.hairpin.cresc {
					form = "cres"
				}
				e.addControl(control{name: "hairpin", attrs: [][2]string{
					{"form", form},
					{"startid", "#" + st.hairpin.startID},
					{"endid", "#" + id},
				}})
				st.hairpin = nil
			}
		case model.Slur:
			if t.Start {
				st.slurStartID = id
			} else if st.slurStartID != "" {
				e.addControl(control{name: "slur", attrs: [][2]string{
					{"startid", "#" + st.slurStartID},
					{"endid", "#" + id},
				}})
				st.slurStartID = ""
			}
		case model.Pedal:
			dir := "up"
			if t.Down {
				dir = "down"
			}
			e.addControl(control{name: "pedal", attrs: [][2]string{
				{"dir", dir}, anchor,
			}})
		case model.Fingering:
			e.addControl(control{name: "fing", text: itoa(t.Digit), attrs: [][2]string{anchor}})
		case model.Navigation:
			if word, ok := navigationWords[t.Kind]; ok {
				e.addControl(control{name: "dir", text: word, attrs: [][2]string{anchor}})
			}
		case model.TextMark:
			attrs := [][2]string{anchor}
			if t.Placement != "" {
				attrs = append(attrs, [2]string{"place", t.Placement})
			}
			e.addControl(control{name: "dir", text: t.Text, attrs: attrs})
		}
	}
	if len(artics) > 0 {
		el.SetAttributeValue("artic", strings.Join(artics, " "))
	}
}

func (e *encoder) encodeRest(parent *xmldom.Node, t *model.Rest) {
	switch {
	case t.FullMeasure:
		el := parent.CreateNode("mRest")
		el.SetAttributeValue("xml:id", e.ids.next("mrest"))
	case t.Invisible:
		el := parent.CreateNode("space")
		el.SetAttributeValue("xml:id", e.ids.next("space"))
		el.SetAttributeValue("dur", itoa(nearestDivision(t.Dur.Division)))
		if t.Dur.Dots > 0 {
			el.SetAttributeValue("dots", itoa(t.Dur.Dots))
		}
	default:
		el := parent.CreateNode("rest")
		el.SetAttributeValue("xml:id", e.ids.next("rest"))
		el.SetAttributeValue("dur", itoa(nearestDivision(t.Dur.Division)))
		if t.Dur.Dots > 0 {
			el.SetAttributeValue("dots", itoa(t.Dur.Dots))
		}
		if t.Position != nil {
			el.SetAttributeValue("ploc", string(t.Position.Letter))
			el.SetAttributeValue("oloc", itoa(meiOctave(t.Position.Octave)))
		}
	}
}

func (e *encoder) encodeTuplet(ctx *layerCtx, t *model.Tuplet, st *voiceState, homeStaff, pi int) {
	// A beam run may enter or leave through the tuplet's boundary notes.
	// Such runs belong to the layer: the container opens and closes on the
	// outer ctx, and the boundary flags must not spawn a second container
	// inside the tuplet. A beam lying strictly inside stays tuplet-local.
	startHere, stopHere := tupletBoundaryBeams(t)
	spanned := ctx.beam != nil || startHere
	if startHere && ctx.beam == nil {
		b := ctx.base.CreateNode("beam")
		b.SetAttributeValue("xml:id", e.ids.next("beam"))
		ctx.beam = b
	}

	node := ctx.parent().CreateNode("tuplet")
	node.SetAttributeValue("xml:id", e.ids.next("tuplet"))
	node.SetAttributeValue("num", itoa(t.Ratio.Num))
	node.SetAttributeValue("numbase", itoa(t.Ratio.Den))
	inner := &layerCtx{base: node}
	if spanned {
		inner.beam = node
	}
	for _, ev := range t.Events {
		e.encodeEvent(inner, ev, st, homeStaff, pi)
	}
	if spanned && stopHere {
		ctx.beam = nil
	}
}

// tupletBoundaryBeams reports whether the tuplet's first note opens a beam
// and whether its last note closes one.
func tupletBoundaryBeams(t *model.Tuplet) (start, stop bool) {
	var first, last *model.Note
	for _, ev := range t.Events {
		if n, ok := ev.(*model.Note); ok {
			if first == nil {
				first = n
			}
			last = n
		}
	}
	if first != nil {
		start, _ = beamFlags(first.Marks)
	}
	if last != nil {
		_, stop = beamFlags(last.Marks)
	}
	return
}

// encodeTremolo writes the fingered (pitch-alternating) tremolo: stroke
// count from the written division, each group's apparent duration from
// division over repeat count.
func (e *encoder) encodeTremolo(parent *xmldom.Node, t *model.Tremolo, st *voiceState) {
	node := parent.CreateNode("fTrem")
	node.SetAttributeValue("xml:id", e.ids.next("ftrem"))
	if strokes := log2i(t.Division) - 2; strokes >= 1 {
		node.SetAttributeValue("beams", itoa(strokes))
	}
	written := 4
	if t.Repeats > 0 {
		written = nearestDivision(t.Division / t.Repeats)
	}
	e.emitGroup(node, t.GroupA, written, 0, "", st)
	e.emitGroup(node, t.GroupB, written, 0, "", st)
}

func (e *encoder) encodeContext(ctx *layerCtx, t *model.ContextChange, st *voiceState, homeStaff, pi int) {
	if t.Clef != "" {
		staff := homeStaff
		if st.staffSwitch > 0 {
			staff = st.staffSwitch
		}
		if def, ok := clefs[t.Clef]; ok && def != e.activeClefs[staff] {
			el := ctx.parent().CreateNode("clef")
			el.SetAttributeValue("xml:id", e.ids.next("clef"))
			el.SetAttributeValue("shape", def.Shape)
			el.SetAttributeValue("line", itoa(def.Line))
			e.activeClefs[staff] = def
		}
	}
	if t.Key != nil {
		e.activeKey = t.Key
	}
	if t.Time != nil {
		e.activeTime = t.Time
	}
	if t.Ottava != nil {
		e.applyOttava(st, *t.Ottava)
	}
	if t.Stem != nil {
		st.stem = *t.Stem
	}
	if t.Tempo != nil {
		e.addControl(control{name: "tempo", attrs: [][2]string{
			{"tstamp", "1"},
			{"mm", itoa(t.Tempo.BPM)},
			{"mm.unit", itoa(t.Tempo.Unit)},
		}})
	}
	if t.Staff > 0 && pi < len(e.staffBase) {
		global := e.staffBase[pi] + t.Staff
		if global == homeStaff {
			st.staffSwitch = 0
		} else {
			st.staffSwitch = global
		}
	}
}

func samePitchSet(pending, pitches []model.Pitch) bool {
	if len(pending) == 0 || len(pending) != len(pitches) {
		return false
	}
	used := make([]bool, len(pitches))
outer:
	for _, p := range pending {
		for i, q := range pitches {
			if !used[i] && p.SamePlace(q) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func log2i(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}
