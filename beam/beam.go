// Package beam computes automatic beam groupings from the active time
// signature and attaches paired beam marks to qualifying note runs.
//
// The pass mutates note marks in place and is not idempotent: marks
// accumulate, so callers invoke it at most once per encode.
package beam

import (
	"github.com/pkg/errors"

	"github.com/scorio/scorio/model"
)

type Mode int

const (
	Off Mode = iota
	On
	Auto
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "off":
		return Off, nil
	case "on":
		return On, nil
	case "auto", "":
		return Auto, nil
	}
	return Off, errors.Errorf("unknown beam mode %q", s)
}

// Apply adds beam start/stop pairs to the document. Off is a no-op, On
// always computes groupings (even over manual beams), Auto computes only
// when no note anywhere already carries a beam mark.
func Apply(doc *model.Document, mode Mode) {
	switch mode {
	case Off:
		return
	case Auto:
		if hasBeamMarks(doc) {
			return
		}
	}

	active := &model.TimeSig{Num: 4, Den: 4}
	for mi := range doc.Measures {
		m := &doc.Measures[mi]
		if m.Time != nil {
			active = m.Time
		}
		bounds := groupBounds(groups(active))
		for pi := range m.Parts {
			for vi := range m.Parts[pi].Voices {
				beamVoice(m.Parts[pi].Voices[vi].Events, bounds)
			}
		}
	}
}

func hasBeamMarks(doc *model.Document) bool {
	for mi := range doc.Measures {
		for _, p := range doc.Measures[mi].Parts {
			for _, v := range p.Voices {
				if eventsHaveBeams(v.Events) {
					return true
				}
			}
		}
	}
	return false
}

func eventsHaveBeams(events []model.Event) bool {
	for _, ev := range events {
		switch t := ev.(type) {
		case *model.Note:
			if noteHasBeam(t) {
				return true
			}
		case *model.Tuplet:
			if eventsHaveBeams(t.Events) {
				return true
			}
		}
	}
	return false
}

func noteHasBeam(n *model.Note) bool {
	for _, m := range n.Marks {
		if _, ok := m.(model.Beam); ok {
			return true
		}
	}
	return false
}

// groups returns the beam group sizes of a meter, in eighth-note units.
func groups(ts *model.TimeSig) []model.Fraction {
	eighth := func(n int) model.Fraction { return model.NewFraction(n, 1) }
	switch {
	case ts.Num == 3 && ts.Den == 8:
		return []model.Fraction{eighth(3)}
	case ts.Num == 2 && ts.Den == 4:
		return []model.Fraction{eighth(2), eighth(2)}
	case ts.Num == 3 && ts.Den == 4:
		return []model.Fraction{eighth(3), eighth(3)}
	case ts.Num == 4 && ts.Den == 4, ts.Num == 2 && ts.Den == 2:
		return []model.Fraction{eighth(4), eighth(4)}
	case ts.Den == 8 && ts.Num > 3 && ts.Num%3 == 0:
		res := make([]model.Fraction, ts.Num/3)
		for i := range res {
			res[i] = eighth(3)
		}
		return res
	case ts.Den == 1 || ts.Den == 2 || ts.Den == 4 || ts.Den == 8 || ts.Den == 16:
		res := make([]model.Fraction, ts.Num)
		for i := range res {
			res[i] = model.NewFraction(8, ts.Den)
		}
		return res
	default:
		// one group spanning the whole measure
		return []model.Fraction{model.NewFraction(8*ts.Num, ts.Den)}
	}
}

// groupBounds turns group sizes into cumulative boundaries starting at 0.
func groupBounds(gs []model.Fraction) []model.Fraction {
	bounds := make([]model.Fraction, len(gs)+1)
	bounds[0] = model.Fraction{Num: 0, Den: 1}
	for i, g := range gs {
		bounds[i+1] = bounds[i].Add(g)
	}
	return bounds
}

// groupAt returns the index of the group fully containing [start, end],
// or -1 when the interval crosses a boundary or lies outside the measure.
func groupAt(bounds []model.Fraction, start, end model.Fraction) int {
	for i := 0; i+1 < len(bounds); i++ {
		if start.Cmp(bounds[i]) >= 0 && end.Cmp(bounds[i+1]) <= 0 {
			return i
		}
	}
	return -1
}

// run is an open candidate beam group. Tuplets contribute their boundary
// notes but count as a single unit.
type run struct {
	units int
	first *model.Note
	last  *model.Note
	group int
}

func (r *run) add(first, last *model.Note, group int) {
	if r.units == 0 {
		r.first = first
		r.group = group
	}
	r.last = last
	r.units++
}

func (r *run) flush() {
	if r.units >= 2 {
		r.first.Marks = append(r.first.Marks, model.Beam{Start: true})
		r.last.Marks = append(r.last.Marks, model.Beam{Start: false})
	}
	*r = run{}
}

func beamVoice(events []model.Event, bounds []model.Fraction) {
	pos := model.Fraction{Num: 0, Den: 1}
	var r run
	for _, ev := range events {
		switch t := ev.(type) {
		case *model.Note:
			if t.Grace {
				// zero width, but breaks any open run
				r.flush()
				continue
			}
			end := pos.Add(t.Dur.Eighths())
			if t.Dur.Division >= 8 {
				g := groupAt(bounds, pos, end)
				if g < 0 || (r.units > 0 && g != r.group) {
					r.flush()
				}
				if g >= 0 {
					r.add(t, t, g)
				}
			} else {
				r.flush()
			}
			pos = end
		case *model.Rest:
			r.flush()
			pos = pos.Add(t.Dur.Eighths())
		case *model.Tuplet:
			pos = beamTuplet(t, pos, bounds, &r)
		case *model.Tremolo:
			r.flush()
			dur := model.Duration{Division: t.Division}
			for i := 0; i < t.Repeats*2; i++ {
				pos = pos.Add(dur.Eighths())
			}
		default:
			// context, harmony, annotations and pitch resets neither
			// advance position nor interrupt an open run
		}
	}
	r.flush()
}

// writtenEighths is the notated length without any tuplet scaling; the
// tuplet's own ratio is applied once over the summed body.
func writtenEighths(d model.Duration) model.Fraction {
	return model.Duration{Division: d.Division, Dots: d.Dots}.Eighths()
}

// beamTuplet treats an all-eligible tuplet as one beam unit scaled by its
// ratio. Any internal rest, grace or shorter note makes it ineligible, as
// does a manual beam mark (the tuplet then manages its own beam group).
func beamTuplet(t *model.Tuplet, pos model.Fraction, bounds []model.Fraction, r *run) model.Fraction {
	length := model.Fraction{Num: 0, Den: 1}
	eligible := true
	var first, last *model.Note
	for _, ev := range t.Events {
		switch inner := ev.(type) {
		case *model.Note:
			length = length.Add(writtenEighths(inner.Dur))
			if inner.Grace || inner.Dur.Division < 8 || noteHasBeam(inner) {
				eligible = false
			}
			if first == nil {
				first = inner
			}
			last = inner
		case *model.Rest:
			length = length.Add(writtenEighths(inner.Dur))
			eligible = false
		}
	}
	if !t.Ratio.IsZero() {
		length = length.Mul(model.Fraction{Num: t.Ratio.Den, Den: t.Ratio.Num})
	}
	end := pos.Add(length)

	if !eligible || first == nil {
		r.flush()
		return end
	}
	g := groupAt(bounds, pos, end)
	if g < 0 || (r.units > 0 && g != r.group) {
		r.flush()
	}
	if g >= 0 {
		r.add(first, last, g)
	}
	return end
}
