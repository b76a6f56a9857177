// Package midi renders a resolved document as a standard MIDI file, one
// track per (part, voice). Ties merge into single sounding notes; grace
// notes carry no time and are skipped.
package midi

import (
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/scorio/scorio/model"
)

const (
	ticksPerQuarter = 480
	ticksPerEighth  = ticksPerQuarter / 2
	velocity        = 80
)

type sounding struct {
	key   uint8
	start int
	end   int
}

type meta struct {
	tick int
	msg  smf.Message
}

// trackState walks one logical voice across all measures.
type trackState struct {
	cursor int
	notes  []sounding
	metas  []meta
	open   map[uint8]int // tied-forward keys -> index into notes
}

func Export(doc *model.Document) *smf.SMF {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	states := make(map[[2]int]*trackState)
	var order [][2]int
	activeTime := &model.TimeSig{Num: 4, Den: 4}
	for mi := range doc.Measures {
		m := &doc.Measures[mi]
		if m.Time != nil {
			activeTime = m.Time
		}
		for pi := range m.Parts {
			for vi := range m.Parts[pi].Voices {
				k := [2]int{pi, vi}
				st, ok := states[k]
				if !ok {
					st = &trackState{open: make(map[uint8]int)}
					states[k] = st
					order = append(order, k)
				}
				st.walk(m.Parts[pi].Voices[vi].Events, activeTime)
			}
		}
	}

	for _, k := range order {
		s.Add(states[k].track())
	}
	return s
}

func ticks(f model.Fraction) int {
	return f.Num * ticksPerEighth / f.Den
}

func (st *trackState) walk(events []model.Event, activeTime *model.TimeSig) {
	for _, ev := range events {
		switch t := ev.(type) {
		case *model.Note:
			if t.Grace {
				continue
			}
			st.addNote(t, ticks(t.Dur.Eighths()))
		case *model.Rest:
			if t.FullMeasure {
				st.cursor += ticks(model.NewFraction(8*activeTime.Num, activeTime.Den))
			} else {
				st.cursor += ticks(t.Dur.Eighths())
			}
		case *model.Tuplet:
			inverse := model.NewFraction(t.Ratio.Den, t.Ratio.Num)
			for _, inner := range t.Events {
				switch n := inner.(type) {
				case *model.Note:
					st.addNote(n, tupletTicks(n.Dur, inverse))
				case *model.Rest:
					st.cursor += tupletTicks(n.Dur, inverse)
				}
			}
		case *model.Tremolo:
			dur := ticks(model.Duration{Division: t.Division}.Eighths())
			for i := 0; i < t.Repeats; i++ {
				st.addGroup(t.GroupA, dur)
				st.addGroup(t.GroupB, dur)
			}
		case *model.ContextChange:
			if t.Tempo != nil {
				// scale to quarter-note beats per minute
				bpm := float64(t.Tempo.BPM) * 4 / float64(t.Tempo.Unit)
				st.metas = append(st.metas, meta{st.cursor, smf.MetaTempo(bpm)})
			}
			if t.Time != nil {
				st.metas = append(st.metas, meta{st.cursor, smf.MetaMeter(uint8(t.Time.Num), uint8(t.Time.Den))})
			}
		}
	}
}

// tupletTicks scales a written duration that does not already carry its
// tuplet ratio.
func tupletTicks(d model.Duration, inverse model.Fraction) int {
	if d.Ratio != nil {
		return ticks(d.Eighths())
	}
	return ticks(d.Eighths().Mul(inverse))
}

func (st *trackState) addNote(t *model.Note, dur int) {
	tieStart := false
	for _, m := range t.Marks {
		if tie, ok := m.(model.Tie); ok && tie.Start {
			tieStart = true
		}
	}
	nextOpen := make(map[uint8]int)
	for _, p := range t.Pitches {
		key := clampKey(p.MidiKey())
		if idx, tied := st.open[key]; tied {
			// tie continuation: extend, no new attack
			st.notes[idx].end = st.cursor + dur
			if tieStart {
				nextOpen[key] = idx
			}
			continue
		}
		st.notes = append(st.notes, sounding{key: key, start: st.cursor, end: st.cursor + dur})
		if tieStart {
			nextOpen[key] = len(st.notes) - 1
		}
	}
	st.open = nextOpen
	st.cursor += dur
}

func (st *trackState) addGroup(pitches []model.Pitch, dur int) {
	for _, p := range pitches {
		key := clampKey(p.MidiKey())
		st.notes = append(st.notes, sounding{key: key, start: st.cursor, end: st.cursor + dur})
	}
	st.open = map[uint8]int{}
	st.cursor += dur
}

func clampKey(key int) uint8 {
	if key < 0 {
		return 0
	}
	if key > 127 {
		return 127
	}
	return uint8(key)
}

type rawEvent struct {
	tick int
	off  bool
	msg  smf.Message
}

// track flattens the sounding notes into a delta-encoded track. At equal
// ticks note-offs sort first so repeated pitches re-attack cleanly.
func (st *trackState) track() smf.Track {
	var raw []rawEvent
	for _, m := range st.metas {
		raw = append(raw, rawEvent{tick: m.tick, msg: m.msg})
	}
	for _, n := range st.notes {
		raw = append(raw, rawEvent{tick: n.start, msg: smf.Message(gomidi.NoteOn(0, n.key, velocity))})
		raw = append(raw, rawEvent{tick: n.end, off: true, msg: smf.Message(gomidi.NoteOff(0, n.key))})
	}
	sort.SliceStable(raw, func(i, j int) bool {
		if raw[i].tick != raw[j].tick {
			return raw[i].tick < raw[j].tick
		}
		return raw[i].off && !raw[j].off
	})

	var tr smf.Track
	last := 0
	for _, ev := range raw {
		tr.Add(uint32(ev.tick-last), ev.msg)
		last = ev.tick
	}
	tr.Close(0)
	return tr
}
