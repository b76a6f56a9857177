// Package relpitch turns interval-only pitch encodings into absolute
// octaves, following the nearest-fourth relative-pitch convention: each
// pitch lands within a fourth of the previous one, then explicit octave
// markers shift it from there.
package relpitch

import (
	"github.com/pkg/errors"

	"github.com/scorio/scorio/model"
)

type env struct {
	step   int
	octave int
}

type voiceKey struct {
	part  int
	voice int
}

// Resolve rewrites every pitch's Octave field in place from explicit
// marker count to absolute octave. An unresolvable letter class aborts
// the whole document; it signals a malformed upstream parse.
func Resolve(doc *model.Document) error {
	envs := make(map[voiceKey]*env)
	for mi := range doc.Measures {
		m := &doc.Measures[mi]
		for pi := range m.Parts {
			for vi := range m.Parts[pi].Voices {
				k := voiceKey{pi, vi}
				e, ok := envs[k]
				if !ok {
					e = &env{}
					envs[k] = e
				}
				if err := resolveEvents(m.Parts[pi].Voices[vi].Events, e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func resolveEvents(events []model.Event, e *env) error {
	for _, ev := range events {
		switch t := ev.(type) {
		case *model.Note:
			if err := resolveChord(t.Pitches, e); err != nil {
				return err
			}
		case *model.Rest:
			// a positioned rest moves the environment without sounding
			if t.Position != nil {
				if err := resolvePitch(t.Position, e); err != nil {
					return err
				}
			}
		case *model.Tuplet:
			if err := resolveEvents(t.Events, e); err != nil {
				return err
			}
		case *model.Tremolo:
			if err := resolveChord(t.GroupA, e); err != nil {
				return err
			}
			if err := resolveChord(t.GroupB, e); err != nil {
				return err
			}
		case *model.PitchReset:
			*e = env{}
		}
	}
	return nil
}

// resolveChord resolves the first pitch against the running voice
// environment and every later pitch against a chord-local environment
// seeded at the first pitch's result. Only the first pitch advances the
// voice environment.
func resolveChord(pitches []model.Pitch, e *env) error {
	if len(pitches) == 0 {
		return nil
	}
	if err := resolvePitch(&pitches[0], e); err != nil {
		return err
	}
	chordEnv := *e
	for i := 1; i < len(pitches); i++ {
		if err := resolvePitch(&pitches[i], &chordEnv); err != nil {
			return err
		}
	}
	return nil
}

func resolvePitch(p *model.Pitch, e *env) error {
	step := p.Step()
	if step < 0 {
		return errors.Errorf("unresolvable letter class %q", string(p.Letter))
	}
	interval := step - e.step
	octave := e.octave + p.Octave + octaveShift(interval)
	p.Octave = octave
	*e = env{step: step, octave: octave}
	return nil
}

// octaveShift picks whichever octave keeps the interval within a fourth.
func octaveShift(interval int) int {
	if interval < 0 {
		return (-interval) / 4
	}
	return -(interval / 4)
}
