// Package notation decodes the compact source grammar into a raw
// document. Pitches come out carrying explicit octave-marker counts only;
// callers run relpitch.Resolve before handing the document on.
package notation

import (
	"github.com/pkg/errors"

	"github.com/scorio/scorio/model"
)

func Parse(src string) (*model.Document, error) {
	p := &parser{r: newReader(src)}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.assemble(), nil
}

type rawVoice struct {
	staff    int
	measures [][]model.Event
}

type rawPart struct {
	name   string
	voices []rawVoice
}

type parser struct {
	r       *sReader
	meta    model.Metadata
	parts   []rawPart
	partial bool
}

func (p *parser) errf(format string, args ...interface{}) error {
	return errors.Errorf("line %d: "+format, append([]interface{}{p.r.line}, args...)...)
}

func (p *parser) run() error {
	for {
		p.r.SkipSpace()
		c := p.r.Next()
		switch {
		case c == eof:
			return nil
		case c == '\\':
			w := p.r.Word()
			if err := p.topCommand(w); err != nil {
				return err
			}
		case c == '{':
			voices, err := p.parseMusic()
			if err != nil {
				return err
			}
			p.parts = append(p.parts, rawPart{voices: voices})
		default:
			return p.errf("unexpected %q at top level", string(c))
		}
	}
}

func (p *parser) topCommand(w string) error {
	switch w {
	case "title":
		s, err := p.quoted()
		if err != nil {
			return err
		}
		p.meta.Title = s
	case "composer":
		s, err := p.quoted()
		if err != nil {
			return err
		}
		p.meta.Composer = s
	case "partial":
		p.r.SkipSpace()
		if _, ok := p.r.Int(); !ok {
			return p.errf("\\partial needs a duration")
		}
		p.r.Eat('.')
		p.partial = true
	case "part":
		name, err := p.quoted()
		if err != nil {
			return err
		}
		p.r.SkipSpace()
		if p.r.Next() != '{' {
			return p.errf("expected { after \\part")
		}
		voices, err := p.parseMusic()
		if err != nil {
			return err
		}
		p.parts = append(p.parts, rawPart{name: name, voices: voices})
	default:
		return p.errf("unknown command \\%s", w)
	}
	return nil
}

// parseMusic reads a part body after its opening brace: either one plain
// voice, or a << {...} \\ {...} >> voice group.
func (p *parser) parseMusic() ([]rawVoice, error) {
	p.r.SkipSpace()
	if p.r.Peek() == '<' && p.r.PeekAt(1) == '<' {
		p.r.Next()
		p.r.Next()
		voices, err := p.parseVoiceGroup()
		if err != nil {
			return nil, err
		}
		p.r.SkipSpace()
		if p.r.Next() != '}' {
			return nil, p.errf("expected } closing part")
		}
		return voices, nil
	}
	v, err := p.parseVoice()
	if err != nil {
		return nil, err
	}
	return []rawVoice{v}, nil
}

func (p *parser) parseVoiceGroup() ([]rawVoice, error) {
	var voices []rawVoice
	for {
		p.r.SkipSpace()
		if p.r.Next() != '{' {
			return nil, p.errf("expected { opening voice")
		}
		v, err := p.parseVoice()
		if err != nil {
			return nil, err
		}
		voices = append(voices, v)
		p.r.SkipSpace()
		switch {
		case p.r.Peek() == '\\' && p.r.PeekAt(1) == '\\':
			p.r.Next()
			p.r.Next()
		case p.r.Peek() == '>' && p.r.PeekAt(1) == '>':
			p.r.Next()
			p.r.Next()
			return voices, nil
		default:
			return nil, p.errf("expected \\\\ or >> in voice group")
		}
	}
}

// voiceParser carries the per-voice decode state: the sticky duration,
// the note marks attach to, and the current sink (layer or tuplet body).
type voiceParser struct {
	staff    int
	lastDur  model.Duration
	lastNote *model.Note
	grace    bool
	any      bool

	measures [][]model.Event
	cur      []model.Event
}

func (vp *voiceParser) emit(ev model.Event) {
	vp.cur = append(vp.cur, ev)
	vp.any = true
}

func (p *parser) parseVoice() (rawVoice, error) {
	vp := &voiceParser{staff: 1, lastDur: model.Duration{Division: 4}}
	if err := p.parseEvents(vp, false); err != nil {
		return rawVoice{}, err
	}
	if len(vp.cur) > 0 {
		vp.measures = append(vp.measures, vp.cur)
	}
	return rawVoice{staff: vp.staff, measures: vp.measures}, nil
}

// parseEvents fills vp.cur until the closing brace. Inside a tuplet body
// measure breaks are rejected.
func (p *parser) parseEvents(vp *voiceParser, inTuplet bool) error {
	for {
		p.r.SkipSpace()
		c := p.r.Next()
		switch {
		case c == '}':
			return nil
		case c == eof:
			return p.errf("unexpected end of input")
		case c == '|':
			if inTuplet {
				return p.errf("measure break inside tuplet")
			}
			vp.measures = append(vp.measures, vp.cur)
			vp.cur = nil
		case c == '~':
			if err := p.attach(vp, model.Tie{Start: true}); err != nil {
				return err
			}
		case c == '(':
			if err := p.attach(vp, model.Slur{Start: true}); err != nil {
				return err
			}
		case c == ')':
			if err := p.attach(vp, model.Slur{Start: false}); err != nil {
				return err
			}
		case c == '[':
			if err := p.attach(vp, model.Beam{Start: true}); err != nil {
				return err
			}
		case c == ']':
			if err := p.attach(vp, model.Beam{Start: false}); err != nil {
				return err
			}
		case c == '-':
			if err := p.parseArtic(vp); err != nil {
				return err
			}
		case c == '^' || c == '_':
			place := "above"
			if c == '_' {
				place = "below"
			}
			text, err := p.quoted()
			if err != nil {
				return err
			}
			vp.emit(&model.Annotation{Text: text, Placement: place})
		case c == '<':
			if err := p.parseChord(vp); err != nil {
				return err
			}
		case c >= 'a' && c <= 'g':
			p.r.UnRead()
			if err := p.parseNote(vp); err != nil {
				return err
			}
		case c == 'r' || c == 's' || c == 'R':
			if err := p.parseRest(vp, c); err != nil {
				return err
			}
		case c == '\\':
			if err := p.voiceCommand(vp, inTuplet); err != nil {
				return err
			}
		default:
			return p.errf("unexpected %q", string(c))
		}
	}
}

func (p *parser) attach(vp *voiceParser, m model.Mark) error {
	if vp.lastNote == nil {
		return p.errf("mark with no preceding note")
	}
	vp.lastNote.Marks = append(vp.lastNote.Marks, m)
	return nil
}

func (p *parser) parseArtic(vp *voiceParser) error {
	c := p.r.Next()
	if c >= '1' && c <= '5' {
		return p.attach(vp, model.Fingering{Digit: int(c - '0')})
	}
	names := map[rune]string{
		'.': "staccato",
		'>': "accent",
		'-': "tenuto",
		'^': "marcato",
		'+': "stopped",
		'_': "portato",
		'!': "staccatissimo",
	}
	name, ok := names[c]
	if !ok {
		return p.errf("unknown articulation -%q", string(c))
	}
	return p.attach(vp, model.Articulation{Name: name})
}

// parsePitch reads letter, Dutch accidental suffix and octave markers.
// The marker count lands in Octave; resolution happens later.
func (p *parser) parsePitch() (model.Pitch, error) {
	letter := p.r.Next()
	if letter < 'a' || letter > 'g' {
		return model.Pitch{}, p.errf("expected pitch letter, got %q", string(letter))
	}
	pitch := model.Pitch{Letter: byte(letter), Acc: p.parseAccidental(byte(letter))}
	pitch.Octave = p.r.Eat('\'') - p.r.Eat(',')
	return pitch, nil
}

func (p *parser) parseAccidental(letter byte) model.Accidental {
	match := func(s string) bool {
		for i, c := range s {
			if p.r.PeekAt(i) != c {
				return false
			}
		}
		for range s {
			p.r.Next()
		}
		return true
	}
	switch {
	case match("isis"):
		return model.AccDoubleSharp
	case match("eses"):
		return model.AccDoubleFlat
	case (letter == 'a' || letter == 'e') && match("ses"):
		return model.AccDoubleFlat
	case match("is"):
		return model.AccSharp
	case match("es"):
		return model.AccFlat
	case (letter == 'a' || letter == 'e') && match("s"):
		return model.AccFlat
	}
	return model.AccNone
}

// parseDuration reads digits plus dots, or repeats the sticky duration.
func (p *parser) parseDuration(vp *voiceParser) (model.Duration, error) {
	div, ok := p.r.Int()
	if !ok {
		return vp.lastDur, nil
	}
	if div < 1 || div > 128 || div&(div-1) != 0 {
		return model.Duration{}, p.errf("bad duration %d", div)
	}
	dots := p.r.Eat('.')
	if dots > 2 {
		return model.Duration{}, p.errf("too many dots")
	}
	d := model.Duration{Division: div, Dots: dots}
	vp.lastDur = d
	return d, nil
}

func (p *parser) parseNote(vp *voiceParser) error {
	pitch, err := p.parsePitch()
	if err != nil {
		return err
	}
	dur, err := p.parseDuration(vp)
	if err != nil {
		return err
	}
	n := &model.Note{Pitches: []model.Pitch{pitch}, Dur: dur, Grace: vp.grace}
	vp.lastNote = n
	vp.emit(n)
	return nil
}

func (p *parser) parseChord(vp *voiceParser) error {
	var pitches []model.Pitch
	for {
		p.r.SkipSpace()
		if p.r.Peek() == '>' {
			p.r.Next()
			break
		}
		if p.r.Peek() == eof {
			return p.errf("unterminated chord")
		}
		pitch, err := p.parsePitch()
		if err != nil {
			return err
		}
		pitches = append(pitches, pitch)
	}
	if len(pitches) == 0 {
		return p.errf("empty chord")
	}
	dur, err := p.parseDuration(vp)
	if err != nil {
		return err
	}
	n := &model.Note{Pitches: pitches, Dur: dur, Grace: vp.grace}
	vp.lastNote = n
	vp.emit(n)
	return nil
}

func (p *parser) parseRest(vp *voiceParser, kind rune) error {
	dur, err := p.parseDuration(vp)
	if err != nil {
		return err
	}
	r := &model.Rest{Dur: dur}
	switch kind {
	case 's':
		r.Invisible = true
	case 'R':
		r.FullMeasure = true
	}
	vp.emit(r)
	return nil
}
