package notation

import (
	"github.com/scorio/scorio/model"
)

var majorFifths = map[string]int{
	"c": 0, "g": 1, "d": 2, "a": 3, "e": 4, "b": 5, "fis": 6, "cis": 7,
	"f": -1, "bes": -2, "ees": -3, "aes": -4, "des": -5, "ges": -6, "ces": -7,
}

var minorFifths = map[string]int{
	"a": 0, "e": 1, "b": 2, "fis": 3, "cis": 4, "gis": 5, "dis": 6, "ais": 7,
	"d": -1, "g": -2, "c": -3, "f": -4, "bes": -5, "ees": -6, "aes": -7,
}

var dynamicNames = map[string]bool{
	"p": true, "pp": true, "ppp": true,
	"f": true, "ff": true, "fff": true,
	"mp": true, "mf": true, "fp": true, "sfz": true,
}

var ornamentNames = map[string]bool{
	"trill": true, "mordent": true, "turn": true,
}

var navigationNames = map[string]bool{
	"segno": true, "coda": true, "fine": true,
}

var barStyles = map[string]string{
	"||":    "double",
	"|.":    "final",
	".|:":   "repeatStart",
	":|.":   "repeatEnd",
	":.|.:": "repeatBoth",
	"!":     "dashed",
}

func (p *parser) voiceCommand(vp *voiceParser, inTuplet bool) error {
	w := p.r.Word()
	if w == "" {
		// hairpin punctuation commands
		switch c := p.r.Next(); c {
		case '<':
			return p.attach(vp, model.Hairpin{Cresc: true, Start: true})
		case '>':
			return p.attach(vp, model.Hairpin{Cresc: false, Start: true})
		case '!':
			return p.attach(vp, model.Hairpin{Start: false})
		default:
			return p.errf("unknown command \\%s", string(c))
		}
	}
	switch {
	case dynamicNames[w]:
		return p.attach(vp, model.Dynamic{Name: w})
	case ornamentNames[w]:
		return p.attach(vp, model.Ornament{Name: w})
	case navigationNames[w]:
		return p.attach(vp, model.Navigation{Kind: w})
	}

	switch w {
	case "sustainOn":
		return p.attach(vp, model.Pedal{Down: true})
	case "sustainOff":
		return p.attach(vp, model.Pedal{Down: false})
	case "key":
		return p.parseKey(vp)
	case "time":
		p.r.SkipSpace()
		num, ok := p.r.Int()
		if !ok || p.r.Next() != '/' {
			return p.errf("\\time needs n/d")
		}
		den, ok := p.r.Int()
		if !ok {
			return p.errf("\\time needs n/d")
		}
		vp.emit(&model.ContextChange{Time: &model.TimeSig{Num: num, Den: den}})
	case "clef":
		p.r.SkipSpace()
		name := p.r.Word()
		if name == "" {
			return p.errf("\\clef needs a name")
		}
		vp.emit(&model.ContextChange{Clef: name})
	case "tempo":
		p.r.SkipSpace()
		unit, ok := p.r.Int()
		if !ok || p.r.Next() != '=' {
			return p.errf("\\tempo needs unit=bpm")
		}
		bpm, ok := p.r.Int()
		if !ok {
			return p.errf("\\tempo needs unit=bpm")
		}
		vp.emit(&model.ContextChange{Tempo: &model.Tempo{Unit: unit, BPM: bpm}})
	case "ottava":
		p.r.SkipSpace()
		sign := 1
		if p.r.Peek() == '-' {
			p.r.Next()
			sign = -1
		}
		n, ok := p.r.Int()
		if !ok {
			return p.errf("\\ottava needs an integer")
		}
		shift := sign * n
		vp.emit(&model.ContextChange{Ottava: &shift})
	case "staff":
		p.r.SkipSpace()
		n, ok := p.r.Int()
		if !ok || n < 1 {
			return p.errf("\\staff needs a positive integer")
		}
		if !vp.any && len(vp.measures) == 0 {
			// a leading staff command picks the voice's home staff
			vp.staff = n
		} else {
			vp.emit(&model.ContextChange{Staff: n})
		}
	case "stemUp":
		d := model.StemUp
		vp.emit(&model.ContextChange{Stem: &d})
	case "stemDown":
		d := model.StemDown
		vp.emit(&model.ContextChange{Stem: &d})
	case "stemNeutral":
		d := model.StemNeutral
		vp.emit(&model.ContextChange{Stem: &d})
	case "reset":
		vp.emit(&model.PitchReset{})
	case "bar":
		style, err := p.quoted()
		if err != nil {
			return err
		}
		if mapped, ok := barStyles[style]; ok {
			style = mapped
		}
		vp.emit(&model.Barline{Style: style})
	case "harmony":
		text, err := p.quoted()
		if err != nil {
			return err
		}
		vp.emit(&model.Harmony{Text: text})
	case "grace":
		return p.parseGrace(vp)
	case "tuplet":
		if inTuplet {
			return p.errf("nested tuplets are not supported")
		}
		return p.parseTuplet(vp)
	case "trem":
		return p.parseTremolo(vp)
	default:
		return p.errf("unknown command \\%s", w)
	}
	return nil
}

func (p *parser) parseKey(vp *voiceParser) error {
	p.r.SkipSpace()
	letter := p.r.Next()
	if letter < 'a' || letter > 'g' {
		return p.errf("\\key needs a pitch letter")
	}
	root := string(letter)
	switch acc := p.parseAccidental(byte(letter)); acc {
	case model.AccSharp:
		root += "is"
	case model.AccFlat:
		root += "es"
	case model.AccNone:
	default:
		return p.errf("unsupported key root accidental")
	}
	p.r.SkipSpace()
	if p.r.Next() != '\\' {
		return p.errf("\\key needs \\major or \\minor")
	}
	mode := p.r.Word()
	var fifths int
	var ok bool
	switch mode {
	case "major":
		fifths, ok = majorFifths[root]
	case "minor":
		fifths, ok = minorFifths[root]
	default:
		return p.errf("unknown mode \\%s", mode)
	}
	if !ok {
		return p.errf("no key signature for %s %s", root, mode)
	}
	vp.emit(&model.ContextChange{Key: &model.Key{Fifths: fifths, Mode: mode}})
	return nil
}

func (p *parser) parseGrace(vp *voiceParser) error {
	p.r.SkipSpace()
	vp.grace = true
	defer func() { vp.grace = false }()
	if p.r.Peek() == '{' {
		p.r.Next()
		return p.parseEvents(vp, true)
	}
	c := p.r.Next()
	if c == '<' {
		return p.parseChord(vp)
	}
	p.r.UnRead()
	return p.parseNote(vp)
}

func (p *parser) parseTuplet(vp *voiceParser) error {
	p.r.SkipSpace()
	num, ok := p.r.Int()
	if !ok || p.r.Next() != '/' {
		return p.errf("\\tuplet needs n/d")
	}
	den, ok := p.r.Int()
	if !ok {
		return p.errf("\\tuplet needs n/d")
	}
	p.r.SkipSpace()
	if p.r.Next() != '{' {
		return p.errf("expected { after \\tuplet")
	}
	outer := vp.cur
	vp.cur = nil
	if err := p.parseEvents(vp, true); err != nil {
		return err
	}
	inner := vp.cur
	vp.cur = outer
	ratio := model.NewFraction(num, den)
	scale := model.NewFraction(den, num)
	for _, ev := range inner {
		switch t := ev.(type) {
		case *model.Note:
			t.Dur.Ratio = &scale
		case *model.Rest:
			t.Dur.Ratio = &scale
		default:
			return p.errf("only notes and rests inside \\tuplet")
		}
	}
	vp.emit(&model.Tuplet{Ratio: ratio, Events: inner})
	return nil
}

func (p *parser) parseTremolo(vp *voiceParser) error {
	p.r.SkipSpace()
	repeats, ok := p.r.Int()
	if !ok || repeats < 1 {
		return p.errf("\\trem needs a repeat count")
	}
	p.r.SkipSpace()
	if p.r.Next() != '{' {
		return p.errf("expected { after \\trem")
	}
	groupA, div, err := p.parseTremGroup(vp)
	if err != nil {
		return err
	}
	groupB, divB, err := p.parseTremGroup(vp)
	if err != nil {
		return err
	}
	if div == 0 {
		div = divB
	}
	if div == 0 {
		div = vp.lastDur.Division
	}
	p.r.SkipSpace()
	if p.r.Next() != '}' {
		return p.errf("expected } closing \\trem")
	}
	vp.emit(&model.Tremolo{GroupA: groupA, GroupB: groupB, Repeats: repeats, Division: div})
	return nil
}

func (p *parser) parseTremGroup(vp *voiceParser) ([]model.Pitch, int, error) {
	p.r.SkipSpace()
	var pitches []model.Pitch
	if p.r.Peek() == '<' {
		p.r.Next()
		for {
			p.r.SkipSpace()
			if p.r.Peek() == '>' {
				p.r.Next()
				break
			}
			pitch, err := p.parsePitch()
			if err != nil {
				return nil, 0, err
			}
			pitches = append(pitches, pitch)
		}
	} else {
		pitch, err := p.parsePitch()
		if err != nil {
			return nil, 0, err
		}
		pitches = append(pitches, pitch)
	}
	div, _ := p.r.Int()
	return pitches, div, nil
}

func (p *parser) quoted() (string, error) {
	p.r.SkipSpace()
	if p.r.Next() != '"' {
		return "", p.errf("expected opening quote")
	}
	var text []rune
	for {
		c := p.r.Next()
		switch c {
		case '"':
			return string(text), nil
		case eof:
			return "", p.errf("unterminated string")
		default:
			text = append(text, c)
		}
	}
}

// assemble zips the per-voice measure lists into the document's
// measure-major shape and lifts leading key/time context changes of the
// first voice into the measure header fields.
func (p *parser) assemble() *model.Document {
	doc := &model.Document{Meta: p.meta}
	count := 0
	for _, part := range p.parts {
		for _, v := range part.voices {
			if len(v.measures) > count {
				count = len(v.measures)
			}
		}
	}
	for mi := 0; mi < count; mi++ {
		m := model.Measure{Partial: mi == 0 && p.partial}
		for _, part := range p.parts {
			mp := model.Part{Name: part.name}
			for _, v := range part.voices {
				var events []model.Event
				if mi < len(v.measures) {
					events = v.measures[mi]
				}
				mp.Voices = append(mp.Voices, model.Voice{Staff: v.staff, Events: events})
			}
			m.Parts = append(m.Parts, mp)
		}
		liftMeasureContext(&m)
		doc.Measures = append(doc.Measures, m)
	}
	return doc
}

// liftMeasureContext promotes key/time changes at the head of the first
// voice into the measure itself, where the encoder expects them.
func liftMeasureContext(m *model.Measure) {
	if len(m.Parts) == 0 || len(m.Parts[0].Voices) == 0 {
		return
	}
	v := &m.Parts[0].Voices[0]
	var rest []model.Event
	for i, ev := range v.Events {
		cc, ok := ev.(*model.ContextChange)
		if !ok {
			rest = append(rest, v.Events[i:]...)
			break
		}
		switch {
		case cc.Key != nil:
			m.Key = cc.Key
		case cc.Time != nil:
			m.Time = cc.Time
		default:
			rest = append(rest, cc)
		}
	}
	v.Events = rest
}
