package mei

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scorio/scorio/model"
)

func note(letter byte, octave, division int, marks ...model.Mark) *model.Note {
	return &model.Note{
		Pitches: []model.Pitch{{Letter: letter, Octave: octave}},
		Dur:     model.Duration{Division: division},
		Marks:   marks,
	}
}

func docOf(measures ...[]model.Event) *model.Document {
	doc := &model.Document{}
	for _, events := range measures {
		doc.Measures = append(doc.Measures, model.Measure{
			Parts: []model.Part{{Voices: []model.Voice{{Staff: 1, Events: events}}}},
		})
	}
	return doc
}

func encode(t *testing.T, doc *model.Document) string {
	t.Helper()
	out, err := Encode(doc, Options{Indent: "  ", XMLDecl: true})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRejectsNilDocument(t *testing.T) {
	_, err := Encode(nil, Options{})

	assert := assert.New(t)
	assert.Error(err)
}

func TestMinimalNote(t *testing.T) {
	out := encode(t, docOf([]model.Event{note('c', 0, 4)}))

	assert := assert.New(t)
	assert.True(strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"))
	assert.Contains(out, `xmlns="http://www.music-encoding.org/ns/mei"`)
	assert.Contains(out, `meiversion="4.0.1"`)
	assert.Contains(out, `pname="c"`)
	assert.Contains(out, `oct="4"`)
	assert.Contains(out, `dur="4"`)
	assert.Contains(out, `<staffDef n="1" lines="5" clef.shape="G" clef.line="2"/>`)
}

func TestIdentifiersCarrySessionAndCounter(t *testing.T) {
	out := encode(t, docOf([]model.Event{note('c', 0, 4)}))

	assert := assert.New(t)
	re := regexp.MustCompile(`xml:id="note-([0-9a-f]{8})(\d{10})"`)
	m := re.FindStringSubmatch(out)
	if m == nil {
		t.Fatal("no note identifier found")
	}
	// every identifier in one encode shares the session token
	all := regexp.MustCompile(`xml:id="[a-z]+-([0-9a-f]{8})\d{10}"`).FindAllStringSubmatch(out, -1)
	assert.True(len(all) > 3)
	for _, g := range all {
		assert.Equal(g[1], m[1])
	}
}

func TestAccidentalAttribute(t *testing.T) {
	n := note('f', 0, 4)
	n.Pitches[0].Acc = model.AccSharp
	out := encode(t, docOf([]model.Event{n}))

	assert := assert.New(t)
	assert.Contains(out, `accid="s"`)
}

func TestChordElement(t *testing.T) {
	n := &model.Note{
		Pitches: []model.Pitch{{Letter: 'c'}, {Letter: 'e'}, {Letter: 'g'}},
		Dur:     model.Duration{Division: 2},
	}
	out := encode(t, docOf([]model.Event{n}))

	assert := assert.New(t)
	assert.Contains(out, `<chord`)
	assert.Equal(strings.Count(out, `pname=`), 3)
}

func TestTieAcrossMeasures(t *testing.T) {
	out := encode(t, docOf(
		[]model.Event{note('c', 0, 2, model.Tie{Start: true})},
		[]model.Event{note('c', 0, 2)},
	))

	assert := assert.New(t)
	iIdx := strings.Index(out, `tie="i"`)
	tIdx := strings.Index(out, `tie="t"`)
	assert.True(iIdx >= 0)
	assert.True(tIdx > iIdx)
	assert.NotContains(out, `tie="m"`)
}

func TestMedialTie(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4, model.Tie{Start: true}),
		note('c', 0, 4, model.Tie{Start: true}),
		note('c', 0, 4),
	}))

	assert := assert.New(t)
	assert.Contains(out, `tie="i"`)
	assert.Contains(out, `tie="m"`)
	assert.Contains(out, `tie="t"`)
}

func TestTieBrokenByDifferentPitch(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4, model.Tie{Start: true}),
		note('d', 0, 4),
	}))

	assert := assert.New(t)
	assert.Contains(out, `tie="i"`)
	assert.NotContains(out, `tie="t"`)
}

func TestSlurReferencesExistingNotes(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4, model.Slur{Start: true}),
		note('d', 0, 4),
		note('e', 0, 4, model.Slur{Start: false}),
	}))

	assert := assert.New(t)
	re := regexp.MustCompile(`<slur[^>]* startid="#([^"]+)" endid="#([^"]+)"`)
	m := re.FindStringSubmatch(out)
	if m == nil {
		t.Fatal("no slur found")
	}
	slurIdx := strings.Index(out, "<slur")
	assert.True(strings.Index(out, `xml:id="`+m[1]+`"`) < slurIdx)
	assert.True(strings.Index(out, `xml:id="`+m[2]+`"`) < slurIdx)
}

func TestHairpinForm(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4, model.Hairpin{Cresc: true, Start: true}),
		note('d', 0, 4, model.Hairpin{Start: false}),
	}))

	assert := assert.New(t)
	assert.Contains(out, `<hairpin`)
	assert.Contains(out, `form="cres"`)
}

func TestOttavaDisplacesWrittenOctave(t *testing.T) {
	shift := 1
	stop := 0
	out := encode(t, docOf([]model.Event{
		&model.ContextChange{Ottava: &shift},
		note('c', 1, 4),
		&model.ContextChange{Ottava: &stop},
		note('c', 0, 4),
	}))

	assert := assert.New(t)
	// sounding octave 1 is written an octave lower under the shift
	assert.Contains(out, `oct="4" oct.ges="5"`)
	assert.Contains(out, `<octave`)
	assert.Contains(out, `dis="8"`)
	assert.Contains(out, `dis.place="above"`)
}

func TestOpenOttavaClosesAtDocumentEnd(t *testing.T) {
	shift := -1
	out := encode(t, docOf([]model.Event{
		&model.ContextChange{Ottava: &shift},
		note('c', -1, 4),
	}))

	assert := assert.New(t)
	assert.Contains(out, `<octave`)
	assert.Contains(out, `dis.place="below"`)
}

func TestOttavaWithoutNotesIsDropped(t *testing.T) {
	shift := 1
	out := encode(t, docOf([]model.Event{
		&model.ContextChange{Ottava: &shift},
	}))

	assert := assert.New(t)
	assert.NotContains(out, `<octave`)
}

func TestRedundantClefChangeSuppressed(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		&model.ContextChange{Clef: "treble"},
		note('c', 0, 4),
	}))

	assert := assert.New(t)
	assert.NotContains(out, "<clef ")
}

func TestClefChangeEmitted(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4),
		&model.ContextChange{Clef: "bass"},
		note('c', -1, 4),
	}))

	assert := assert.New(t)
	assert.Contains(out, `shape="F"`)
	assert.Contains(out, `line="4"`)
}

func TestScoreDefUpdateOnlyWhenMeterChanges(t *testing.T) {
	three := &model.TimeSig{Num: 3, Den: 4}
	doc := docOf(
		[]model.Event{note('c', 0, 4)},
		[]model.Event{note('c', 0, 4)},
		[]model.Event{note('c', 0, 4)},
	)
	doc.Measures[0].Time = &model.TimeSig{Num: 4, Den: 4}
	doc.Measures[1].Time = three
	doc.Measures[2].Time = three

	out := encode(t, doc)

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<scoreDef"), 2)
	assert.Contains(out, `meter.count="3"`)
}

func TestPartialMeasureIsMarkedIncomplete(t *testing.T) {
	doc := docOf([]model.Event{note('c', 0, 4)})
	doc.Measures[0].Partial = true

	out := encode(t, doc)

	assert := assert.New(t)
	assert.Contains(out, `metcon="false"`)
}

func TestBarlineSetsMeasureRight(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4),
		&model.Barline{Style: "final"},
	}))

	assert := assert.New(t)
	assert.Contains(out, `right="end"`)
}

func TestRestVariants(t *testing.T) {
	pos := model.Pitch{Letter: 'g', Octave: 0}
	out := encode(t, docOf([]model.Event{
		&model.Rest{Dur: model.Duration{Division: 4}, Position: &pos},
		&model.Rest{Dur: model.Duration{Division: 8}, Invisible: true},
		&model.Rest{FullMeasure: true},
	}))

	assert := assert.New(t)
	assert.Contains(out, `<rest`)
	assert.Contains(out, `ploc="g"`)
	assert.Contains(out, `oloc="4"`)
	assert.Contains(out, `<space`)
	assert.Contains(out, `<mRest`)
}

func TestGraceNote(t *testing.T) {
	n := note('d', 0, 8)
	n.Grace = true
	out := encode(t, docOf([]model.Event{n, note('c', 0, 4)}))

	assert := assert.New(t)
	assert.Contains(out, `grace="acc"`)
}

func TestBeamMarksOpenContainer(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 8, model.Beam{Start: true}),
		note('d', 0, 8),
		note('e', 0, 8, model.Beam{Start: false}),
		note('f', 0, 8),
	}))

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<beam"), 1)
	beamOpen := strings.Index(out, "<beam")
	beamClose := strings.Index(out, "</beam>")
	assert.True(beamOpen >= 0 && beamClose > beamOpen)
	// the last note sits outside the container
	lastNote := strings.LastIndex(out, "<note")
	assert.True(lastNote > beamClose)
}

func TestBeamRunEndingInsideTuplet(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 8, model.Beam{Start: true}),
		&model.Tuplet{
			Ratio: model.NewFraction(3, 2),
			Events: []model.Event{
				note('d', 0, 8),
				note('e', 0, 8),
				note('f', 0, 8, model.Beam{Start: false}),
			},
		},
		note('g', 0, 4),
	}))

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<beam"), 1)
	beamOpen := strings.Index(out, "<beam")
	beamClose := strings.Index(out, "</beam>")
	tuplet := strings.Index(out, "<tuplet")
	assert.True(beamOpen >= 0 && beamClose > beamOpen)
	assert.True(tuplet > beamOpen && tuplet < beamClose)
	// the container closes with the tuplet's last note
	assert.True(strings.Index(out, `pname="g"`) > beamClose)
}

func TestBeamRunStartingInsideTuplet(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		&model.Tuplet{
			Ratio: model.NewFraction(3, 2),
			Events: []model.Event{
				note('c', 0, 8, model.Beam{Start: true}),
				note('d', 0, 8),
				note('e', 0, 8),
			},
		},
		note('f', 0, 8, model.Beam{Start: false}),
	}))

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<beam"), 1)
	beamOpen := strings.Index(out, "<beam")
	beamClose := strings.Index(out, "</beam>")
	assert.True(strings.Index(out, "<tuplet") > beamOpen)
	assert.True(strings.Index(out, `pname="f"`) < beamClose)
}

func TestBeamStrictlyInsideTupletStaysLocal(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		&model.Tuplet{
			Ratio: model.NewFraction(3, 2),
			Events: []model.Event{
				note('c', 0, 8),
				note('d', 0, 8, model.Beam{Start: true}),
				note('e', 0, 8, model.Beam{Start: false}),
			},
		},
	}))

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<beam"), 1)
	assert.True(strings.Index(out, "<beam") > strings.Index(out, "<tuplet"))
}

func TestStaffSwitchDeclaresItsStaff(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4),
		&model.ContextChange{Staff: 2},
		note('d', 0, 4),
	}))

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<staffDef"), 2)
	assert.Contains(out, `<staffDef n="2"`)
	assert.Contains(out, `staff="2"`)
	if !regexp.MustCompile(`<staff xml:id="[^"]+" n="2"`).MatchString(out) {
		t.Error("no measure staff element for staff 2")
	}
}

func TestNoteStaffOverrideDeclaresItsStaff(t *testing.T) {
	over := note('d', 0, 4)
	over.Staff = 2
	out := encode(t, docOf([]model.Event{note('c', 0, 4), over}))

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<staffDef"), 2)
	assert.Contains(out, `staff="2"`)
}

func TestStaffSwitchDoesNotAliasNextPart(t *testing.T) {
	doc := &model.Document{Measures: []model.Measure{{
		Parts: []model.Part{
			{Voices: []model.Voice{{Staff: 1, Events: []model.Event{
				note('c', 0, 4),
				&model.ContextChange{Staff: 2},
				note('d', 0, 4),
			}}}},
			{Voices: []model.Voice{{Staff: 1, Events: []model.Event{note('e', 0, 4)}}}},
		},
	}}}

	out := encode(t, doc)

	assert := assert.New(t)
	assert.Equal(strings.Count(out, "<staffDef"), 3)
	assert.Contains(out, `<staffDef n="3"`)
}

func TestFingeredTremolo(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		&model.Tremolo{
			GroupA:   []model.Pitch{{Letter: 'c'}},
			GroupB:   []model.Pitch{{Letter: 'g'}},
			Repeats:  2,
			Division: 16,
		},
	}))

	assert := assert.New(t)
	assert.Contains(out, `<fTrem`)
	assert.Contains(out, `beams="2"`)
	assert.Contains(out, `dur="8"`)
}

func TestOneNoteTremoloStrokes(t *testing.T) {
	n := note('c', 0, 4)
	n.TremoloDiv = 32
	out := encode(t, docOf([]model.Event{n}))

	assert := assert.New(t)
	assert.Contains(out, `<bTrem`)
	assert.Contains(out, `stem.mod="3slash"`)
}

func TestTupletElement(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		&model.Tuplet{
			Ratio:  model.NewFraction(3, 2),
			Events: []model.Event{note('c', 0, 8), note('d', 0, 8), note('e', 0, 8)},
		},
	}))

	assert := assert.New(t)
	assert.Contains(out, `<tuplet`)
	assert.Contains(out, `num="3"`)
	assert.Contains(out, `numbase="2"`)
}

func TestHarmonyNeedsAnAnchor(t *testing.T) {
	withAnchor := encode(t, docOf([]model.Event{
		note('c', 0, 4),
		&model.Harmony{Text: "Cmaj7"},
	}))
	withoutAnchor := encode(t, docOf([]model.Event{
		&model.Harmony{Text: "Cmaj7"},
		note('c', 0, 4),
	}))

	assert := assert.New(t)
	assert.Contains(withAnchor, `<harm`)
	assert.Contains(withAnchor, "Cmaj7")
	assert.NotContains(withoutAnchor, `<harm`)
}

func TestTempoControl(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		&model.ContextChange{Tempo: &model.Tempo{Unit: 4, BPM: 120}},
		note('c', 0, 4),
	}))

	assert := assert.New(t)
	assert.Contains(out, `<tempo`)
	assert.Contains(out, `mm="120"`)
	assert.Contains(out, `mm.unit="4"`)
}

func TestUnknownMarksDegradeSilently(t *testing.T) {
	out := encode(t, docOf([]model.Event{
		note('c', 0, 4,
			model.Articulation{Name: "nosuch"},
			model.Dynamic{Name: "pppppp"},
			model.Ornament{Name: "curl"}),
	}))

	assert := assert.New(t)
	assert.NotContains(out, "artic=")
	assert.NotContains(out, "<dynam")
	assert.Contains(out, `pname="c"`)
}

func TestHeaderMetadata(t *testing.T) {
	doc := docOf([]model.Event{note('c', 0, 4)})
	doc.Meta = model.Metadata{Title: "Prelude & Fugue", Composer: "Anon"}

	out := encode(t, doc)

	assert := assert.New(t)
	assert.Contains(out, "<title>Prelude &amp; Fugue</title>")
	assert.Contains(out, `role="composer"`)
	assert.Contains(out, ">Anon</persName>")
}

func TestMultiStaffPartGetsBrace(t *testing.T) {
	doc := &model.Document{Measures: []model.Measure{{
		Parts: []model.Part{{Name: "Piano", Voices: []model.Voice{
			{Staff: 1, Events: []model.Event{note('c', 0, 4)}},
			{Staff: 2, Events: []model.Event{note('c', -1, 4)}},
		}}},
	}}}

	out := encode(t, doc)

	assert := assert.New(t)
	assert.Contains(out, `symbol="brace"`)
	assert.Contains(out, `<label>Piano</label>`)
	assert.Equal(strings.Count(out, "<staffDef"), 2)
	assert.Contains(out, `<staff xml:id="staff-`)
}

func TestIndentOption(t *testing.T) {
	doc := docOf([]model.Event{note('c', 0, 4)})
	out, err := Encode(doc, Options{Indent: "\t"})

	assert := assert.New(t)
	assert.NoError(err)
	assert.False(strings.HasPrefix(out, "<?xml"))
	assert.Contains(out, "\n\t<meiHead")
	assert.NotContains(out, "  <meiHead")
}
