// Package mei encodes a resolved document into MEI, the interchange XML
// schema. Encoding is a single in-memory walk; span state (ties, slurs,
// hairpins, pedal, octave shifts) is threaded per (staff, voice) pair
// across measure boundaries, and every element carries a session-unique
// identifier so control elements can reference notes without collisions.
package mei

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/subchen/go-xmldom"

	"github.com/scorio/scorio/model"
)

type Options struct {
	Indent  string
	XMLDecl bool
}

type encoder struct {
	ids  *idGenerator
	opts Options

	staffBase   []int // global staff number offset per part index
	staffCounts []int // local staves per part index
	totalStaves int

	states      map[voiceKey]*voiceState
	activeClefs map[int]clefDef
	activeKey   *model.Key
	activeTime  *model.TimeSig

	controls     []control
	curMeasure   *xmldom.Node
	measureRight string
}

// Encode renders the document. The document must be pitch-resolved; the
// encoder itself never fails on unknown notation values, it degrades per
// mark and keeps going.
func Encode(doc *model.Document, opts Options) (string, error) {
	if doc == nil {
		return "", errors.New("nil document")
	}
	e := &encoder{
		ids:         newIDGenerator(),
		opts:        opts,
		states:      make(map[voiceKey]*voiceState),
		activeClefs: make(map[int]clefDef),
	}
	e.layoutStaves(doc)

	x := xmldom.NewDocument("mei")
	x.Root.SetAttributeValue("xmlns", meiNamespace)
	x.Root.SetAttributeValue("meiversion", meiVersion)
	e.encodeHeader(x.Root, doc.Meta)

	score := x.Root.CreateNode("music").CreateNode("body").
		CreateNode("mdiv").CreateNode("score")
	e.encodeScoreDef(score, doc)
	section := score.CreateNode("section")
	for mi := range doc.Measures {
		e.encodeMeasure(section, &doc.Measures[mi], mi)
	}
	e.finish()

	return serialize(x, opts), nil
}

// layoutStaves assigns global staff numbers: parts keep their order and a
// part's local staves occupy a contiguous run.
func (e *encoder) layoutStaves(doc *model.Document) {
	var counts []int
	for mi := range doc.Measures {
		for pi := range doc.Measures[mi].Parts {
			for len(counts) <= pi {
				counts = append(counts, 1)
			}
			if n := doc.Measures[mi].Parts[pi].StaffCount(); n > counts[pi] {
				counts[pi] = n
			}
		}
	}
	e.staffCounts = counts
	e.staffBase = make([]int, len(counts))
	base := 0
	for pi, n := range counts {
		e.staffBase[pi] = base
		base += n
	}
	e.totalStaves = base
}

// encodeHeader writes the file description. Missing metadata is treated
// as absent, never as an error.
func (e *encoder) encodeHeader(root *xmldom.Node, meta model.Metadata) {
	titleStmt := root.CreateNode("meiHead").CreateNode("fileDesc").CreateNode("titleStmt")
	title := titleStmt.CreateNode("title")
	title.Text = meta.Title
	if meta.Composer != "" {
		resp := titleStmt.CreateNode("respStmt").CreateNode("persName")
		resp.SetAttributeValue("role", "composer")
		resp.Text = meta.Composer
	}
}

// encodeScoreDef derives the opening score definition from the first
// measure: key, meter, and one staffDef per (part, local staff), wrapped
// in a brace group when a part spans more than one staff.
func (e *encoder) encodeScoreDef(score *xmldom.Node, doc *model.Document) {
	def := score.CreateNode("scoreDef")
	if len(doc.Measures) > 0 {
		first := &doc.Measures[0]
		if first.Key != nil {
			e.activeKey = first.Key
			def.SetAttributeValue("key.sig", keySigValue(first.Key.Fifths))
			if first.Key.Mode != "" {
				def.SetAttributeValue("key.mode", first.Key.Mode)
			}
		}
		if first.Time != nil {
			e.activeTime = first.Time
			def.SetAttributeValue("meter.count", itoa(first.Time.Num))
			def.SetAttributeValue("meter.unit", itoa(first.Time.Den))
		}
	}

	grp := def.CreateNode("staffGrp")
	for pi, count := range e.staffCounts {
		parent := grp
		if count > 1 {
			parent = grp.CreateNode("staffGrp")
			parent.SetAttributeValue("symbol", "brace")
		}
		if len(doc.Measures) > 0 && pi < len(doc.Measures[0].Parts) {
			if name := doc.Measures[0].Parts[pi].Name; name != "" {
				label := parent.CreateNode("label")
				label.Text = name
			}
		}
		for s := 1; s <= count; s++ {
			global := e.staffBase[pi] + s
			clef := e.initialClef(doc, pi, s)
			e.activeClefs[global] = clef
			staffDef := parent.CreateNode("staffDef")
			staffDef.SetAttributeValue("n", itoa(global))
			staffDef.SetAttributeValue("lines", "5")
			staffDef.SetAttributeValue("clef.shape", clef.Shape)
			staffDef.SetAttributeValue("clef.line", itoa(clef.Line))
		}
	}
}

// initialClef finds a clef context change preceding any note in the
// staff's first-measure voices, defaulting to treble.
func (e *encoder) initialClef(doc *model.Document, pi, localStaff int) clefDef {
	if len(doc.Measures) == 0 || pi >= len(doc.Measures[0].Parts) {
		return defaultClef
	}
	for _, v := range doc.Measures[0].Parts[pi].Voices {
		if v.Staff != localStaff {
			continue
		}
		for _, ev := range v.Events {
			switch t := ev.(type) {
			case *model.ContextChange:
				if t.Clef != "" {
					if def, ok := clefs[t.Clef]; ok {
						return def
					}
					return defaultClef
				}
			case *model.Note, *model.Rest, *model.Tuplet, *model.Tremolo:
				return defaultClef
			}
		}
	}
	return defaultClef
}

func (e *encoder) encodeMeasure(section *xmldom.Node, m *model.Measure, mi int) {
	e.maybeScoreDefUpdate(section, m, mi)

	node := section.CreateNode("measure")
	node.SetAttributeValue("xml:id", e.ids.next("measure"))
	node.SetAttributeValue("n", itoa(mi+1))
	if m.Partial {
		node.SetAttributeValue("metcon", "false")
	}
	e.curMeasure = node
	e.measureRight = ""

	for pi := range m.Parts {
		count := 1
		if pi < len(e.staffCounts) {
			count = e.staffCounts[pi]
		}
		for s := 1; s <= count; s++ {
			global := e.staffBase[pi] + s
			staffNode := node.CreateNode("staff")
			staffNode.SetAttributeValue("xml:id", e.ids.next("staff"))
			staffNode.SetAttributeValue("n", itoa(global))
			layerN := 0
			for vi := range m.Parts[pi].Voices {
				v := &m.Parts[pi].Voices[vi]
				if v.Staff != s {
					continue
				}
				layerN++
				layerNode := staffNode.CreateNode("layer")
				layerNode.SetAttributeValue("xml:id", e.ids.next("layer"))
				layerNode.SetAttributeValue("n", itoa(layerN))
				st := e.state(voiceKey{staff: global, voice: layerN})
				e.encodeLayer(layerNode, v.Events, st, global, pi)
			}
		}
	}

	if e.measureRight != "" {
		node.SetAttributeValue("right", e.measureRight)
	}
	e.flushControls()
}

// maybeScoreDefUpdate emits a scoreDef sibling before the measure when
// the key or meter actually changes; repeats of the active value are
// suppressed.
func (e *encoder) maybeScoreDefUpdate(section *xmldom.Node, m *model.Measure, mi int) {
	keyChanged := m.Key != nil && (e.activeKey == nil || *m.Key != *e.activeKey)
	timeChanged := m.Time != nil && (e.activeTime == nil || *m.Time != *e.activeTime)
	if mi == 0 || (!keyChanged && !timeChanged) {
		// the opening scoreDef already covers measure zero
		if m.Key != nil {
			e.activeKey = m.Key
		}
		if m.Time != nil {
			e.activeTime = m.Time
		}
		return
	}
	def := section.CreateNode("scoreDef")
	if keyChanged {
		e.activeKey = m.Key
		def.SetAttributeValue("key.sig", keySigValue(m.Key.Fifths))
		if m.Key.Mode != "" {
			def.SetAttributeValue("key.mode", m.Key.Mode)
		}
	}
	if timeChanged {
		e.activeTime = m.Time
		def.SetAttributeValue("meter.count", itoa(m.Time.Num))
		def.SetAttributeValue("meter.unit", itoa(m.Time.Den))
	}
}

// finish force-closes octave-shift spans still pending after the last
// measure: their voices produced no further notes, so the span ends at
// the last known note.
func (e *encoder) finish() {
	if e.curMeasure == nil {
		return
	}
	keys := make([]voiceKey, 0, len(e.states))
	for k := range e.states {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].staff != keys[j].staff {
			return keys[i].staff < keys[j].staff
		}
		return keys[i].voice < keys[j].voice
	})
	for _, k := range keys {
		e.closeOttava(e.states[k])
	}
	e.flushControls()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
