package mei

import (
	"fmt"

	"github.com/scorio/scorio/model"
)

const (
	meiNamespace = "http://www.music-encoding.org/ns/mei"
	meiVersion   = "4.0.1"
)

// Static lookup tables. Unmapped keys degrade gracefully: the encoder
// substitutes the documented default or drops the mark and keeps going.

type clefDef struct {
	Shape string
	Line  int
}

var clefs = map[string]clefDef{
	"treble":        {"G", 2},
	"violin":        {"G", 2},
	"french":        {"G", 1},
	"soprano":       {"C", 1},
	"mezzosoprano":  {"C", 2},
	"alto":          {"C", 3},
	"tenor":         {"C", 4},
	"baritone":      {"C", 5},
	"bass":          {"F", 4},
	"varbaritone":   {"F", 3},
	"subbass":       {"F", 5},
}

// defaultClef stands in for an unknown clef name in a staff definition.
var defaultClef = clefDef{"G", 2}

var articulations = map[string]string{
	"staccato":      "stacc",
	"staccatissimo": "stacciss",
	"accent":        "acc",
	"tenuto":        "ten",
	"marcato":       "marc",
	"portato":       "ten-stacc",
	"stopped":       "stop",
	"spiccato":      "spicc",
}

var dynamics = map[string]bool{
	"p": true, "pp": true, "ppp": true,
	"f": true, "ff": true, "fff": true,
	"mp": true, "mf": true,
	"fp": true, "sf": true, "sfz": true, "rfz": true,
}

// ornament mark name -> MEI control element name
var ornaments = map[string]string{
	"trill":   "trill",
	"mordent": "mordent",
	"turn":    "turn",
}

var barlines = map[string]string{
	"double":      "dbl",
	"final":       "end",
	"repeatStart": "rptstart",
	"repeatEnd":   "rptend",
	"repeatBoth":  "rptboth",
	"dashed":      "dashed",
}

var navigationWords = map[string]string{
	"segno": "Segno",
	"coda":  "Coda",
	"fine":  "Fine",
}

var accidentals = map[model.Accidental]string{
	model.AccNatural:     "n",
	model.AccSharp:       "s",
	model.AccFlat:        "f",
	model.AccDoubleSharp: "x",
	model.AccDoubleFlat:  "ff",
}

var supportedDivisions = []int{1, 2, 4, 8, 16, 32, 64, 128}

// nearestDivision snaps a computed division onto the written scale,
// falling back to a quarter note when the value is unusable.
func nearestDivision(div int) int {
	if div < 1 {
		return 4
	}
	best := supportedDivisions[0]
	bestDist := -1
	for _, d := range supportedDivisions {
		dist := div - d
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

func keySigValue(fifths int) string {
	switch {
	case fifths > 0:
		return fmt.Sprintf("%ds", fifths)
	case fifths < 0:
		return fmt.Sprintf("%df", -fifths)
	default:
		return "0"
	}
}

func stemDirValue(s model.StemDirection) string {
	switch s {
	case model.StemUp:
		return "up"
	case model.StemDown:
		return "down"
	}
	return ""
}

// meiOctave maps the model's middle-C-relative octave numbering onto the
// scientific numbering the schema uses (middle C sits in octave 4).
func meiOctave(octave int) int {
	return octave + 4
}
