package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidiKeyForMiddleC(t *testing.T) {
	p := Pitch{Letter: 'c'}

	assert := assert.New(t)
	assert.Equal(p.MidiKey(), 60)
}

func TestMidiKeyAcrossOctavesAndAccidentals(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Pitch{Letter: 'a', Octave: -1}.MidiKey(), 57)
	assert.Equal(Pitch{Letter: 'c', Octave: 1}.MidiKey(), 72)
	assert.Equal(Pitch{Letter: 'f', Acc: AccSharp}.MidiKey(), 66)
	assert.Equal(Pitch{Letter: 'b', Acc: AccFlat, Octave: -1}.MidiKey(), 58)
	assert.Equal(Pitch{Letter: 'g', Acc: AccDoubleSharp}.MidiKey(), 69)
}

func TestStepRejectsUnknownLetters(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Pitch{Letter: 'c'}.Step(), 0)
	assert.Equal(Pitch{Letter: 'b'}.Step(), 6)
	assert.Equal(Pitch{Letter: 'x'}.Step(), -1)
	assert.Equal(Pitch{Letter: 'h'}.Step(), -1)
}

func TestSamePlaceIgnoresAccidentals(t *testing.T) {
	assert := assert.New(t)
	assert.True(Pitch{Letter: 'c'}.SamePlace(Pitch{Letter: 'c', Acc: AccSharp}))
	assert.False(Pitch{Letter: 'c'}.SamePlace(Pitch{Letter: 'c', Octave: 1}))
	assert.False(Pitch{Letter: 'c'}.SamePlace(Pitch{Letter: 'd'}))
}
