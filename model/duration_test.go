package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFractionArithmeticStaysReduced(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(NewFraction(2, 4), Fraction{1, 2})
	assert.Equal(NewFraction(1, 2).Add(NewFraction(1, 2)), Fraction{1, 1})
	assert.Equal(NewFraction(3, 4).Mul(NewFraction(2, 3)), Fraction{1, 2})
	assert.Equal(NewFraction(-2, -4), Fraction{1, 2})
	assert.Equal(NewFraction(1, -2), Fraction{-1, 2})
}

func TestFractionCmp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(NewFraction(1, 2).Cmp(NewFraction(2, 3)), -1)
	assert.Equal(NewFraction(2, 3).Cmp(NewFraction(1, 2)), 1)
	assert.Equal(NewFraction(2, 4).Cmp(NewFraction(1, 2)), 0)
}

func TestEighthsForPlainDivisions(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Duration{Division: 8}.Eighths(), Fraction{1, 1})
	assert.Equal(Duration{Division: 4}.Eighths(), Fraction{2, 1})
	assert.Equal(Duration{Division: 1}.Eighths(), Fraction{8, 1})
	assert.Equal(Duration{Division: 16}.Eighths(), Fraction{1, 2})
}

func TestEighthsWithDots(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Duration{Division: 4, Dots: 1}.Eighths(), Fraction{3, 1})
	assert.Equal(Duration{Division: 4, Dots: 2}.Eighths(), Fraction{7, 2})
}

func TestEighthsWithTupletRatio(t *testing.T) {
	ratio := NewFraction(2, 3)
	d := Duration{Division: 8, Ratio: &ratio}

	assert := assert.New(t)
	assert.Equal(d.Eighths(), Fraction{2, 3})
}

func TestEighthsOfZeroDuration(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Duration{}.Eighths(), Fraction{0, 1})
}
