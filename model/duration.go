package model

// Fraction is an exact ratio. Beam grouping and tuplet scaling work in
// fractions of an eighth note, so float drift is not acceptable.
type Fraction struct {
	Num int
	Den int
}

func NewFraction(num, den int) Fraction {
	return Fraction{num, den}.reduce()
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func (f Fraction) reduce() Fraction {
	if f.Den < 0 {
		f.Num, f.Den = -f.Num, -f.Den
	}
	g := gcd(f.Num, f.Den)
	return Fraction{f.Num / g, f.Den / g}
}

func (f Fraction) IsZero() bool {
	return f.Num == 0
}

func (f Fraction) Add(o Fraction) Fraction {
	return Fraction{f.Num*o.Den + o.Num*f.Den, f.Den * o.Den}.reduce()
}

func (f Fraction) Mul(o Fraction) Fraction {
	return Fraction{f.Num * o.Num, f.Den * o.Den}.reduce()
}

// Cmp returns -1, 0 or 1.
func (f Fraction) Cmp(o Fraction) int {
	l := f.Num * o.Den
	r := o.Num * f.Den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// Duration is a notated duration. Division is a power of two in [1,128]
// where 1 is a whole note. Ratio, when set, is the tuplet scaling applied
// to the written value (e.g. 2/3 inside a triplet).
type Duration struct {
	Division int
	Dots     int
	Ratio    *Fraction
}

// Eighths returns the sounding length in eighth-note units.
func (d Duration) Eighths() Fraction {
	if d.Division == 0 {
		return Fraction{0, 1}
	}
	f := NewFraction(8, d.Division)
	switch d.Dots {
	case 1:
		f = f.Mul(Fraction{3, 2})
	case 2:
		f = f.Mul(Fraction{7, 4})
	}
	if d.Ratio != nil {
		f = f.Mul(*d.Ratio)
	}
	return f
}
