package notation

import "unicode"

// sReader is a rune scanner over one source string with single-rune
// pushback and line tracking for error messages.
type sReader struct {
	src  []rune
	idx  int
	line int
}

func newReader(src string) *sReader {
	return &sReader{src: []rune(src), line: 1}
}

const eof = rune(0)

func (r *sReader) Next() rune {
	if r.idx >= len(r.src) {
		r.idx++
		return eof
	}
	c := r.src[r.idx]
	r.idx++
	if c == '\n' {
		r.line++
	}
	return c
}

func (r *sReader) UnRead() {
	if r.idx <= 0 {
		return
	}
	r.idx--
	if r.idx < len(r.src) && r.src[r.idx] == '\n' {
		r.line--
	}
}

func (r *sReader) Peek() rune {
	if r.idx >= len(r.src) {
		return eof
	}
	return r.src[r.idx]
}

func (r *sReader) PeekAt(ahead int) rune {
	if r.idx+ahead >= len(r.src) {
		return eof
	}
	return r.src[r.idx+ahead]
}

// SkipSpace also eats % line comments.
func (r *sReader) SkipSpace() {
	for {
		c := r.Next()
		switch {
		case c == '%':
			for c != '\n' && c != eof {
				c = r.Next()
			}
		case c == eof:
			return
		case !unicode.IsSpace(c):
			r.UnRead()
			return
		}
	}
}

// Eat consumes a run of c and returns its length.
func (r *sReader) Eat(c rune) int {
	n := 0
	for r.Peek() == c {
		r.Next()
		n++
	}
	return n
}

// Word consumes a run of letters.
func (r *sReader) Word() string {
	var w []rune
	for unicode.IsLetter(r.Peek()) {
		w = append(w, r.Next())
	}
	return string(w)
}

// Int consumes a run of digits; ok is false when none were present.
func (r *sReader) Int() (int, bool) {
	n := 0
	seen := false
	for unicode.IsDigit(r.Peek()) {
		n = n*10 + int(r.Next()-'0')
		seen = true
	}
	return n, seen
}
