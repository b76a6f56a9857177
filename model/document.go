package model

// Voice is one temporal stream of events on one staff of a part.
// Staff is 1-based and local to the part.
type Voice struct {
	Staff  int
	Events []Event
}

// Part groups the voices of one staff group, e.g. both staves of a piano.
type Part struct {
	Name   string
	Voices []Voice
}

type Measure struct {
	Key     *Key
	Time    *TimeSig
	Parts   []Part
	Partial bool
}

type Metadata struct {
	Title    string
	Composer string
}

type Document struct {
	Meta     Metadata
	Measures []Measure
}

// StaffCount returns the number of distinct local staves of a part,
// counting voice home staves, per-note cross-staff overrides and context
// staff switches. Every staff a note can land on gets declared.
func (p *Part) StaffCount() int {
	max := 1
	for _, v := range p.Voices {
		if v.Staff > max {
			max = v.Staff
		}
		max = maxEventStaff(v.Events, max)
	}
	return max
}

func maxEventStaff(events []Event, max int) int {
	for _, ev := range events {
		switch t := ev.(type) {
		case *Note:
			if t.Staff > max {
				max = t.Staff
			}
		case *ContextChange:
			if t.Staff > max {
				max = t.Staff
			}
		case *Tuplet:
			max = maxEventStaff(t.Events, max)
		}
	}
	return max
}
