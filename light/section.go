package light

// Section is an ordered set of strip positions, each with a gradient value
// in [0, 1) that effects use as "where along the section" this pixel is.
type Section struct {
	Positions []int
	Gradients []float64
}

// NewSection spreads gradients evenly: position i gets i/len
func NewSection(positions ...int) Section {
	s := Section{
		Positions: append([]int(nil), positions...),
		Gradients: make([]float64, len(positions)),
	}
	for i := range positions {
		s.Gradients[i] = float64(i) / float64(len(positions))
	}
	return s
}

// Range covers positions from..to-1; a descending range (from > to) runs
// from-1 down to to, like a reversed wiring run
func Range(from, to int) Section {
	var positions []int
	if from <= to {
		for p := from; p < to; p++ {
			positions = append(positions, p)
		}
	} else {
		for p := from - 1; p >= to; p-- {
			positions = append(positions, p)
		}
	}
	return NewSection(positions...)
}

func (s Section) Len() int {
	return len(s.Positions)
}

// Reversed keeps the positions and flips the gradients, so effects run the
// other way
func (s Section) Reversed() Section {
	out := Section{
		Positions: append([]int(nil), s.Positions...),
		Gradients: make([]float64, len(s.Gradients)),
	}
	for i, g := range s.Gradients {
		out.Gradients[len(s.Gradients)-1-i] = g
	}
	return out
}

// MergedWith concatenates both sections, keeping each one's gradients
func (s Section) MergedWith(other Section) Section {
	return MergeAll(s, other)
}

// AppendedWith concatenates both sections and re-spreads the gradients over
// the whole run
func (s Section) AppendedWith(other Section) Section {
	return NewSection(append(append([]int(nil), s.Positions...), other.Positions...)...)
}

func MergeAll(sections ...Section) Section {
	var out Section
	for _, s := range sections {
		out.Positions = append(out.Positions, s.Positions...)
		out.Gradients = append(out.Gradients, s.Gradients...)
	}
	return out
}

// Slice takes positions [from, to) as a new section with fresh gradients.
// A negative from, or a to of zero or less, counts from the end.
func (s Section) Slice(from, to int) Section {
	n := len(s.Positions)
	if from < 0 {
		from += n
	}
	if to <= 0 {
		to += n
	}
	from = max(0, min(from, n))
	to = max(from, min(to, n))
	return NewSection(s.Positions[from:to]...)
}

// PositionsInGradientRange returns positions whose gradient is within
// [lo, hi]
func (s Section) PositionsInGradientRange(lo, hi float64) []int {
	var out []int
	for i, p := range s.Positions {
		if g := s.Gradients[i]; lo <= g && g <= hi {
			out = append(out, p)
		}
	}
	return out
}

func (s Section) PositionsWithGradient(g float64) []int {
	return s.PositionsInGradientRange(g, g)
}
