package game

// Fleet is the ordered set of living units on one side.
type Fleet struct {
	units []*Unit
}

func NewFleet(units ...*Unit) *Fleet {
	return &Fleet{units: append([]*Unit(nil), units...)}
}

// Get finds a living unit by id.
func (f *Fleet) Get(id string) (*Unit, bool) {
	for _, u := range f.units {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// Remove drops the unit with id and reports whether it was present.
func (f *Fleet) Remove(id string) bool {
	for i, u := range f.units {
		if u.ID == id {
			f.units = append(f.units[:i], f.units[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Fleet) Len() int { return len(f.units) }

// Units returns the living units in order. The slice is a copy.
func (f *Fleet) Units() []*Unit {
	return append([]*Unit(nil), f.units...)
}
