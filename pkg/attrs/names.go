package attrs

// NameSet is a set of dependency names that remembers insertion order.
type NameSet struct {
	index map[string]struct{}
	names []string
}

func NewNameSet(names ...string) NameSet {
	s := NameSet{}
	for _, n := range names {
		if !s.Has(n) {
			s.add(n)
		}
	}

	return s
}

func (s *NameSet) add(name string) {
	if s.index == nil {
		s.index = map[string]struct{}{}
	}

	s.index[name] = struct{}{}
	s.names = append(s.names, name)
}

func (s NameSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the names in insertion order.
func (s NameSet) Names() []string {
	return s.names
}

func (s NameSet) Len() int {
	return len(s.names)
}
