package person

import "github.com/google/uuid"

// IDSet is a set of person IDs.
type IDSet map[uuid.UUID]struct{}

func (s IDSet) Add(id uuid.UUID)    { s[id] = struct{}{} }
func (s IDSet) Remove(id uuid.UUID) { delete(s, id) }

func (s IDSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
