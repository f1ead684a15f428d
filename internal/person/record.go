package person

import (
	"sort"

	"github.com/google/uuid"
)

// Record is the persisted shape of a Person. Relations are listed by name.
type Record struct {
	Name            string   `json:"name"`
	Gender          *string  `json:"gender"`
	Birthdate       *string  `json:"birthdate"`
	Parents         []string `json:"parents"`
	Children        []string `json:"children"`
	Spouses         []string `json:"spouses"`
	PreviousSpouses []string `json:"previous_spouses"`
	Siblings        []string `json:"siblings"`
}

// Record converts p using nameOf to resolve peer IDs. Name lists are sorted.
func (p *Person) Record(nameOf func(uuid.UUID) string) Record {
	return Record{
		Name:            p.Name,
		Gender:          optional(p.Gender),
		Birthdate:       optional(p.Birthdate),
		Parents:         Names(p.parents, nameOf),
		Children:        Names(p.children, nameOf),
		Spouses:         Names(p.spouses, nameOf),
		PreviousSpouses: Names(p.previousSpouses, nameOf),
		Siblings:        Names(p.siblings, nameOf),
	}
}

// Names resolves ids and returns them sorted. Never nil.
func Names(ids IDSet, nameOf func(uuid.UUID) string) []string {
	names := make([]string, 0, len(ids))
	for id := range ids {
		names = append(names, nameOf(id))
	}
	sort.Strings(names)
	return names
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional record field.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
