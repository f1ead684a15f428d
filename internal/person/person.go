package person

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrNotCurrentSpouse = errors.New("not a current spouse")
	ErrRenameInGraph    = errors.New("rename through the graph")
)

// Person is one node of the family graph. Relations are stored as sets of
// peer IDs; the owning graph resolves them, so a Person never owns another.
type Person struct {
	ID uuid.UUID
	// Name is the graph's key for this person. Only the graph changes it.
	Name      string
	Gender    string
	Birthdate string // DD-MM-YYYY

	parents         IDSet
	children        IDSet
	spouses         IDSet
	previousSpouses IDSet
	siblings        IDSet
}

func New(name, gender, birthdate string) *Person {
	return &Person{
		ID:              uuid.New(),
		Name:            name,
		Gender:          gender,
		Birthdate:       birthdate,
		parents:         IDSet{},
		children:        IDSet{},
		spouses:         IDSet{},
		previousSpouses: IDSet{},
		siblings:        IDSet{},
	}
}

// Implement list.Item interface
func (p *Person) Title() string { return p.Name }
func (p *Person) Description() string {
	var parts []string
	if p.Gender != "" {
		parts = append(parts, p.Gender)
	}
	if p.Birthdate != "" {
		parts = append(parts, "born "+p.Birthdate)
	}
	if len(parts) == 0 {
		return "no details"
	}
	return strings.Join(parts, ", ")
}
func (p *Person) FilterValue() string { return p.Name }

func (p *Person) String() string { return p.Name }

func (p *Person) Parents() IDSet         { return p.parents.Clone() }
func (p *Person) Children() IDSet        { return p.children.Clone() }
func (p *Person) Spouses() IDSet         { return p.spouses.Clone() }
func (p *Person) PreviousSpouses() IDSet { return p.previousSpouses.Clone() }
func (p *Person) Siblings() IDSet        { return p.siblings.Clone() }

// AddParent makes parent a parent of p. Adding the same parent twice is a no-op.
func (p *Person) AddParent(parent *Person) {
	p.parents.Add(parent.ID)
	parent.children.Add(p.ID)
}

func (p *Person) AddChild(child *Person) {
	child.AddParent(p)
}

func (p *Person) AddSpouse(spouse *Person) {
	p.spouses.Add(spouse.ID)
	spouse.spouses.Add(p.ID)
}

// AddPreviousSpouse records a dissolved marriage on both sides. Only loaders
// use it directly; at runtime the set is filled by DivorceSpouse.
func (p *Person) AddPreviousSpouse(spouse *Person) {
	p.previousSpouses.Add(spouse.ID)
	spouse.previousSpouses.Add(p.ID)
}

func (p *Person) AddSibling(sibling *Person) {
	p.siblings.Add(sibling.ID)
	sibling.siblings.Add(p.ID)
}

// DivorceSpouse moves spouse from the current to the previous spouses of
// both people. Nothing changes when spouse is not currently married to p.
func (p *Person) DivorceSpouse(spouse *Person) error {
	if !p.spouses.Has(spouse.ID) {
		return fmt.Errorf("%s and %s: %w", p.Name, spouse.Name, ErrNotCurrentSpouse)
	}
	p.spouses.Remove(spouse.ID)
	spouse.spouses.Remove(p.ID)
	p.previousSpouses.Add(spouse.ID)
	spouse.previousSpouses.Add(p.ID)
	return nil
}

// Forget drops every reference to id from all five relation sets of p.
func (p *Person) Forget(id uuid.UUID) {
	p.parents.Remove(id)
	p.children.Remove(id)
	p.spouses.Remove(id)
	p.previousSpouses.Remove(id)
	p.siblings.Remove(id)
}

// Peers returns the IDs of everyone p holds a relation to, in any set.
func (p *Person) Peers() IDSet {
	peers := IDSet{}
	for _, s := range []IDSet{p.parents, p.children, p.spouses, p.previousSpouses, p.siblings} {
		for id := range s {
			peers.Add(id)
		}
	}
	return peers
}

var attributeSetters = map[string]func(p *Person, value string){
	"gender":    func(p *Person, value string) { p.Gender = value },
	"birthdate": func(p *Person, value string) { p.Birthdate = value },
}

// IsAttribute reports whether key names an editable attribute: name, gender
// or birthdate.
func IsAttribute(key string) bool {
	_, ok := attributeSetters[key]
	return ok || key == "name"
}

// SetAttribute sets gender or birthdate. Relation sets cannot be reached
// through it, and a rename fails with ErrRenameInGraph: the graph's
// SetAttribute renames so its name index follows.
func (p *Person) SetAttribute(key, value string) error {
	if key == "name" {
		return fmt.Errorf("%s: %w", p.Name, ErrRenameInGraph)
	}
	set, ok := attributeSetters[key]
	if !ok {
		return fmt.Errorf("%q: %w", key, ErrUnknownAttribute)
	}
	set(p, value)
	return nil
}
