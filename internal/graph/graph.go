// Package graph holds the family relation graph. It is the only place that
// creates, renames or removes people, so every relation stays symmetric and
// no person is left pointing at someone who is gone.
//
// The graph does no locking. Callers that share it between goroutines must
// hold one lock around every mutation; read-only queries may run together.
package graph

import (
	"errors"
	"fmt"

	"github.com/N3moAhead/kinship/internal/person"
	"github.com/N3moAhead/kinship/internal/relation"
	"github.com/google/uuid"
)

var (
	ErrDuplicateName    = errors.New("person already exists")
	ErrNotFound         = errors.New("person not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotCurrentSpouse = person.ErrNotCurrentSpouse
	ErrUnknownAttribute = person.ErrUnknownAttribute
)

type Graph struct {
	people map[uuid.UUID]*person.Person
	byName map[string]uuid.UUID
	order  []uuid.UUID
}

func New() *Graph {
	return &Graph{
		people: map[uuid.UUID]*person.Person{},
		byName: map[string]uuid.UUID{},
	}
}

// Len returns the number of people in the graph.
func (g *Graph) Len() int { return len(g.order) }

// AddPerson registers a new person. gender and birthdate may be empty.
func (g *Graph) AddPerson(name, gender, birthdate string) (*person.Person, error) {
	if name == "" {
		return nil, fmt.Errorf("empty name: %w", ErrInvalidArgument)
	}
	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("%s: %w", name, ErrDuplicateName)
	}
	p := person.New(name, gender, birthdate)
	g.people[p.ID] = p
	g.byName[name] = p.ID
	g.order = append(g.order, p.ID)
	return p, nil
}

// Person looks a person up by name.
func (g *Graph) Person(name string) (*person.Person, bool) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.people[id], true
}

func (g *Graph) mustPerson(name string) (*person.Person, error) {
	p, ok := g.Person(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return p, nil
}

// People returns everyone in insertion order.
func (g *Graph) People() []*person.Person {
	out := make([]*person.Person, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.people[id])
	}
	return out
}

// Names returns all names in insertion order.
func (g *Graph) Names() []string {
	out := make([]string, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.people[id].Name)
	}
	return out
}

func (g *Graph) nameOf(id uuid.UUID) string {
	if p, ok := g.people[id]; ok {
		return p.Name
	}
	return id.String()
}

// NamesOf resolves a set of IDs to sorted names.
func (g *Graph) NamesOf(ids person.IDSet) []string {
	return person.Names(ids, g.nameOf)
}

// Record returns the persisted form of the named person.
func (g *Graph) Record(name string) (person.Record, error) {
	p, err := g.mustPerson(name)
	if err != nil {
		return person.Record{}, err
	}
	return p.Record(g.nameOf), nil
}

// RemovePerson deletes a person and every back-reference to them held by
// parents, children, current and previous spouses and siblings.
func (g *Graph) RemovePerson(name string) error {
	p, err := g.mustPerson(name)
	if err != nil {
		return err
	}
	for id := range p.Peers() {
		if peer, ok := g.people[id]; ok {
			peer.Forget(p.ID)
		}
	}
	delete(g.people, p.ID)
	delete(g.byName, name)
	for i, id := range g.order {
		if id == p.ID {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetRelation makes name the kind of every person in others, e.g.
// SetRelation(relation.Parent, "Alice", "Carol") makes Alice a parent of
// Carol. relation.Parents is the two-parent form and reads the other way
// round: SetRelation(relation.Parents, "Carol", "Alice", "Bob") gives Carol
// both parents. Either every edge is set or none is.
func (g *Graph) SetRelation(kind relation.Kind, name string, others ...string) error {
	if kind == relation.Parents {
		if len(others) != 2 {
			return fmt.Errorf("parents of %s: want 2 names, got %d: %w", name, len(others), ErrInvalidArgument)
		}
		return g.SetParents(name, others[0], others[1])
	}
	if len(others) == 0 {
		return fmt.Errorf("%s of nobody: %w", kind, ErrInvalidArgument)
	}

	subject, err := g.mustPerson(name)
	if err != nil {
		return err
	}
	peers, err := g.resolvePeers(subject, others)
	if err != nil {
		return err
	}

	var link func(peer *person.Person)
	switch kind {
	case relation.Parent:
		link = func(peer *person.Person) { peer.AddParent(subject) }
	case relation.Child:
		link = func(peer *person.Person) { subject.AddParent(peer) }
	case relation.Spouse:
		link = subject.AddSpouse
	case relation.Sibling:
		link = subject.AddSibling
	default:
		return fmt.Errorf("relation %s: %w", kind, ErrInvalidArgument)
	}
	for _, peer := range peers {
		link(peer)
	}
	return nil
}

// SetParents makes both parents parents of child. The parents need not be
// married to each other.
func (g *Graph) SetParents(child, parent1, parent2 string) error {
	c, err := g.mustPerson(child)
	if err != nil {
		return err
	}
	if parent1 == parent2 {
		return fmt.Errorf("parents of %s are both %s: %w", child, parent1, ErrInvalidArgument)
	}
	parents, err := g.resolvePeers(c, []string{parent1, parent2})
	if err != nil {
		return err
	}
	for _, p := range parents {
		c.AddParent(p)
	}
	return nil
}

func (g *Graph) resolvePeers(subject *person.Person, names []string) ([]*person.Person, error) {
	peers := make([]*person.Person, 0, len(names))
	for _, n := range names {
		peer, err := g.mustPerson(n)
		if err != nil {
			return nil, err
		}
		if peer.ID == subject.ID {
			return nil, fmt.Errorf("%s cannot be related to themselves: %w", n, ErrInvalidArgument)
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

// RestorePreviousSpouse records a dissolved marriage between a and b without
// them having been married in this graph. It exists for loaders.
func (g *Graph) RestorePreviousSpouse(a, b string) error {
	pa, err := g.mustPerson(a)
	if err != nil {
		return err
	}
	peers, err := g.resolvePeers(pa, []string{b})
	if err != nil {
		return err
	}
	pa.AddPreviousSpouse(peers[0])
	return nil
}

// Divorce moves spouse into the previous spouses of name, on both sides.
func (g *Graph) Divorce(name, spouse string) error {
	p, err := g.mustPerson(name)
	if err != nil {
		return err
	}
	s, err := g.mustPerson(spouse)
	if err != nil {
		return err
	}
	return p.DivorceSpouse(s)
}

// SetAttribute changes name, gender or birthdate. A rename re-keys the graph
// and fails with ErrDuplicateName if the new name is taken.
func (g *Graph) SetAttribute(name, key, value string) error {
	p, err := g.mustPerson(name)
	if err != nil {
		return err
	}
	if !person.IsAttribute(key) {
		return fmt.Errorf("%q: %w", key, ErrUnknownAttribute)
	}
	if key != "name" {
		return p.SetAttribute(key, value)
	}

	if value == "" {
		return fmt.Errorf("empty name: %w", ErrInvalidArgument)
	}
	if value == name {
		return nil
	}
	if _, taken := g.byName[value]; taken {
		return fmt.Errorf("%s: %w", value, ErrDuplicateName)
	}
	p.Name = value
	delete(g.byName, name)
	g.byName[value] = p.ID
	return nil
}
