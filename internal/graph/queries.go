package graph

import (
	"fmt"
	"sort"

	"github.com/N3moAhead/kinship/internal/person"
	"github.com/google/uuid"
)

// Cousins returns the children of name's piblings, sorted. Piblings are the
// other children of each grandparent plus the explicit siblings of each
// parent, so cousins are found even when grandparents were never recorded.
func (g *Graph) Cousins(name string) ([]string, error) {
	p, err := g.mustPerson(name)
	if err != nil {
		return nil, err
	}
	parents := p.Parents()

	piblings := person.IDSet{}
	for parentID := range parents {
		parent := g.people[parentID]
		for gpID := range parent.Parents() {
			for id := range g.people[gpID].Children() {
				piblings.Add(id)
			}
		}
		for id := range parent.Siblings() {
			piblings.Add(id)
		}
	}

	cousins := person.IDSet{}
	for piblingID := range piblings {
		if parents.Has(piblingID) {
			continue
		}
		for id := range g.people[piblingID].Children() {
			cousins.Add(id)
		}
	}
	cousins.Remove(p.ID)
	return g.NamesOf(cousins), nil
}

// Grandparents walks generations hops up through parents and returns the
// people reached on the last hop. One generation yields the parents, two
// the grandparents, and so on.
func (g *Graph) Grandparents(name string, generations int) ([]string, error) {
	return g.walk(name, generations, (*person.Person).Parents)
}

// Grandchildren is the downward counterpart of Grandparents.
func (g *Graph) Grandchildren(name string, generations int) ([]string, error) {
	return g.walk(name, generations, (*person.Person).Children)
}

func (g *Graph) walk(name string, generations int, next func(*person.Person) person.IDSet) ([]string, error) {
	if generations < 1 {
		return nil, fmt.Errorf("generations must be at least 1, got %d: %w", generations, ErrInvalidArgument)
	}
	p, err := g.mustPerson(name)
	if err != nil {
		return nil, err
	}
	frontier := person.IDSet{p.ID: {}}
	for range generations {
		reached := person.IDSet{}
		for id := range frontier {
			for n := range next(g.people[id]) {
				reached.Add(n)
			}
		}
		frontier = reached
		if len(frontier) == 0 {
			break
		}
	}
	return g.NamesOf(frontier), nil
}

// Traverse walks depth-first from start through children, spouses and
// siblings and returns names in visiting order. Peers are visited in name
// order. Each person is visited once, so cyclic data terminates.
func (g *Graph) Traverse(start string) ([]string, error) {
	p, err := g.mustPerson(start)
	if err != nil {
		return nil, err
	}
	visited := map[uuid.UUID]bool{}
	var order []string

	var visit func(p *person.Person)
	visit = func(p *person.Person) {
		if visited[p.ID] {
			return
		}
		visited[p.ID] = true
		order = append(order, p.Name)
		for _, set := range []person.IDSet{p.Children(), p.Spouses(), p.Siblings()} {
			for _, peer := range g.byNameOrder(set) {
				visit(peer)
			}
		}
	}
	visit(p)
	return order, nil
}

func (g *Graph) byNameOrder(ids person.IDSet) []*person.Person {
	out := make([]*person.Person, 0, len(ids))
	for id := range ids {
		out = append(out, g.people[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
