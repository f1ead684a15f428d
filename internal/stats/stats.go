// Package stats computes read-only aggregates over a family graph.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/N3moAhead/kinship/internal/graph"
	"github.com/N3moAhead/kinship/internal/person"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyGraph = errors.New("nobody to average over")

var months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// AverageChildrenCount divides the number of parent-child edges by the
// number of people.
func AverageChildrenCount(g *graph.Graph) (float64, error) {
	people := g.People()
	if len(people) == 0 {
		return 0, fmt.Errorf("average children: %w", ErrEmptyGraph)
	}
	total := 0
	for _, p := range people {
		total += len(p.Children())
	}
	return float64(total) / float64(len(people)), nil
}

// Age is the number of whole 365-day years between born and ref. Days are
// counted from Unix seconds, which unlike time.Duration do not saturate
// after 292 years.
func Age(born, ref time.Time) int {
	days := floorDiv(ref.Unix()-born.Unix(), 24*60*60)
	return int(floorDiv(days, 365))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// AverageAge averages over the people whose birthdate parses; everyone else
// is left out of the denominator.
func AverageAge(g *graph.Graph, ref time.Time) (float64, error) {
	total, counted := 0, 0
	for _, p := range g.People() {
		born, ok := p.Born()
		if !ok {
			continue
		}
		total += Age(born, ref)
		counted++
	}
	if counted == 0 {
		return 0, fmt.Errorf("average age: no birthdates: %w", ErrEmptyGraph)
	}
	return float64(total) / float64(counted), nil
}

type Birthday struct {
	Name      string
	Birthdate string
}

func (b Birthday) String() string { return b.Name + ": " + b.Birthdate }

// Birthdays lists everyone with a birthdate, in insertion order.
func Birthdays(g *graph.Graph) []Birthday {
	var out []Birthday
	for _, p := range g.People() {
		if p.Birthdate != "" {
			out = append(out, Birthday{Name: p.Name, Birthdate: p.Birthdate})
		}
	}
	return out
}

// BirthdayGroup collects the people sharing a day and month.
type BirthdayGroup struct {
	Day   int
	Month int
	Names []string
}

// SortKey orders groups by month*31+day.
func (b BirthdayGroup) SortKey() int { return b.Month*31 + b.Day }

// String renders e.g. "Alice and Bob: 1st May".
func (b BirthdayGroup) String() string {
	return fmt.Sprintf("%s: %s %s", strings.Join(b.Names, " and "), Ordinal(b.Day), months[b.Month-1])
}

// BirthdayGroups groups people by day and month, ignoring the year.
// Unparseable birthdates are skipped. Names keep insertion order.
func BirthdayGroups(g *graph.Graph) []BirthdayGroup {
	index := map[[2]int]int{}
	var groups []BirthdayGroup
	for _, p := range g.People() {
		if p.Birthdate == "" {
			continue
		}
		day, month, _, err := person.ParseBirthdate(p.Birthdate)
		if err != nil {
			continue
		}
		key := [2]int{day, month}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, BirthdayGroup{Day: day, Month: month})
		}
		groups[i].Names = append(groups[i].Names, p.Name)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].SortKey() < groups[j].SortKey() })
	return groups
}

// Ordinal suffixes a day by its last digit only, so 11, 12 and 13 come out
// as 11st, 12nd and 13rd. Existing output depends on this.
func Ordinal(day int) string {
	s := strconv.Itoa(day)
	switch s[len(s)-1] {
	case '1':
		return s + "st"
	case '2':
		return s + "nd"
	case '3':
		return s + "rd"
	default:
		return s + "th"
	}
}

// Report bundles every aggregate. Averages that cannot be computed are left
// nil.
type Report struct {
	People          int
	AverageChildren *float64
	AverageAge      *float64
	Birthdays       []BirthdayGroup
}

// Collect computes all aggregates concurrently. g must not be mutated until
// Collect returns.
func Collect(ctx context.Context, g *graph.Graph, ref time.Time) (*Report, error) {
	r := &Report{People: g.Len()}
	eg, _ := errgroup.WithContext(ctx)

	eg.Go(func() error {
		avg, err := AverageChildrenCount(g)
		if errors.Is(err, ErrEmptyGraph) {
			return nil
		}
		if err != nil {
			return err
		}
		r.AverageChildren = &avg
		return nil
	})
	eg.Go(func() error {
		avg, err := AverageAge(g, ref)
		if errors.Is(err, ErrEmptyGraph) {
			return nil
		}
		if err != nil {
			return err
		}
		r.AverageAge = &avg
		return nil
	})
	eg.Go(func() error {
		r.Birthdays = BirthdayGroups(g)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r, nil
}
