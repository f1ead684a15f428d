package stats

import (
	"context"
	"testing"
	"time"

	"github.com/N3moAhead/kinship/internal/graph"
	"github.com/N3moAhead/kinship/internal/relation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var ref = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func build(t *testing.T, people map[string]string, order ...string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, name := range order {
		_, err := g.AddPerson(name, "", people[name])
		require.NoError(t, err)
	}
	return g
}

func TestAverageChildrenCount(t *testing.T) {
	_, err := AverageChildrenCount(graph.New())
	assert.ErrorIs(t, err, ErrEmptyGraph)

	g := build(t, nil, "Alice", "Bob", "Carol", "Dave")
	require.NoError(t, g.SetParents("Carol", "Alice", "Bob"))
	require.NoError(t, g.SetRelation(relation.Parent, "Alice", "Dave"))

	avg, err := AverageChildrenCount(g)
	require.NoError(t, err)
	assert.InDelta(t, 3.0/4.0, avg, 1e-9)
}

func TestAge(t *testing.T) {
	tests := []struct {
		born string
		want int
	}{
		{"01-06-1990", 34},
		{"02-06-1990", 34},
		{"01-06-2024", 0},
		{"01-06-2025", -1},
		{"01-06-1650", 374},
		{"15-08-1066", 958},
	}
	for _, tt := range tests {
		g := build(t, map[string]string{"X": tt.born}, "X")
		p, _ := g.Person("X")
		born, ok := p.Born()
		require.True(t, ok)
		assert.Equal(t, tt.want, Age(born, ref), tt.born)
	}
}

func TestAverageAge_OnlyCountsKnownBirthdates(t *testing.T) {
	g := build(t, map[string]string{
		"Old":   "01-06-1964",
		"Young": "01-06-2014",
		"Bad":   "sometime",
	}, "Old", "Young", "Unknown", "Bad")

	avg, err := AverageAge(g, ref)
	require.NoError(t, err)
	// 60 and 10 over two people, not four.
	assert.InDelta(t, 35.0, avg, 1e-9)

	_, err = AverageAge(build(t, nil, "Unknown"), ref)
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestAverageAge_Ancestors(t *testing.T) {
	g := build(t, map[string]string{
		"Ancestor": "01-06-1650",
		"Child":    "01-06-2014",
	}, "Ancestor", "Child")

	avg, err := AverageAge(g, ref)
	require.NoError(t, err)
	assert.InDelta(t, 192.0, avg, 1e-9)
}

func TestBirthdays_Unsorted(t *testing.T) {
	g := build(t, map[string]string{
		"Zed":   "15-03-2000",
		"Alice": "01-05-1990",
	}, "Zed", "Nobody", "Alice")

	assert.Equal(t, []Birthday{
		{Name: "Zed", Birthdate: "15-03-2000"},
		{Name: "Alice", Birthdate: "01-05-1990"},
	}, Birthdays(g))
	assert.Equal(t, "Zed: 15-03-2000", Birthdays(g)[0].String())
}

func TestBirthdayGroups(t *testing.T) {
	g := build(t, map[string]string{
		"Alice": "01-05-1990",
		"Bob":   "01-05-1985",
	}, "Alice", "Bob")

	groups := BirthdayGroups(g)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Day)
	assert.Equal(t, 5, groups[0].Month)
	assert.Equal(t, []string{"Alice", "Bob"}, groups[0].Names)
	assert.Equal(t, "Alice and Bob: 1st May", groups[0].String())
}

func TestBirthdayGroups_Ordering(t *testing.T) {
	g := build(t, map[string]string{
		"Dec":  "31-12-1990",
		"Jan":  "02-01-1990",
		"Feb":  "28-02-1990",
		"Jan2": "31-01-1980",
		"Bad":  "99-99-1999",
	}, "Dec", "Jan", "Feb", "Jan2", "Bad")

	var got []string
	for _, grp := range BirthdayGroups(g) {
		got = append(got, grp.String())
	}
	assert.Equal(t, []string{
		"Jan: 2nd January",
		"Jan2: 31st January",
		"Feb: 28th February",
		"Dec: 31st December",
	}, got)
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 10: "10th",
		11: "11st", 12: "12nd", 13: "13rd",
		21: "21st", 22: "22nd", 23: "23rd", 30: "30th", 31: "31st",
	}
	for day, want := range tests {
		assert.Equal(t, want, Ordinal(day))
	}
}

func TestCollect(t *testing.T) {
	g := build(t, map[string]string{"Alice": "01-05-1990", "Bob": "01-05-1985"}, "Alice", "Bob", "Carol")
	require.NoError(t, g.SetParents("Carol", "Alice", "Bob"))

	r, err := Collect(context.Background(), g, ref)
	require.NoError(t, err)
	assert.Equal(t, 3, r.People)
	require.NotNil(t, r.AverageChildren)
	assert.InDelta(t, 2.0/3.0, *r.AverageChildren, 1e-9)
	require.NotNil(t, r.AverageAge)
	assert.InDelta(t, 36.5, *r.AverageAge, 1e-9)
	require.Len(t, r.Birthdays, 1)

	empty, err := Collect(context.Background(), graph.New(), ref)
	require.NoError(t, err)
	assert.Nil(t, empty.AverageChildren)
	assert.Nil(t, empty.AverageAge)
	assert.Empty(t, empty.Birthdays)
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, graph.New(), ref)
	assert.ErrorIs(t, err, context.Canceled)
}
