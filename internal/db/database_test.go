package db

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/N3moAhead/kinship/internal/graph"
	"github.com/N3moAhead/kinship/internal/migration"
	"github.com/N3moAhead/kinship/internal/relation"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	people := []struct{ name, gender, birthdate string }{
		{"Alice", "female", "01-05-1990"},
		{"Bob", "male", "01-05-1985"},
		{"Carol", "", "12-11-2015"},
		{"Dave", "male", ""},
		{"Eve", "", ""},
		{"Frank", "", ""},
	}
	for _, p := range people {
		_, err := g.AddPerson(p.name, p.gender, p.birthdate)
		require.NoError(t, err)
	}
	require.NoError(t, g.SetRelation(relation.Spouse, "Alice", "Bob"))
	require.NoError(t, g.SetParents("Carol", "Alice", "Bob"))
	require.NoError(t, g.SetRelation(relation.Sibling, "Dave", "Alice"))
	require.NoError(t, g.SetRelation(relation.Parent, "Dave", "Eve"))
	require.NoError(t, g.SetRelation(relation.Spouse, "Dave", "Frank"))
	require.NoError(t, g.Divorce("Frank", "Dave"))
	return g
}

func TestRoundTrip(t *testing.T) {
	g := sampleGraph(t)
	doc := ToDocument(g)

	loaded, err := FromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, g.Names(), loaded.Names())
	if diff := cmp.Diff(doc, ToDocument(loaded)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToDocument_Shape(t *testing.T) {
	doc := ToDocument(sampleGraph(t))

	content, err := json.Marshal(doc)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(content, &raw))

	eve := raw["Eve"]
	assert.Equal(t, "Eve", eve["name"])
	assert.Nil(t, eve["gender"])
	assert.Nil(t, eve["birthdate"])
	assert.Equal(t, []any{"Dave"}, eve["parents"])
	for _, key := range []string{"children", "spouses", "previous_spouses", "siblings"} {
		assert.Equal(t, []any{}, eve[key], key)
	}
	assert.Equal(t, []any{"Alice", "Bob"}, raw["Carol"]["parents"])
	assert.Equal(t, []any{"Frank"}, raw["Dave"]["previous_spouses"])
}

func TestFromDocument_RepairsAsymmetry(t *testing.T) {
	doc, err := Decode([]byte(`{
		"Alice": {"name": "Alice", "gender": null, "birthdate": null, "parents": [], "children": [], "spouses": ["Bob"], "previous_spouses": [], "siblings": []},
		"Bob":   {"name": "Bob", "gender": null, "birthdate": null, "parents": [], "children": [], "spouses": [], "previous_spouses": [], "siblings": []},
		"Carol": {"name": "Carol", "gender": null, "birthdate": null, "parents": ["Alice"], "children": [], "spouses": [], "previous_spouses": ["Bob"], "siblings": []}
	}`), nil)
	require.NoError(t, err)

	g, err := FromDocument(doc)
	require.NoError(t, err)

	bob, err := g.Record("Bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, bob.Spouses)
	assert.Equal(t, []string{"Carol"}, bob.PreviousSpouses)

	alice, err := g.Record("Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carol"}, alice.Children)
}

func TestFromDocument_DanglingReference(t *testing.T) {
	doc, err := Decode([]byte(`{
		"Carol": {"name": "Carol", "parents": ["Ghost"], "children": [], "spouses": [], "previous_spouses": [], "siblings": []}
	}`), nil)
	require.NoError(t, err)

	g, err := FromDocument(doc)
	assert.ErrorIs(t, err, ErrDanglingReference)
	assert.Nil(t, g)
}

func TestFromDocument_SelfReference(t *testing.T) {
	doc, err := Decode([]byte(`{"A": {"name": "A", "spouses": ["A"]}}`), nil)
	require.NoError(t, err)

	g, err := FromDocument(doc)
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)
	assert.Nil(t, g)
}

func TestDecode_Malformed(t *testing.T) {
	for _, input := range []string{`{"A": `, `null`, `[1, 2]`, `{"A": 1}`, `{"A": {"parents": "B"}}`} {
		_, err := Decode([]byte(input), nil)
		assert.ErrorIs(t, err, ErrParse, input)
	}
}

func TestDecode_LegacySingleSpouse(t *testing.T) {
	doc, err := Decode([]byte(`{
		"Alice": {"name": "Alice", "gender": null, "birthdate": null, "parents": [], "children": [], "spouse": "Bob"},
		"Bob":   {"name": "Bob", "gender": null, "birthdate": null, "parents": [], "children": [], "spouse": "Alice"}
	}`), nil)
	require.NoError(t, err)

	g, err := FromDocument(doc)
	require.NoError(t, err)
	alice, err := g.Record("Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, alice.Spouses)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.json")
	g := sampleGraph(t)

	require.NoError(t, Save(g, path, nil))
	loaded, err := Load(path, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(ToDocument(g), ToDocument(loaded)); diff != "" {
		t.Errorf("save/load mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Len())
}

func TestLoad_MalformedIsNotEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	g, err := Load(path, nil)
	assert.ErrorIs(t, err, ErrParse)
	assert.Nil(t, g)
}

func TestSave_UnwritableDir(t *testing.T) {
	err := Save(graph.New(), filepath.Join(t.TempDir(), "missing", "family.json"), nil)
	assert.ErrorIs(t, err, ErrIO)
}

func TestDecode_KeepsDocumentOrder(t *testing.T) {
	content := []byte(`{
		"Zed":   {"name": "Zed", "gender": null, "birthdate": "15-03-2000", "parents": [], "children": [], "spouses": [], "previous_spouses": [], "siblings": []},
		"Alice": {"name": "Alice", "gender": null, "birthdate": "01-05-1990", "parents": [], "children": [], "spouses": [], "previous_spouses": [], "siblings": []},
		"Mia":   {"name": "Mia", "gender": null, "birthdate": null, "parents": [], "children": [], "spouses": [], "previous_spouses": [], "siblings": []}
	}`)
	doc, err := Decode(content, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed", "Alice", "Mia"}, doc.Names)

	g, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed", "Alice", "Mia"}, g.Names())

	out, err := json.Marshal(ToDocument(g))
	require.NoError(t, err)
	zed := strings.Index(string(out), `"Zed"`)
	alice := strings.Index(string(out), `"Alice"`)
	mia := strings.Index(string(out), `"Mia"`)
	assert.True(t, zed < alice && alice < mia, string(out))
}

func TestSaveLoad_KeepsInsertionOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.json")
	g := graph.New()
	for _, name := range []string{"Zed", "Bob", "Alice"} {
		_, err := g.AddPerson(name, "", "")
		require.NoError(t, err)
	}
	require.NoError(t, Save(g, path, nil))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed", "Bob", "Alice"}, loaded.Names())
}

func TestFromDocument_RecordsMissingFromNames(t *testing.T) {
	doc := ToDocument(sampleGraph(t))
	doc.Names = []string{"Frank", "Ghost", "Frank"}

	g, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Frank", "Alice", "Bob", "Carol", "Dave", "Eve"}, g.Names())
}

const legacyDoc = `{
    "Bob":   {"name": "Bob", "gender": null, "birthdate": null, "parents": [], "children": ["Carol"], "spouse": "Alice"},
    "Alice": {"name": "Alice", "gender": "female", "birthdate": null, "parents": [], "children": ["Carol"], "spouse": "Bob"},
    "Carol": {"name": "Carol", "gender": null, "birthdate": null, "parents": ["Alice", "Bob"], "children": [], "spouse": null}
}`

func TestUpgradeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyDoc), 0644))

	changed, err := UpgradeFile(path, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(content, &raw))
	assert.Equal(t, migration.Current, migration.Version(raw))

	g, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "Alice", "Carol"}, g.Names())

	changed, err = UpgradeFile(path, nil)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = UpgradeFile(filepath.Join(dir, "missing.json"), nil)
	require.NoError(t, err)
	assert.False(t, changed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestUpgradeFile_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{oops"), 0644))
	_, err := UpgradeFile(broken, nil)
	assert.ErrorIs(t, err, ErrParse)

	badSpouse := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badSpouse, []byte(`{"A": {"name": "A", "spouse": 7}}`), 0644))
	_, err = UpgradeFile(badSpouse, nil)
	assert.ErrorIs(t, err, ErrParse)

	_, err = UpgradeFile(dir, nil)
	assert.ErrorIs(t, err, ErrIO)
}
