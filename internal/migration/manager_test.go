package migration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDoc = `{
    "Alice": {"name": "Alice", "gender": "female", "birthdate": null, "parents": [], "children": ["Carol"], "spouse": "Bob"},
    "Bob":   {"name": "Bob", "gender": null, "birthdate": null, "parents": [], "children": ["Carol"], "spouse": "Alice"},
    "Carol": {"name": "Carol", "gender": null, "birthdate": null, "parents": ["Alice", "Bob"], "children": [], "spouse": null}
}`

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &data))
	return data
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.0.1", Version(decode(t, legacyDoc)))
	assert.Equal(t, Current, Version(decode(t, `{"A": {"name": "A", "spouses": []}}`)))
	assert.Equal(t, Current, Version(map[string]any{}))
}

func TestUpgrade_SingleSpouse(t *testing.T) {
	data, err := Upgrade(decode(t, legacyDoc), nil)
	require.NoError(t, err)

	alice := data["Alice"].(map[string]any)
	assert.Equal(t, []any{"Bob"}, alice["spouses"])
	assert.Equal(t, []any{}, alice["previous_spouses"])
	assert.Equal(t, []any{}, alice["siblings"])
	assert.NotContains(t, alice, "spouse")

	carol := data["Carol"].(map[string]any)
	assert.Equal(t, []any{}, carol["spouses"])
	assert.Equal(t, Current, Version(data))
}

func TestUpgrade_Rejects(t *testing.T) {
	_, err := Upgrade(decode(t, `{"A": 3}`), nil)
	assert.Error(t, err)

	_, err = Upgrade(decode(t, `{"A": {"name": "A", "spouse": 7}}`), nil)
	assert.Error(t, err)
}
