package migration

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Current is the layout the loader expects: multi-spouse records with
// spouses, previous_spouses and siblings lists.
const Current = "1.0.0"

type Migration struct {
	FromVersion string
	ToVersion   string
	Apply       func(data map[string]any) (map[string]any, error)
}

var migrations = []Migration{
	{
		FromVersion: "0.0.1",
		ToVersion:   "1.0.0",
		Apply:       migrate_0_0_1_to_1_0_0,
	},
}

var relationLists = []string{"parents", "children", "spouses", "previous_spouses", "siblings"}

// Version guesses the layout of a document. Documents carry no version key
// because the top level is reserved for person names, so the layout is read
// off the records: a single "spouse" field without "spouses" is 0.0.1.
func Version(data map[string]any) string {
	for _, v := range data {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		_, single := rec["spouse"]
		_, multi := rec["spouses"]
		if single && !multi {
			return "0.0.1"
		}
	}
	return Current
}

// Upgrade applies every migration from the document's layout up to Current.
// data is modified in place.
func Upgrade(data map[string]any, logger *zap.Logger) (map[string]any, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for name, v := range data {
		if _, ok := v.(map[string]any); !ok {
			return nil, fmt.Errorf("record %q is not an object", name)
		}
	}

	currentVer := Version(data)
	for {
		var foundMigration *Migration
		for _, m := range migrations {
			if m.FromVersion == currentVer {
				foundMigration = &m
				break
			}
		}

		if foundMigration == nil {
			break
		}

		logger.Info("migrating family document",
			zap.String("from", currentVer),
			zap.String("to", foundMigration.ToVersion))

		newData, err := foundMigration.Apply(data)
		if err != nil {
			return nil, fmt.Errorf("migration %s -> %s failed: %w", currentVer, foundMigration.ToVersion, err)
		}
		data = newData
		currentVer = foundMigration.ToVersion
	}
	return data, nil
}

// --- Migrations ---

// The first layout married a person to at most one spouse and had no
// siblings or divorce history.
func migrate_0_0_1_to_1_0_0(data map[string]any) (map[string]any, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rec := data[name].(map[string]any)

		if _, hasSpouses := rec["spouses"]; !hasSpouses {
			spouses := []any{}
			switch s := rec["spouse"].(type) {
			case string:
				if s != "" {
					spouses = append(spouses, s)
				}
			case nil:
			default:
				return nil, fmt.Errorf("record %q: spouse must be a name or null, got %T", name, s)
			}
			rec["spouses"] = spouses
		}
		delete(rec, "spouse")

		for _, list := range relationLists {
			if _, ok := rec[list]; !ok {
				rec[list] = []any{}
			}
		}
		data[name] = rec
	}
	return data, nil
}
