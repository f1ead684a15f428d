// Package db converts a family graph to and from its JSON document and
// reads and writes that document on disk.
package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/N3moAhead/kinship/internal/graph"
	"github.com/N3moAhead/kinship/internal/migration"
	"github.com/N3moAhead/kinship/internal/person"
	"github.com/N3moAhead/kinship/internal/relation"
	"go.uber.org/zap"
)

var (
	ErrDanglingReference = errors.New("reference to unknown person")
	ErrParse             = errors.New("malformed family document")
	ErrIO                = errors.New("family file unavailable")
)

// Document is the on-disk shape: every person's record keyed by name. Names
// lists the keys in insertion order, which is also the order on disk.
type Document struct {
	Names   []string
	Records map[string]person.Record
}

// order returns Names followed by any record missing from it, sorted.
func (d Document) order() []string {
	names := make([]string, 0, len(d.Records))
	seen := make(map[string]bool, len(d.Records))
	for _, name := range d.Names {
		if _, ok := d.Records[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var rest []string
	for name := range d.Records {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// MarshalJSON writes the records as one object, keys in insertion order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.order() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		rec, err := json.Marshal(d.Records[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rec)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToDocument snapshots g.
func ToDocument(g *graph.Graph) Document {
	doc := Document{Names: g.Names(), Records: make(map[string]person.Record, g.Len())}
	for _, name := range doc.Names {
		rec, _ := g.Record(name)
		doc.Records[name] = rec
	}
	return doc
}

// FromDocument builds a graph in two passes: first every person, in document
// order, then every relation through the symmetric setters, so a document
// that lists an edge on one side only still loads symmetric. Any name that is
// not a key of doc fails the whole load and no graph is returned.
func FromDocument(doc Document) (*graph.Graph, error) {
	names := doc.order()

	for _, name := range names {
		rec := doc.Records[name]
		for _, list := range [][]string{rec.Parents, rec.Children, rec.Spouses, rec.PreviousSpouses, rec.Siblings} {
			for _, ref := range list {
				if _, ok := doc.Records[ref]; !ok {
					return nil, fmt.Errorf("%s refers to %q: %w", name, ref, ErrDanglingReference)
				}
			}
		}
	}

	g := graph.New()
	for _, name := range names {
		rec := doc.Records[name]
		if _, err := g.AddPerson(name, person.Value(rec.Gender), person.Value(rec.Birthdate)); err != nil {
			return nil, err
		}
	}

	for _, name := range names {
		rec := doc.Records[name]
		links := []struct {
			kind  relation.Kind
			peers []string
		}{
			{relation.Child, rec.Parents},
			{relation.Parent, rec.Children},
			{relation.Spouse, rec.Spouses},
			{relation.Sibling, rec.Siblings},
		}
		for _, l := range links {
			if len(l.peers) == 0 {
				continue
			}
			if err := g.SetRelation(l.kind, name, l.peers...); err != nil {
				return nil, fmt.Errorf("linking %s: %w", name, err)
			}
		}
		for _, ex := range rec.PreviousSpouses {
			if err := g.RestorePreviousSpouse(name, ex); err != nil {
				return nil, fmt.Errorf("linking %s: %w", name, err)
			}
		}
	}
	return g, nil
}

// objectKeys lists the top-level keys of a JSON object in the order they
// appear. A repeated key counts once, at its first position.
func objectKeys(content []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("document is not an object")
	}

	var keys []string
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Decode parses a JSON document, upgrading older layouts first.
func Decode(content []byte, logger *zap.Logger) (Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if raw == nil {
		return Document{}, fmt.Errorf("%w: document is null", ErrParse)
	}

	upgraded, err := migration.Upgrade(raw, logger)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	normalized, err := json.Marshal(upgraded)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	doc := Document{}
	if err := json.Unmarshal(normalized, &doc.Records); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if doc.Names, err = objectKeys(content); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return doc, nil
}

// Load reads the graph stored at path. A missing file is not fatal: Load
// returns an empty graph together with an error matching ErrIO and
// fs.ErrNotExist, and the caller decides whether to start fresh. Any other
// failure returns no graph.
func Load(path string, logger *zap.Logger) (*graph.Graph, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no family file, starting empty", zap.String("path", path))
		return graph.New(), fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	doc, err := Decode(content, logger)
	if err != nil {
		logger.Warn("could not decode family file", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	g, err := FromDocument(doc)
	if err != nil {
		logger.Warn("could not build family graph", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	logger.Info("family graph loaded", zap.String("path", path), zap.Int("people", g.Len()))
	return g, nil
}

// Save writes g to path. The file is replaced atomically so a watcher never
// sees half a document.
func Save(g *graph.Graph, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := writeDocument(path, ToDocument(g)); err != nil {
		return err
	}
	logger.Info("family graph saved", zap.String("path", path), zap.Int("people", g.Len()))
	return nil
}

// UpgradeFile rewrites the document at path in the current layout and
// reports whether it changed. A missing file is left alone.
func UpgradeFile(path string, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return false, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if migration.Version(raw) == migration.Current {
		return false, nil
	}

	doc, err := Decode(content, logger)
	if err != nil {
		return false, err
	}
	if err := writeDocument(path, doc); err != nil {
		return false, err
	}
	logger.Info("family file upgraded", zap.String("path", path), zap.String("version", migration.Current))
	return true, nil
}

func writeDocument(path string, doc Document) error {
	content, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding family document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(content, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
