package querydef

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/histq/internal/history"
)

// Fixture describes store content: table definitions followed by a
// sequence of revisions.
type Fixture struct {
	Tables    []FixtureTable    `yaml:"tables"`
	Revisions []FixtureRevision `yaml:"revisions"`
}

// FixtureTable declares a versioned table and its user columns.
type FixtureTable struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

// FixtureRevision groups the changes committed as one revision.
type FixtureRevision struct {
	Message string   `yaml:"message,omitempty"`
	Changes []Change `yaml:"changes"`
}

// Change is one modification. Exactly one field must be set.
type Change struct {
	Put    *PutChange    `yaml:"put,omitempty"`
	Delete *DeleteChange `yaml:"delete,omitempty"`
	Flex   *FlexChange   `yaml:"flex,omitempty"`
}

// PutChange inserts or replaces an object version.
type PutChange struct {
	Table  string         `yaml:"table"`
	ID     int64          `yaml:"id"`
	Values map[string]any `yaml:"values"`
}

// DeleteChange ends the life of an object.
type DeleteChange struct {
	Table string `yaml:"table"`
	ID    int64  `yaml:"id"`
}

// FlexChange sets a flex attribute. A null value removes it.
type FlexChange struct {
	ID    int64  `yaml:"id"`
	Attr  string `yaml:"attr"`
	Value any    `yaml:"value"`
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	fx, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fx, nil
}

// ParseFixture decodes a YAML fixture. Unknown fields are rejected.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateFixture(&fx); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &fx, nil
}

func validateFixture(fx *Fixture) error {
	for i, t := range fx.Tables {
		if t.Name == "" {
			return fmt.Errorf("tables[%d]: name required", i)
		}
	}
	for i, rev := range fx.Revisions {
		for j, ch := range rev.Changes {
			set := 0
			if ch.Put != nil {
				set++
				if ch.Put.Table == "" {
					return fmt.Errorf("revisions[%d].changes[%d].put: table required", i, j)
				}
			}
			if ch.Delete != nil {
				set++
				if ch.Delete.Table == "" {
					return fmt.Errorf("revisions[%d].changes[%d].delete: table required", i, j)
				}
			}
			if ch.Flex != nil {
				set++
				if ch.Flex.Attr == "" {
					return fmt.Errorf("revisions[%d].changes[%d].flex: attr required", i, j)
				}
			}
			if set != 1 {
				return fmt.Errorf("revisions[%d].changes[%d]: exactly one of put, delete, flex required", i, j)
			}
		}
	}
	return nil
}

// ApplyFixture creates the fixture tables and commits its revisions in
// order. It returns the revision numbers assigned.
func ApplyFixture(ctx context.Context, s *history.Store, fx *Fixture) ([]int64, error) {
	for _, t := range fx.Tables {
		if err := s.CreateTable(ctx, t.Name, t.Columns); err != nil {
			return nil, err
		}
	}

	revs := make([]int64, 0, len(fx.Revisions))
	for i, rev := range fx.Revisions {
		n, err := s.Commit(ctx, rev.Message, func(ctx context.Context, tx *history.Tx) error {
			for j, ch := range rev.Changes {
				if err := applyChange(ctx, tx, ch); err != nil {
					return fmt.Errorf("changes[%d]: %w", j, err)
				}
			}
			return nil
		})
		if err != nil {
			return revs, fmt.Errorf("revisions[%d]: %w", i, err)
		}
		revs = append(revs, n)
	}
	return revs, nil
}

func applyChange(ctx context.Context, tx *history.Tx, ch Change) error {
	switch {
	case ch.Put != nil:
		values := make(map[string]any, len(ch.Put.Values))
		for col, raw := range ch.Put.Values {
			v, err := normalizeValue(raw)
			if err != nil {
				return fmt.Errorf("put %s.%s: %w", ch.Put.Table, col, err)
			}
			values[col] = v
		}
		return tx.Put(ctx, ch.Put.Table, ch.Put.ID, values)
	case ch.Delete != nil:
		return tx.Delete(ctx, ch.Delete.Table, ch.Delete.ID)
	case ch.Flex != nil:
		v, err := normalizeValue(ch.Flex.Value)
		if err != nil {
			return fmt.Errorf("flex %s: %w", ch.Flex.Attr, err)
		}
		return tx.SetFlex(ctx, ch.Flex.ID, ch.Flex.Attr, v)
	default:
		return fmt.Errorf("empty change")
	}
}
