// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package selection holds the include/exclude scope of an extraction run.
//
// Two mappings exist, one per Type, each from database name to an ordered
// set of schema names. A database+schema pair is never held by both types:
// the check happens when a schema is selected, so the model stays valid
// without any global sweep.
package selection

import (
	"encoding/json"
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Placeholder is the summary text when nothing is selected.
const Placeholder = "Select databases and schemas"

// ErrConflict is matched by every *ConflictError.
var ErrConflict = errors.New("schema selected in both include and exclude")

// Type is one side of the filter.
type Type int

const (
	Include Type = iota
	Exclude
)

func (t Type) String() string {
	if t == Exclude {
		return "exclude"
	}
	return "include"
}

// Opposite returns the other side.
func (t Type) Opposite() Type {
	if t == Include {
		return Exclude
	}
	return Include
}

// ConflictError reports a rejected selection.
type ConflictError struct {
	Type     Type
	Database string
	Schema   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Cannot %s a schema already selected in %s.", e.Type, e.Type.Opposite())
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ErrorType classifies the error for the CLI.
func (e *ConflictError) ErrorType() string {
	return "conflict"
}

// schemaSet keeps insertion order; sets.Set answers membership.
type schemaSet struct {
	order []string
	index sets.Set[string]
}

func newSchemaSet() *schemaSet {
	return &schemaSet{index: sets.New[string]()}
}

func (s *schemaSet) add(name string) {
	if s.index.Has(name) {
		return
	}
	s.index.Insert(name)
	s.order = append(s.order, name)
}

func (s *schemaSet) remove(name string) {
	if !s.index.Has(name) {
		return
	}
	s.index.Delete(name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *schemaSet) clear() {
	s.order = nil
	s.index = sets.New[string]()
}

func (s *schemaSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// side is one Type's mapping. dbs records first-touch order.
type side struct {
	dbs     []string
	schemas map[string]*schemaSet
}

func newSide() *side {
	return &side{schemas: map[string]*schemaSet{}}
}

func (s *side) get(db string) *schemaSet {
	set, ok := s.schemas[db]
	if !ok {
		set = newSchemaSet()
		s.schemas[db] = set
		s.dbs = append(s.dbs, db)
	}
	return set
}

func (s *side) has(db, schema string) bool {
	set, ok := s.schemas[db]
	return ok && set.index.Has(schema)
}

// Model is the include/exclude selection. The zero value is not usable;
// call New.
type Model struct {
	sides [2]*side
}

// New returns an empty model.
func New() *Model {
	m := &Model{}
	m.Reset()
	return m
}

// Reset clears both mappings.
func (m *Model) Reset() {
	m.sides = [2]*side{newSide(), newSide()}
}

// SetDatabase selects or deselects a whole database for t. Selecting adds
// the schemas not held by the opposite type and returns them; the rest are
// skipped. Deselecting clears every schema of db for t.
func (m *Model) SetDatabase(t Type, db string, schemas []string, selected bool) []string {
	set := m.sides[t].get(db)
	if !selected {
		set.clear()
		return nil
	}
	other := m.sides[t.Opposite()]
	var added []string
	for _, s := range schemas {
		if other.has(db, s) {
			continue
		}
		set.add(s)
		added = append(added, s)
	}
	return added
}

// SetSchema selects or deselects one schema. Selecting a schema the
// opposite type holds returns a *ConflictError and changes nothing.
func (m *Model) SetSchema(t Type, db, schema string, selected bool) error {
	if selected && m.sides[t.Opposite()].has(db, schema) {
		return &ConflictError{Type: t, Database: db, Schema: schema}
	}
	set := m.sides[t].get(db)
	if selected {
		set.add(schema)
	} else {
		set.remove(schema)
	}
	return nil
}

// Selected reports whether t holds db.schema.
func (m *Model) Selected(t Type, db, schema string) bool {
	return m.sides[t].has(db, schema)
}

// Count is the number of schemas of db selected for t.
func (m *Model) Count(t Type, db string) int {
	if set, ok := m.sides[t].schemas[db]; ok {
		return len(set.order)
	}
	return 0
}

// Schemas lists the schemas of db selected for t, in selection order.
func (m *Model) Schemas(t Type, db string) []string {
	if set, ok := m.sides[t].schemas[db]; ok {
		return set.list()
	}
	return nil
}

// ConflictReason explains why db.schema cannot be selected for t, or "".
func (m *Model) ConflictReason(t Type, db, schema string) string {
	if !m.sides[t.Opposite()].has(db, schema) {
		return ""
	}
	return fmt.Sprintf("Selected in %s section", t.Opposite())
}

// Summary is the one-line description of a side plus the full list.
type Summary struct {
	Text   string
	Detail []string
}

// Summary describes t from current state.
func (m *Model) Summary(t Type) Summary {
	s := m.sides[t]
	var lines []string
	for _, db := range s.dbs {
		if n := len(s.schemas[db].order); n > 0 {
			lines = append(lines, fmt.Sprintf("%s (%d schemas)", db, n))
		}
	}
	switch len(lines) {
	case 0:
		return Summary{Text: Placeholder}
	case 1:
		return Summary{Text: lines[0]}
	default:
		return Summary{
			Text:   fmt.Sprintf("%s +%d more", lines[0], len(lines)-1),
			Detail: lines,
		}
	}
}

// Filters is the anchored form sent to the server.
type Filters struct {
	Include map[string][]string
	Exclude map[string][]string
}

// Serialize anchors every database and schema as a full-match pattern.
// Databases with no selected schemas are left out.
func (m *Model) Serialize() Filters {
	return Filters{
		Include: m.sides[Include].anchored(),
		Exclude: m.sides[Exclude].anchored(),
	}
}

func (s *side) anchored() map[string][]string {
	out := map[string][]string{}
	for _, db := range s.dbs {
		set := s.schemas[db]
		if len(set.order) == 0 {
			continue
		}
		patterns := make([]string, 0, len(set.order))
		for _, schema := range set.order {
			patterns = append(patterns, anchor(schema))
		}
		out[anchor(db)] = patterns
	}
	return out
}

func anchor(name string) string {
	return "^" + name + "$"
}

// JSON returns the include and exclude mappings as JSON strings.
func (f Filters) JSON() (include, exclude string) {
	return encode(f.Include), encode(f.Exclude)
}

func encode(m map[string][]string) string {
	if m == nil {
		m = map[string][]string{}
	}
	// map[string][]string always marshals.
	data, _ := json.Marshal(m)
	return string(data)
}

// Empty reports whether neither side selects anything.
func (f Filters) Empty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}
