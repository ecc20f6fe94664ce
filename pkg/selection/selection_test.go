// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSchemaConflict(t *testing.T) {
	tests := []struct {
		name    string
		held    Type
		attempt Type
		wantMsg string
	}{
		{"include blocked by exclude", Exclude, Include, "Cannot include a schema already selected in exclude."},
		{"exclude blocked by include", Include, Exclude, "Cannot exclude a schema already selected in include."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			require.NoError(t, m.SetSchema(tt.held, "db1", "public", true))

			err := m.SetSchema(tt.attempt, "db1", "public", true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConflict))
			assert.Equal(t, tt.wantMsg, err.Error())

			assert.True(t, m.Selected(tt.held, "db1", "public"))
			assert.False(t, m.Selected(tt.attempt, "db1", "public"))
			assert.Equal(t, 0, m.Count(tt.attempt, "db1"))
		})
	}
}

func TestSetSchemaSameNameOtherDatabase(t *testing.T) {
	m := New()
	require.NoError(t, m.SetSchema(Exclude, "db1", "public", true))
	require.NoError(t, m.SetSchema(Include, "db2", "public", true))
	assert.True(t, m.Selected(Include, "db2", "public"))
}

func TestDeselectSchema(t *testing.T) {
	m := New()
	require.NoError(t, m.SetSchema(Include, "db1", "a", true))
	require.NoError(t, m.SetSchema(Include, "db1", "b", true))
	require.NoError(t, m.SetSchema(Include, "db1", "a", false))
	assert.Equal(t, []string{"b"}, m.Schemas(Include, "db1"))

	// Deselecting frees the schema for the other side.
	require.NoError(t, m.SetSchema(Exclude, "db1", "a", true))
}

func TestSetDatabaseSkipsConflicts(t *testing.T) {
	m := New()
	require.NoError(t, m.SetSchema(Exclude, "db1", "internal", true))

	added := m.SetDatabase(Include, "db1", []string{"public", "internal", "audit"}, true)
	assert.Equal(t, []string{"public", "audit"}, added)
	assert.Equal(t, []string{"public", "audit"}, m.Schemas(Include, "db1"))
	assert.Equal(t, "Selected in exclude section", m.ConflictReason(Include, "db1", "internal"))
	assert.Equal(t, "Selected in include section", m.ConflictReason(Exclude, "db1", "public"))
	assert.Equal(t, "", m.ConflictReason(Include, "db1", "public"))
}

func TestDeselectDatabaseLeavesOppositeUntouched(t *testing.T) {
	m := New()
	m.SetDatabase(Include, "db1", []string{"public", "sales"}, true)
	require.NoError(t, m.SetSchema(Exclude, "db1", "internal", true))
	m.SetDatabase(Include, "db2", []string{"x"}, true)

	m.SetDatabase(Include, "db1", nil, false)

	assert.Equal(t, 0, m.Count(Include, "db1"))
	assert.Equal(t, 1, m.Count(Include, "db2"))
	assert.Equal(t, []string{"internal"}, m.Schemas(Exclude, "db1"))
}

func TestSummary(t *testing.T) {
	m := New()
	assert.Equal(t, Summary{Text: Placeholder}, m.Summary(Include))

	m.SetDatabase(Include, "db1", []string{"public", "internal"}, true)
	assert.Equal(t, Summary{Text: "db1 (2 schemas)"}, m.Summary(Include))

	m.SetDatabase(Include, "db2", []string{"sales"}, true)
	m.SetDatabase(Include, "db3", []string{"a", "b", "c"}, true)
	s := m.Summary(Include)
	assert.Equal(t, "db1 (2 schemas) +2 more", s.Text)
	assert.Equal(t, []string{"db1 (2 schemas)", "db2 (1 schemas)", "db3 (3 schemas)"}, s.Detail)

	m.SetDatabase(Include, "db1", nil, false)
	assert.Equal(t, "db2 (1 schemas) +1 more", m.Summary(Include).Text)
	assert.Equal(t, Placeholder, m.Summary(Exclude).Text)
}

func TestSerializeOmitsEmpty(t *testing.T) {
	m := New()
	m.SetDatabase(Include, "db1", []string{"public", "internal"}, true)
	m.SetDatabase(Include, "db2", []string{"sales"}, true)
	m.SetDatabase(Include, "db2", nil, false)
	require.NoError(t, m.SetSchema(Exclude, "db3", "tmp", true))

	f := m.Serialize()
	assert.Equal(t, map[string][]string{"^db1$": {"^public$", "^internal$"}}, f.Include)
	assert.Equal(t, map[string][]string{"^db3$": {"^tmp$"}}, f.Exclude)

	inc, exc := f.JSON()
	assert.JSONEq(t, `{"^db1$":["^public$","^internal$"]}`, inc)
	assert.JSONEq(t, `{"^db3$":["^tmp$"]}`, exc)
}

func TestSerializeNothingSelected(t *testing.T) {
	f := New().Serialize()
	assert.True(t, f.Empty())
	inc, exc := f.JSON()
	assert.Equal(t, "{}", inc)
	assert.Equal(t, "{}", exc)
}

func TestReset(t *testing.T) {
	m := New()
	m.SetDatabase(Include, "db1", []string{"public"}, true)
	m.Reset()
	assert.False(t, m.Selected(Include, "db1", "public"))
	assert.Equal(t, Placeholder, m.Summary(Include).Text)
}
