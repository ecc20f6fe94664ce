// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package metadata loads the databases and schemas a connection can see.
package metadata

import (
	"context"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/confighub/sourcesense/pkg/connection"
	"github.com/confighub/sourcesense/pkg/workflows"
)

// Catalog maps database names to schema names, both in first-seen order.
type Catalog struct {
	dbs     []string
	schemas map[string][]string
	seen    map[string]sets.Set[string]
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		schemas: map[string][]string{},
		seen:    map[string]sets.Set[string]{},
	}
}

// Add records db.schema. Blank names and repeats are ignored.
func (c *Catalog) Add(db, schema string) {
	if db == "" || schema == "" {
		return
	}
	seen, ok := c.seen[db]
	if !ok {
		seen = sets.New[string]()
		c.seen[db] = seen
		c.dbs = append(c.dbs, db)
	}
	if seen.Has(schema) {
		return
	}
	seen.Insert(schema)
	c.schemas[db] = append(c.schemas[db], schema)
}

// Databases lists database names.
func (c *Catalog) Databases() []string {
	out := make([]string, len(c.dbs))
	copy(out, c.dbs)
	return out
}

// Schemas lists the schemas of db.
func (c *Catalog) Schemas(db string) []string {
	src := c.schemas[db]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Len is the number of databases.
func (c *Catalog) Len() int {
	return len(c.dbs)
}

// SchemaCount is the number of schemas across all databases.
func (c *Catalog) SchemaCount() int {
	n := 0
	for _, s := range c.schemas {
		n += len(s)
	}
	return n
}

// Normalize builds a catalog from metadata rows.
func Normalize(rows []workflows.MetadataRow) *Catalog {
	c := NewCatalog()
	for _, r := range rows {
		c.Add(r.Catalog(), r.Schema())
	}
	return c
}

// Loader fetches catalogs.
type Loader struct {
	client *workflows.Client
	logger workflows.Logger
}

// NewLoader returns a loader using client. logger may be nil.
func NewLoader(client *workflows.Client, logger workflows.Logger) *Loader {
	return &Loader{client: client, logger: logger}
}

// Load fetches the catalog for p. A failed request yields an empty catalog
// so callers can show an empty state; the error is only logged.
func (l *Loader) Load(ctx context.Context, p connection.Params) *Catalog {
	rows, err := l.client.Metadata(ctx, p.Credentials())
	if err != nil {
		l.logf("Metadata request failed: %v", err)
		return NewCatalog()
	}
	c := Normalize(rows)
	l.logf("Loaded %d databases, %d schemas from %d rows", c.Len(), c.SchemaCount(), len(rows))
	return c
}

func (l *Loader) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Log(format, args...)
	}
}
