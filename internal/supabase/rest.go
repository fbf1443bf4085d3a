package supabase

import (
	"context"
	"net/http"
	"net/url"
)

// Query builds one PostgREST call against a table. Filters compose in call
// order; the builder is single-use.
type Query struct {
	c      *Client
	table  string
	params url.Values
}

// From starts a query against a table.
func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, params: url.Values{}}
}

// Eq adds an equality filter on a column.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// OrderDesc sorts results by a column, newest first.
func (q *Query) OrderDesc(column string) *Query {
	q.params.Set("order", column+".desc")
	return q
}

// Select fetches all matching rows into dest (a pointer to a slice).
func (q *Query) Select(ctx context.Context, dest any) error {
	q.params.Set("select", "*")
	return q.c.do(ctx, request{
		method: http.MethodGet,
		path:   q.path(),
		query:  q.params,
		out:    dest,
		token:  q.c.bearerToken(ctx),
	})
}

// Single fetches exactly one matching row into dest.
// Returns ErrNotFound when no row matches.
func (q *Query) Single(ctx context.Context, dest any) error {
	q.params.Set("select", "*")
	header := http.Header{}
	header.Set("Accept", "application/vnd.pgrst.object+json")
	return q.c.do(ctx, request{
		method: http.MethodGet,
		path:   q.path(),
		query:  q.params,
		header: header,
		out:    dest,
		token:  q.c.bearerToken(ctx),
	})
}

// Insert writes a new row. When dest is non-nil the created representation
// is decoded into it (dest must point to a slice; PostgREST returns rows).
func (q *Query) Insert(ctx context.Context, record, dest any) error {
	header := http.Header{}
	if dest != nil {
		header.Set("Prefer", "return=representation")
	} else {
		header.Set("Prefer", "return=minimal")
	}
	return q.c.do(ctx, request{
		method: http.MethodPost,
		path:   q.path(),
		query:  q.params,
		header: header,
		body:   record,
		out:    dest,
		token:  q.c.bearerToken(ctx),
	})
}

// Update patches all rows matching the filters and decodes the updated
// representations into dest (a pointer to a slice). An empty result slice
// means no row satisfied the filters.
func (q *Query) Update(ctx context.Context, patch, dest any) error {
	header := http.Header{}
	header.Set("Prefer", "return=representation")
	return q.c.do(ctx, request{
		method: http.MethodPatch,
		path:   q.path(),
		query:  q.params,
		header: header,
		body:   patch,
		out:    dest,
		token:  q.c.bearerToken(ctx),
	})
}

func (q *Query) path() string {
	return "/rest/v1/" + url.PathEscape(q.table)
}
