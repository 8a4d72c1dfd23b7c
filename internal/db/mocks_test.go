package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

type mockTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
	calls     int
}

func (m *mockTokenProvider) GetToken(_ context.Context) (string, time.Time, error) {
	m.calls++
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return m.token, m.expiresOn, nil
}

func (m *mockTokenProvider) String() string { return "mockTokenProvider" }

// cannedQuery answers every query containing match.
type cannedQuery struct {
	match string
	rows  [][]any
	err   error
}

type recordedQuery struct {
	sql  string
	args []any
}

// catalogConnection is an open sphelper.Connection that serves canned rows.
type catalogConnection struct {
	driver  string
	answers []cannedQuery
	queries []recordedQuery
}

func (c *catalogConnection) Open(_ context.Context) error { return nil }
func (c *catalogConnection) Close() error                 { return nil }
func (c *catalogConnection) IsOpen() bool                 { return true }
func (c *catalogConnection) Driver() string               { return c.driver }

func (c *catalogConnection) CreateCommand() *sphelper.Command {
	return &sphelper.Command{Connection: c}
}

func (c *catalogConnection) Query(_ context.Context, query string, args ...any) (sphelper.Rows, error) {
	c.queries = append(c.queries, recordedQuery{sql: query, args: args})
	for _, a := range c.answers {
		if strings.Contains(query, a.match) {
			if a.err != nil {
				return nil, a.err
			}
			return &cannedRows{rows: a.rows}, nil
		}
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func (c *catalogConnection) Exec(_ context.Context, _ string, _ ...any) (int64, error) {
	return 0, nil
}

func (c *catalogConnection) discoveryCommand(procedure string) *sphelper.Command {
	return &sphelper.Command{Connection: c, Type: sphelper.CommandTypeStoredProcedure, Text: procedure}
}

type cannedRows struct {
	rows [][]any
	pos  int
}

func (r *cannedRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *cannedRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

func (r *cannedRows) Columns() ([]string, error) { return nil, nil }
func (r *cannedRows) Err() error                 { return nil }
func (r *cannedRows) Close() error               { return nil }

func assign(dest, v any) error {
	switch d := dest.(type) {
	case sql.Scanner:
		return d.Scan(v)
	case *string:
		*d = v.(string)
	case *int64:
		*d = v.(int64)
	case *bool:
		*d = v.(bool)
	case *any:
		*d = v
	default:
		return fmt.Errorf("unsupported destination %T", dest)
	}
	return nil
}
