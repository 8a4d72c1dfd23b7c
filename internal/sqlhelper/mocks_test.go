package sqlhelper

import (
	"context"
	"fmt"
	"sync"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

type fakeSet struct {
	columns []string
	rows    [][]any
}

type fakeRows struct {
	sets   []fakeSet
	set    int
	pos    int
	closed bool
}

func (r *fakeRows) current() fakeSet {
	if r.set >= len(r.sets) {
		return fakeSet{}
	}
	return r.sets[r.set]
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.current().rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.current().rows[r.pos-1]
	for i, d := range dest {
		ptr, ok := d.(*any)
		if !ok {
			return fmt.Errorf("unsupported destination %T", d)
		}
		*ptr = row[i]
	}
	return nil
}

func (r *fakeRows) NextResultSet() bool {
	if r.set+1 >= len(r.sets) {
		return false
	}
	r.set++
	r.pos = 0
	return true
}

func (r *fakeRows) Columns() ([]string, error) { return r.current().columns, nil }
func (r *fakeRows) Err() error                 { return nil }
func (r *fakeRows) Close() error               { r.closed = true; return nil }

type recordedCall struct {
	sql  string
	args []any
}

// fakeSource hands out connections whose Exec and Query run the configured
// handlers.
type fakeSource struct {
	driver string
	shape  []*sphelper.Parameter

	exec  func(args []any) (int64, error)
	query func(args []any) (*fakeRows, error)

	mu        sync.Mutex
	discovers int
	opened    int
	closed    int
	calls     []recordedCall
}

func (s *fakeSource) Identity() string { return "fake-" + s.driver }
func (s *fakeSource) Driver() string   { return s.driver }

func (s *fakeSource) CreateConnection() (sphelper.Connection, error) {
	return &fakeConnection{source: s}, nil
}

func (s *fakeSource) discover(_ context.Context, cmd *sphelper.Command) error {
	s.mu.Lock()
	s.discovers++
	s.mu.Unlock()
	cmd.Parameters = sphelper.CloneParameters(s.shape)
	return nil
}

func (s *fakeSource) record(sql string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recordedCall{sql: sql, args: args})
}

func (s *fakeSource) lastCall() recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type fakeConnection struct {
	source *fakeSource
	open   bool
}

func (c *fakeConnection) Open(_ context.Context) error {
	c.source.mu.Lock()
	c.source.opened++
	c.source.mu.Unlock()
	c.open = true
	return nil
}

func (c *fakeConnection) Close() error {
	if c.open {
		c.source.mu.Lock()
		c.source.closed++
		c.source.mu.Unlock()
	}
	c.open = false
	return nil
}

func (c *fakeConnection) IsOpen() bool   { return c.open }
func (c *fakeConnection) Driver() string { return c.source.driver }

func (c *fakeConnection) CreateCommand() *sphelper.Command {
	return &sphelper.Command{Connection: c}
}

func (c *fakeConnection) Query(_ context.Context, sql string, args ...any) (sphelper.Rows, error) {
	c.source.record(sql, args)
	if c.source.query == nil {
		return &fakeRows{}, nil
	}
	rows, err := c.source.query(args)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *fakeConnection) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	c.source.record(sql, args)
	if c.source.exec == nil {
		return 0, nil
	}
	return c.source.exec(args)
}
