package paramcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vvka-141/sphelper/internal/store"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

var errNotSupported = errors.New("not supported by mock")

type mockSource struct {
	identity  string
	createErr error
	openErr   error

	created atomic.Int32
	opened  atomic.Int32
	closed  atomic.Int32
}

func newMockSource(identity string) *mockSource {
	return &mockSource{identity: identity}
}

func (s *mockSource) Identity() string { return s.identity }

func (s *mockSource) CreateConnection() (sphelper.Connection, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created.Add(1)
	return &mockConnection{source: s}, nil
}

type mockConnection struct {
	source *mockSource
	open   bool
}

func (c *mockConnection) Open(_ context.Context) error {
	if c.source.openErr != nil {
		return c.source.openErr
	}
	c.open = true
	c.source.opened.Add(1)
	return nil
}

func (c *mockConnection) Close() error {
	c.open = false
	c.source.closed.Add(1)
	return nil
}

func (c *mockConnection) IsOpen() bool   { return c.open }
func (c *mockConnection) Driver() string { return "mock" }

func (c *mockConnection) CreateCommand() *sphelper.Command {
	return &sphelper.Command{Connection: c}
}

func (c *mockConnection) Query(_ context.Context, _ string, _ ...any) (sphelper.Rows, error) {
	return nil, errNotSupported
}

func (c *mockConnection) Exec(_ context.Context, _ string, _ ...any) (int64, error) {
	return 0, errNotSupported
}

// mockDiscoverer returns a fixed shape with values filled in, so tests can
// observe that the cache clears them. The first failFirst calls return err.
type mockDiscoverer struct {
	params    []*sphelper.Parameter
	err       error
	failFirst int32
	delay     time.Duration

	calls      atomic.Int32
	mu         sync.Mutex
	lastCmd    sphelper.Command
	sawClosed  bool
	sawPresets bool
}

func (d *mockDiscoverer) Discover(ctx context.Context, cmd *sphelper.Command) error {
	n := d.calls.Add(1)

	d.mu.Lock()
	d.lastCmd = *cmd
	if cmd.Connection == nil || !cmd.Connection.IsOpen() {
		d.sawClosed = true
	}
	if len(cmd.Parameters) > 0 {
		d.sawPresets = true
	}
	d.mu.Unlock()

	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n <= d.failFirst {
		return d.err
	}

	out := sphelper.CloneParameters(d.params)
	for i, p := range out {
		p.Value = i + 100
	}
	cmd.Parameters = out
	return nil
}

func ordersShape() []*sphelper.Parameter {
	return []*sphelper.Parameter{
		{Name: sphelper.ReturnValueParameterName, Direction: sphelper.DirectionReturnValue, DataType: "int"},
		{Name: "@customerId", Direction: sphelper.DirectionInput, DataType: "int", Position: 1},
		{Name: "@since", Direction: sphelper.DirectionInput, DataType: "datetime2", Nullable: true, Position: 2},
		{Name: "@total", Direction: sphelper.DirectionInputOutput, DataType: "decimal", Precision: 18, Scale: 2, Position: 3},
	}
}

// failingStore wraps a store and fails the selected operations.
type failingStore struct {
	getErr error
	setErr error
}

func (s *failingStore) Get(_ context.Context, _ string) ([]*sphelper.Parameter, bool, error) {
	return nil, false, s.getErr
}

func (s *failingStore) Set(_ context.Context, _ string, _ []*sphelper.Parameter) error {
	return s.setErr
}

func (s *failingStore) Delete(_ context.Context, _ string) error { return nil }

func (s *failingStore) Keys(_ context.Context) ([]string, error) { return nil, s.getErr }

func (s *failingStore) Clear(_ context.Context) error { return s.setErr }

// lateStore reports a miss for the first hide Get calls, as if another
// process stored the entry right after the caller looked. Later Get calls
// fail with laterErr when it is set.
type lateStore struct {
	store.Store
	hide     atomic.Int32
	laterErr error
}

func (s *lateStore) Get(ctx context.Context, key string) ([]*sphelper.Parameter, bool, error) {
	if s.hide.Add(-1) >= 0 {
		return nil, false, nil
	}
	if s.laterErr != nil {
		return nil, false, s.laterErr
	}
	return s.Store.Get(ctx, key)
}
