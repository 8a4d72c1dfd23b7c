package paramcache

import (
	"context"
	"fmt"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// discover runs the discovery round-trip for procedureName on a connection
// obtained from source. The connection is closed on every path. The returned
// set is owned by the caller and carries no values.
func (c *Cache) discover(ctx context.Context, source sphelper.ConnectionFactory, discover sphelper.DiscoverFunc, procedureName string, includeReturnValue bool) ([]*sphelper.Parameter, error) {
	conn, err := source.CreateConnection()
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	if conn == nil {
		return nil, fmt.Errorf("connection factory %q returned nil connection", source.Identity())
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			c.logger.Error("Failed to close discovery connection: %v", cerr)
		}
	}()

	if !conn.IsOpen() {
		if err := conn.Open(ctx); err != nil {
			return nil, fmt.Errorf("open connection: %w", err)
		}
	}

	cmd := conn.CreateCommand()
	if cmd == nil {
		cmd = &sphelper.Command{Connection: conn}
	}
	cmd.Type = sphelper.CommandTypeStoredProcedure
	cmd.Text = procedureName
	cmd.Parameters = nil

	if err := discover(ctx, cmd); err != nil {
		return nil, err
	}

	params := cmd.Parameters
	if !includeReturnValue && len(params) > 0 && params[0] != nil && params[0].Direction == sphelper.DirectionReturnValue {
		params = params[1:]
	}
	if err := sphelper.ValidateParameterSet(params); err != nil {
		return nil, fmt.Errorf("discovered parameter set: %w", err)
	}

	out := sphelper.CloneParameters(params)
	if out == nil {
		out = []*sphelper.Parameter{}
	}
	sphelper.ResetValues(out)
	return out, nil
}
