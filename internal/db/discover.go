package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// DiscoverFor returns the parameter discovery function for driver.
func DiscoverFor(driver string) (sphelper.DiscoverFunc, error) {
	switch driver {
	case sphelper.DriverSQLServer:
		return DeriveSQLServerParameters, nil
	case sphelper.DriverPostgres:
		return DerivePostgresParameters, nil
	case sphelper.DriverHANA:
		return DeriveHANAParameters, nil
	default:
		return nil, fmt.Errorf("no parameter discovery for driver %q: %w", driver, sphelper.ErrUnsupportedDriver)
	}
}

func commandConnection(cmd *sphelper.Command) (sphelper.Connection, error) {
	if cmd == nil || cmd.Connection == nil {
		return nil, fmt.Errorf("discovery command has no connection: %w", sphelper.ErrInvalidArgument)
	}
	if cmd.Text == "" {
		return nil, fmt.Errorf("discovery command has no procedure name: %w", sphelper.ErrInvalidArgument)
	}
	return cmd.Connection, nil
}

// scanAll runs query and calls scan once per row.
func scanAll(ctx context.Context, conn sphelper.Connection, query string, args []any, scan func(sphelper.Rows) error) error {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// splitQualifiedName splits "schema.name" into its parts. Quoted parts
// ("..." or [...]) keep their case; unquoted parts go through fold.
// schema is empty when the name is unqualified.
func splitQualifiedName(name string, fold func(string) string) (schema, object string) {
	parts := splitIdentifiers(name)
	for i, p := range parts {
		parts[i] = unquoteIdentifier(p, fold)
	}
	if len(parts) == 1 {
		return "", parts[0]
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// splitIdentifiers splits on dots that are not inside quotes or brackets.
func splitIdentifiers(name string) []string {
	var (
		parts   []string
		current strings.Builder
		closing rune
	)
	for _, r := range name {
		switch {
		case closing != 0:
			current.WriteRune(r)
			if r == closing {
				closing = 0
			}
		case r == '"':
			closing = '"'
			current.WriteRune(r)
		case r == '[':
			closing = ']'
			current.WriteRune(r)
		case r == '.':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(parts, current.String())
}

func unquoteIdentifier(part string, fold func(string) string) string {
	part = strings.TrimSpace(part)
	if len(part) >= 2 {
		if (part[0] == '"' && part[len(part)-1] == '"') || (part[0] == '[' && part[len(part)-1] == ']') {
			return part[1 : len(part)-1]
		}
	}
	return fold(part)
}

// optionalSchema turns an empty schema into a NULL query argument.
func optionalSchema(schema string) any {
	if schema == "" {
		return nil
	}
	return schema
}
